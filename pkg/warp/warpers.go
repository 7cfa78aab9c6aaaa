package warp

import "math"

// Temperature divides every score by T. Values <= 0 and exactly 1 leave the
// scores unchanged; greedy decoding is the sampler's concern, not ours.
type Temperature float32

func (t Temperature) Warp(indices []int, logits []float32) ([]int, []float32) {
	outIdx, outLog := clone(indices, logits)
	if t <= 0 || t == 1 {
		return outIdx, outLog
	}
	inv := 1 / float32(t)
	for i := range outLog {
		outLog[i] *= inv
	}
	return outIdx, outLog
}

// TopP keeps the shortest prefix whose probability mass reaches P. The input
// must already be in descending score order, which TopK guarantees. At
// least one candidate always survives. Scores are not renormalised.
type TopP float32

func (p TopP) Warp(indices []int, logits []float32) ([]int, []float32) {
	mustAlign(indices, logits)
	if p <= 0 || p >= 1 || len(logits) == 0 {
		return clone(indices, logits)
	}
	probs := Softmax(logits)
	cut := len(probs)
	var sum float64
	for i, pr := range probs {
		sum += pr
		if sum >= float64(p) {
			cut = i + 1
			break
		}
	}
	return clone(indices[:cut], logits[:cut])
}

// MinP drops candidates whose probability is below P times the probability
// of the most likely candidate. Order is preserved.
type MinP float32

func (p MinP) Warp(indices []int, logits []float32) ([]int, []float32) {
	mustAlign(indices, logits)
	if p <= 0 || len(logits) == 0 {
		return clone(indices, logits)
	}
	probs := Softmax(logits)
	maxProb := 0.0
	for _, pr := range probs {
		maxProb = max(maxProb, pr)
	}
	threshold := maxProb * float64(p)

	outIdx := make([]int, 0, len(indices))
	outLog := make([]float32, 0, len(logits))
	for i, pr := range probs {
		if pr >= threshold {
			outIdx = append(outIdx, indices[i])
			outLog = append(outLog, logits[i])
		}
	}
	return outIdx, outLog
}

// RepetitionPenalty lowers the score of every candidate whose vocabulary
// index appears in Recent: positive scores are divided by Penalty and
// negative scores multiplied by it. Penalty <= 1 disables it.
type RepetitionPenalty struct {
	Penalty float32
	Recent  []int
}

func (r RepetitionPenalty) Warp(indices []int, logits []float32) ([]int, []float32) {
	outIdx, outLog := clone(indices, logits)
	if r.Penalty <= 1 || len(r.Recent) == 0 {
		return outIdx, outLog
	}
	seen := make(map[int]struct{}, len(r.Recent))
	for _, id := range r.Recent {
		seen[id] = struct{}{}
	}
	for i, id := range outIdx {
		if _, ok := seen[id]; !ok {
			continue
		}
		if outLog[i] > 0 {
			outLog[i] /= r.Penalty
		} else {
			outLog[i] *= r.Penalty
		}
	}
	return outIdx, outLog
}

// Softmax returns the probabilities of logits, computed in float64 after
// subtracting the maximum for numerical stability.
func Softmax(logits []float32) []float64 {
	probs := make([]float64, len(logits))
	if len(logits) == 0 {
		return probs
	}
	maxv := logits[0]
	for _, v := range logits[1:] {
		maxv = max(maxv, v)
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxv))
		probs[i] = e
		sum += e
	}
	if sum == 0 {
		return probs
	}
	inv := 1 / sum
	for i := range probs {
		probs[i] *= inv
	}
	return probs
}
