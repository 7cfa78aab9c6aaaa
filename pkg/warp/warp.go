// Package warp implements logits warpers for autoregressive sampling.
//
// A warper transforms a candidate set, a pair of aligned slices holding
// original vocabulary indices and their scores, into a smaller or reordered
// candidate set. Warpers compose into a Chain and never mutate their inputs.
//
// The central warper is TopK, which keeps the k highest-scoring candidates
// ordered by descending score. Equal scores are ordered by input position,
// earliest first, so selection is reproducible across runs and backends.
package warp

import "fmt"

// Warper transforms a candidate set. indices[i] is the original vocabulary
// id of logits[i]; the returned slices keep that pairing.
type Warper interface {
	Warp(indices []int, logits []float32) ([]int, []float32)
}

// Func adapts a plain function to the Warper interface.
type Func func(indices []int, logits []float32) ([]int, []float32)

func (f Func) Warp(indices []int, logits []float32) ([]int, []float32) {
	return f(indices, logits)
}

// Chain applies warpers in order. An empty chain copies its input.
type Chain []Warper

func (c Chain) Warp(indices []int, logits []float32) ([]int, []float32) {
	if len(c) == 0 {
		return clone(indices, logits)
	}
	for _, w := range c {
		indices, logits = w.Warp(indices, logits)
	}
	return indices, logits
}

// Identity returns the index space 0..n-1 for a full vocabulary row.
func Identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// mustAlign panics when the candidate slices disagree in length. A silent
// truncation here would attach scores to the wrong tokens.
func mustAlign(indices []int, logits []float32) {
	if len(indices) != len(logits) {
		panic(fmt.Errorf("%w: %d indices, %d logits", ErrLengthMismatch, len(indices), len(logits)))
	}
}

func clone(indices []int, logits []float32) ([]int, []float32) {
	mustAlign(indices, logits)
	outIdx := make([]int, len(indices))
	outLog := make([]float32, len(logits))
	copy(outIdx, indices)
	copy(outLog, logits)
	return outIdx, outLog
}
