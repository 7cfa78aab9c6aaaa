package warp

import (
	"cmp"
	"slices"
)

// TopK keeps the K highest-scoring candidates ordered by descending score.
// The zero Backend is Auto.
type TopK struct {
	K       int
	Backend Backend
}

// Option configures a TopK warper.
type Option func(*TopK)

// WithBackend pins the selection backend.
func WithBackend(b Backend) Option {
	return func(t *TopK) {
		t.Backend = b
	}
}

// NewTopK returns a top-k warper. Negative k selects nothing.
func NewTopK(k int, opts ...Option) *TopK {
	t := &TopK{K: max(k, 0)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t TopK) Warp(indices []int, logits []float32) ([]int, []float32) {
	return SelectWith(t.Backend, indices, logits, t.K)
}

// Select returns the min(k, len(logits)) highest-scoring candidates using
// the Auto backend. See SelectWith.
func Select(indices []int, logits []float32, k int) ([]int, []float32) {
	return SelectWith(Auto, indices, logits, k)
}

// SelectWith returns the min(k, len(logits)) highest-scoring candidates,
// ordered by descending score. Equal scores keep their input order. Each
// returned index is copied from indices, never derived from a position.
//
// The inputs are not modified and the returned slices are newly allocated.
// SelectWith panics with an error wrapping ErrLengthMismatch if indices and
// logits differ in length.
func SelectWith(b Backend, indices []int, logits []float32, k int) ([]int, []float32) {
	mustAlign(indices, logits)
	n := len(logits)
	k = min(max(k, 0), n)
	if k == 0 {
		return []int{}, []float32{}
	}

	var top []candidate
	switch ResolveBackend(b, n, k) {
	case Insertion:
		top = selectInsertion(logits, k)
	case Heap:
		top = selectHeap(logits, k)
	default:
		top = selectSort(logits, k)
	}

	outIdx := make([]int, k)
	outLog := make([]float32, k)
	for i, c := range top {
		outIdx[i] = indices[c.pos]
		outLog[i] = c.score
	}
	return outIdx, outLog
}

// candidate is a score with its position in the input.
type candidate struct {
	score float32
	pos   int
}

// ranksAbove is the strict total order shared by every backend: higher score
// first, then earlier input position. cmp.Compare places NaN below all
// numbers, which keeps the order total even for unexpected input.
func ranksAbove(a, b candidate) bool {
	if c := cmp.Compare(a.score, b.score); c != 0 {
		return c > 0
	}
	return a.pos < b.pos
}

// selectInsertion shifts each candidate into a sorted list capped at k.
func selectInsertion(logits []float32, k int) []candidate {
	top := make([]candidate, 0, k+1)
	for i, v := range logits {
		c := candidate{score: v, pos: i}

		pos := len(top)
		for pos > 0 && ranksAbove(c, top[pos-1]) {
			pos--
		}
		if pos >= k {
			continue
		}

		top = append(top, candidate{})
		copy(top[pos+1:], top[pos:])
		top[pos] = c

		if len(top) > k {
			top = top[:k]
		}
	}
	return top
}

// selectHeap keeps the k best candidates in a min-heap whose root is the
// weakest survivor, then heap-sorts them into descending order in place.
func selectHeap(logits []float32, k int) []candidate {
	h := make([]candidate, k)
	for i := range h {
		h[i] = candidate{score: logits[i], pos: i}
	}
	for i := k/2 - 1; i >= 0; i-- {
		siftDown(h, i, k)
	}

	for i := k; i < len(logits); i++ {
		c := candidate{score: logits[i], pos: i}
		if ranksAbove(c, h[0]) {
			h[0] = c
			siftDown(h, 0, k)
		}
	}

	for end := k - 1; end > 0; end-- {
		h[0], h[end] = h[end], h[0]
		siftDown(h, 0, end)
	}
	return h
}

// siftDown restores the min-heap property below root within h[:end].
func siftDown(h []candidate, root, end int) {
	for {
		child := 2*root + 1
		if child >= end {
			return
		}
		if right := child + 1; right < end && ranksAbove(h[child], h[right]) {
			child = right
		}
		if !ranksAbove(h[root], h[child]) {
			return
		}
		h[root], h[child] = h[child], h[root]
		root = child
	}
}

// selectSort is the reference path: order everything, keep the prefix.
func selectSort(logits []float32, k int) []candidate {
	all := make([]candidate, len(logits))
	for i, v := range logits {
		all[i] = candidate{score: v, pos: i}
	}
	slices.SortFunc(all, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})
	return all[:k]
}
