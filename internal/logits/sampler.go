package logits

import (
	"math/rand"

	"github.com/samcharles93/warp/pkg/warp"
)

// SamplerConfig configures the behaviour of a Sampler.
type SamplerConfig struct {
	Seed          int64
	Temperature   float32
	TopK          int
	TopP          float32
	MinP          float32
	RepeatPenalty float32
	RepeatLastN   int
	Backend       warp.Backend
}

// Sampler draws tokens from logits rows. It owns a random source and is not
// safe for concurrent use; create one per generation session.
type Sampler struct {
	rng    *rand.Rand
	cfg    SamplerConfig
	greedy bool
	vocab  []int
}

// NewSampler returns a new sampler with the provided configuration.
func NewSampler(cfg SamplerConfig) *Sampler {
	greedy := cfg.Temperature <= 0
	if cfg.Temperature <= 0 {
		cfg.Temperature = 1
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 40
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 1
	}
	if cfg.RepeatPenalty <= 0 {
		cfg.RepeatPenalty = 1.0
	}
	if cfg.RepeatLastN <= 0 {
		cfg.RepeatLastN = 64
	}
	return &Sampler{
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		cfg:    cfg,
		greedy: greedy,
	}
}

// Config returns the configuration after defaults were applied.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// Greedy reports whether Sample always returns the best candidate.
func (s *Sampler) Greedy() bool {
	return s.greedy || (s.cfg.TopK == 1 && s.cfg.TopP >= 1 && s.cfg.Temperature == 1)
}

// Chain builds the warper pipeline for one step:
//
//  1. Repetition penalty over the last RepeatLastN recent tokens.
//  2. Temperature scaling.
//  3. Top-k selection, which leaves candidates in descending order.
//  4. Min-p filtering, when configured.
//  5. Top-p (nucleus) truncation, when TopP < 1.
func (s *Sampler) Chain(recent []int) warp.Chain {
	chain := warp.Chain{}
	if s.cfg.RepeatPenalty > 1 && len(recent) > 0 {
		start := max(len(recent)-s.cfg.RepeatLastN, 0)
		chain = append(chain, warp.RepetitionPenalty{Penalty: s.cfg.RepeatPenalty, Recent: recent[start:]})
	}
	if s.Greedy() {
		return append(chain, warp.TopK{K: 1, Backend: s.cfg.Backend})
	}
	chain = append(chain,
		warp.Temperature(s.cfg.Temperature),
		warp.TopK{K: s.cfg.TopK, Backend: s.cfg.Backend},
	)
	if s.cfg.MinP > 0 {
		chain = append(chain, warp.MinP(s.cfg.MinP))
	}
	if s.cfg.TopP < 1 {
		chain = append(chain, warp.TopP(s.cfg.TopP))
	}
	return chain
}

// Sample draws a single vocabulary index from the provided logits row. The
// row is not modified. Sample panics if logits is empty.
func (s *Sampler) Sample(logits []float32, recent []int) int {
	if len(logits) == 0 {
		panic("logits: sample from empty row")
	}
	if len(s.vocab) < len(logits) {
		s.vocab = warp.Identity(len(logits))
	}

	idx, vals := s.Chain(recent).Warp(s.vocab[:len(logits)], logits)
	if len(idx) == 1 {
		return idx[0]
	}

	prob := warp.Softmax(vals)
	r := s.rng.Float64()
	var c float64
	for i, p := range prob {
		c += p
		if r <= c {
			return idx[i]
		}
	}
	return idx[len(idx)-1]
}
