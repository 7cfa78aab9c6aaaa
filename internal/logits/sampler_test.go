package logits

import (
	"testing"

	"github.com/samcharles93/warp/pkg/warp"
)

// TestSamplerDeterminism ensures that two samplers configured identically
// produce identical results when sampling the same logits vector.
func TestSamplerDeterminism(t *testing.T) {
	logs := []float32{0, 1, 2, 3, 4, 5}
	s1 := NewSampler(SamplerConfig{Seed: 42, Temperature: 0.9, TopK: 4, TopP: 0.95})
	s2 := NewSampler(SamplerConfig{Seed: 42, Temperature: 0.9, TopK: 4, TopP: 0.95, Backend: warp.Sort})
	for i := 0; i < 20; i++ {
		a := s1.Sample(logs, nil)
		b := s2.Sample(logs, nil)
		if a != b {
			t.Fatalf("step %d: expected deterministic sample, got %d vs %d", i, a, b)
		}
	}
}

// TestSamplerGreedy tests that greedy sampling (TopK=1, Temperature=1, TopP>=1)
// returns the index of the maximum logit.
func TestSamplerGreedy(t *testing.T) {
	logs := []float32{-1, 5, 3, 7, 2}
	s := NewSampler(SamplerConfig{Seed: 99, Temperature: 1.0, TopK: 1, TopP: 1.0})
	if !s.Greedy() {
		t.Fatal("expected greedy configuration")
	}
	if idx := s.Sample(logs, nil); idx != 3 {
		t.Fatalf("expected greedy index 3, got %d", idx)
	}
}

func TestSamplerZeroTemperatureIsGreedy(t *testing.T) {
	logs := []float32{2, 10, 5, 1}
	s := NewSampler(SamplerConfig{Temperature: 0, TopK: 3})
	for i := 0; i < 10; i++ {
		if idx := s.Sample(logs, nil); idx != 1 {
			t.Fatalf("expected argmax 1, got %d", idx)
		}
	}
}

func TestSamplerGreedyTieTakesFirst(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 0})
	if idx := s.Sample([]float32{1, 4, 4, 2}, nil); idx != 1 {
		t.Fatalf("expected first of tied maxima, got %d", idx)
	}
}

// TestSamplerTopP ensures that setting TopP less than 1 restricts sampling to a
// prefix of candidates. In this contrived example, the cumulative
// probability after the first element is >TopP, so only the first index
// should ever be returned.
func TestSamplerTopP(t *testing.T) {
	logs := []float32{10, 0, 0, 0, 0}
	s := NewSampler(SamplerConfig{Seed: 7, Temperature: 1.0, TopK: 5, TopP: 0.5})
	for i := 0; i < 10; i++ {
		if idx := s.Sample(logs, nil); idx != 0 {
			t.Fatalf("top-p sampling returned unexpected index %d", idx)
		}
	}
}

func TestSamplerTopKFiltering(t *testing.T) {
	logs := []float32{2.0, 10.0, 5.0, 1.0}
	s := NewSampler(SamplerConfig{Seed: 3, Temperature: 5.0, TopK: 2})
	for i := 0; i < 200; i++ {
		idx := s.Sample(logs, nil)
		if idx == 0 || idx == 3 {
			t.Fatalf("top-k=2 returned excluded token %d", idx)
		}
	}
}

func TestSamplerRepetitionPenalty(t *testing.T) {
	logs := []float32{0.8, 1.0, 0.8}
	s := NewSampler(SamplerConfig{Temperature: 0, RepeatPenalty: 2.0})
	if idx := s.Sample(logs, []int{1}); idx == 1 {
		t.Fatal("penalized token 1 was selected over higher scoring tokens")
	}
	if logs[1] != 1.0 {
		t.Fatalf("sample mutated caller logits: %v", logs)
	}
}

func TestSamplerRepeatLastNWindow(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 0, RepeatPenalty: 2.0, RepeatLastN: 1})
	// token 1 is outside the window of one recent token
	if idx := s.Sample([]float32{0.8, 1.0, 0.8}, []int{1, 2}); idx != 1 {
		t.Fatalf("expected token 1 outside penalty window, got %d", idx)
	}
}

func TestSamplerDefaults(t *testing.T) {
	cfg := NewSampler(SamplerConfig{}).Config()
	if cfg.TopK != 40 || cfg.TopP != 1 || cfg.RepeatPenalty != 1 || cfg.RepeatLastN != 64 || cfg.Temperature != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestSamplerChainShape(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 0.8, TopK: 10, TopP: 0.9, MinP: 0.05, RepeatPenalty: 1.1})
	chain := s.Chain([]int{4})
	if len(chain) != 5 {
		t.Fatalf("expected 5 warpers, got %d", len(chain))
	}
	if _, ok := chain[2].(warp.TopK); !ok {
		t.Fatalf("expected top-k as third warper, got %T", chain[2])
	}
}

func TestSamplerEmptyRowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty logits")
		}
	}()
	NewSampler(SamplerConfig{}).Sample(nil, nil)
}
