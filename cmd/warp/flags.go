package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/warp/internal/logits"
	"github.com/samcharles93/warp/pkg/warp"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func inputFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "input",
		Aliases:     []string{"i"},
		Usage:       "JSON candidate file ({\"indices\":[...],\"logits\":[...]} or a bare logits array); - for stdin",
		Value:       "-",
		Destination: dst,
	}
}

func backendFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "backend",
		Usage:       "top-k backend (auto, insertion, heap, sort)",
		Value:       "auto",
		Destination: dst,
	}
}

// samplingFlags holds the sampler options shared by sample and serve.
type samplingFlags struct {
	temp          float64
	topK          int64
	topP          float64
	minP          float64
	repeatPenalty float64
	repeatLastN   int64
	seed          int64
	backend       string
}

func (s *samplingFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "temp",
			Aliases:     []string{"temperature", "t"},
			Usage:       "sampling temperature (0 = greedy)",
			Value:       0.8,
			Destination: &s.temp,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Aliases:     []string{"top_k", "topk"},
			Usage:       "keep the k highest-scoring candidates",
			Value:       40,
			Destination: &s.topK,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Aliases:     []string{"top_p", "topp"},
			Usage:       "nucleus probability mass (1 = disabled)",
			Value:       0.95,
			Destination: &s.topP,
		},
		&cli.Float64Flag{
			Name:        "min-p",
			Aliases:     []string{"min_p"},
			Usage:       "drop candidates below min-p times the best probability (0 = disabled)",
			Destination: &s.minP,
		},
		&cli.Float64Flag{
			Name:        "repeat-penalty",
			Aliases:     []string{"repeat_penalty"},
			Usage:       "penalty for recently generated tokens (1 = disabled)",
			Value:       1.1,
			Destination: &s.repeatPenalty,
		},
		&cli.Int64Flag{
			Name:        "repeat-last-n",
			Usage:       "how many recent tokens the penalty considers",
			Value:       64,
			Destination: &s.repeatLastN,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed",
			Value:       42,
			Destination: &s.seed,
		},
		backendFlag(&s.backend),
	}
}

func (s *samplingFlags) samplerConfig() (logits.SamplerConfig, error) {
	backend, err := warp.ParseBackend(s.backend)
	if err != nil {
		return logits.SamplerConfig{}, err
	}
	if s.topK < 0 {
		return logits.SamplerConfig{}, fmt.Errorf("top-k must be >= 0, got %d", s.topK)
	}
	if s.topP < 0 || s.topP > 1 {
		return logits.SamplerConfig{}, fmt.Errorf("top-p must be within [0, 1], got %g", s.topP)
	}
	return logits.SamplerConfig{
		Seed:          s.seed,
		Temperature:   float32(s.temp),
		TopK:          int(s.topK),
		TopP:          float32(s.topP),
		MinP:          float32(s.minP),
		RepeatPenalty: float32(s.repeatPenalty),
		RepeatLastN:   int(s.repeatLastN),
		Backend:       backend,
	}, nil
}

// parseTokenList parses "1, 2,3" into token ids.
func parseTokenList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("token list: %w", err)
		}
		if id < 0 {
			return nil, fmt.Errorf("token list: negative token %d", id)
		}
		out = append(out, id)
	}
	return out, nil
}
