package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/warp/internal/logger"
	"github.com/samcharles93/warp/internal/logits"
)

type sampleOutput struct {
	Tokens []int `json:"tokens"`
}

func sampleCmd() *cli.Command {
	var (
		input  string
		recent string
		count  int64
		s      samplingFlags
	)

	flags := append([]cli.Flag{inputFlag(&input)}, s.flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "recent",
			Usage:       "comma-separated recently generated token ids for the repetition penalty",
			Destination: &recent,
		},
		&cli.Int64Flag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "number of tokens to draw; each draw is appended to the recent window",
			Value:       1,
			Destination: &count,
		},
	)

	return &cli.Command{
		Name:  "sample",
		Usage: "Draw tokens from a logits row with the warper chain",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySamplingConfig(cmd, loaded, &s)

			cfg, err := s.samplerConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			history, err := parseTokenList(recent)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			cf, err := readCandidates(input, stdin(cmd))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if cf.Indices != nil {
				return cli.Exit("error: sample expects a full logits row without indices", 1)
			}
			if len(cf.Logits) == 0 {
				return cli.Exit("error: sample needs at least one logit", 1)
			}

			sampler := logits.NewSampler(cfg)
			log.Debug("sampler configured", "config", fmt.Sprintf("%+v", sampler.Config()), "greedy", sampler.Greedy())

			tokens := make([]int, 0, max(count, 1))
			for range max(count, 1) {
				tok := sampler.Sample(cf.Logits, history)
				tokens = append(tokens, tok)
				history = append(history, tok)
			}
			return writeJSON(stdout(cmd), sampleOutput{Tokens: tokens})
		},
	}
}
