package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/warp/internal/logger"
	"github.com/samcharles93/warp/pkg/warp"
)

type topkOutput struct {
	Backend string    `json:"backend"`
	Indices []int     `json:"indices"`
	Logits  []float32 `json:"logits"`
}

func topkCmd() *cli.Command {
	var (
		input   string
		k       int64
		backend string
	)

	return &cli.Command{
		Name:  "topk",
		Usage: "Select the k highest-scoring candidates from a JSON candidate set",
		Flags: []cli.Flag{
			inputFlag(&input),
			&cli.Int64Flag{
				Name:        "k",
				Usage:       "number of candidates to keep",
				Value:       40,
				Destination: &k,
			},
			backendFlag(&backend),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyTopKConfig(cmd, loaded, &k, &backend)

			if k < 0 {
				return cli.Exit(fmt.Sprintf("error: k must be >= 0, got %d", k), 1)
			}
			b, err := warp.ParseBackend(backend)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			cf, err := readCandidates(input, stdin(cmd))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			indices := cf.Indices
			if indices == nil {
				indices = warp.Identity(len(cf.Logits))
			}

			resolved := warp.ResolveBackend(b, len(cf.Logits), min(int(k), len(cf.Logits)))
			start := time.Now()
			outIdx, outLog := warp.SelectWith(resolved, indices, cf.Logits, int(k))
			log.Debug("top-k selected", "n", len(cf.Logits), "k", k, "backend", resolved.String(), "elapsed", time.Since(start))

			return writeJSON(stdout(cmd), topkOutput{
				Backend: resolved.String(),
				Indices: outIdx,
				Logits:  outLog,
			})
		},
	}
}
