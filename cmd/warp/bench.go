package main

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/warp/internal/logger"
	"github.com/samcharles93/warp/pkg/warp"
)

type benchResult struct {
	Backend warp.Backend
	Runs    int
	Total   time.Duration
}

func (r benchResult) perCall() time.Duration {
	if r.Runs == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Runs)
}

func benchCmd() *cli.Command {
	var (
		vocab int64
		k     int64
		runs  int64
		seed  int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time every top-k backend on random logits and check that they agree",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "vocab",
				Usage:       "candidate count per row",
				Value:       32000,
				Destination: &vocab,
			},
			&cli.Int64Flag{
				Name:        "k",
				Usage:       "number of candidates to keep",
				Value:       40,
				Destination: &k,
			},
			&cli.Int64Flag{
				Name:        "runs",
				Usage:       "selections per backend",
				Value:       100,
				Destination: &runs,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "random seed for the logits row",
				Value:       1,
				Destination: &seed,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if vocab <= 0 || runs <= 0 || k < 0 {
				return cli.Exit("error: vocab and runs must be > 0 and k >= 0", 1)
			}

			indices, logits := benchRow(rand.New(rand.NewSource(seed)), int(vocab))
			if err := checkAgreement(ctx, indices, logits, int(k)); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Debug("backends agree", "vocab", vocab, "k", k)

			backends := append([]warp.Backend{warp.Auto}, warp.Backends()...)
			results := make([]benchResult, 0, len(backends))
			for _, b := range backends {
				results = append(results, benchBackend(b, indices, logits, int(k), int(runs)))
			}

			tw := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "backend\tresolved\truns\tper call\n")
			for _, r := range results {
				resolved := warp.ResolveBackend(r.Backend, int(vocab), min(int(k), int(vocab)))
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Backend, resolved, r.Runs, r.perCall())
			}
			return tw.Flush()
		},
	}
}

// benchRow draws logits in a narrow band so the cut contains ties.
func benchRow(rng *rand.Rand, n int) ([]int, []float32) {
	logits := make([]float32, n)
	for i := range logits {
		logits[i] = float32(rng.Intn(4096)) / 256
	}
	return warp.Identity(n), logits
}

func benchBackend(b warp.Backend, indices []int, logits []float32, k, runs int) benchResult {
	start := time.Now()
	for range runs {
		warp.SelectWith(b, indices, logits, k)
	}
	return benchResult{Backend: b, Runs: runs, Total: time.Since(start)}
}

// checkAgreement runs every backend concurrently and compares each result
// with the sort backend.
func checkAgreement(ctx context.Context, indices []int, logits []float32, k int) error {
	wantIdx, wantLog := warp.SelectWith(warp.Sort, indices, logits, k)

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range warp.Backends() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gotIdx, gotLog := warp.SelectWith(b, indices, logits, k)
			if !slices.Equal(gotIdx, wantIdx) || !slices.Equal(gotLog, wantLog) {
				return fmt.Errorf("backend %s disagrees with %s", b, warp.Sort)
			}
			return nil
		})
	}
	return g.Wait()
}
