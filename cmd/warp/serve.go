package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/warp/internal/api"
	"github.com/samcharles93/warp/internal/logger"
	"github.com/samcharles93/warp/internal/logits"
)

func serveCmd() *cli.Command {
	var (
		addr          string
		readTimeout   time.Duration
		maxCandidates int64
		s             samplingFlags
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the top-k, warp and sample HTTP API",
		Flags: append(s.flags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-candidates",
				Usage:       "largest candidate set accepted per request",
				Value:       api.DefaultMaxCandidates,
				Destination: &maxCandidates,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySamplingConfig(cmd, loaded, &s)
			applyServeConfig(cmd, loaded, &addr)

			cfg, err := s.samplerConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			// Normalise through the sampler so request defaults match the CLI.
			cfg = logits.NewSampler(cfg).Config()

			server := api.NewServer(
				api.WithDefaults(api.Defaults{
					TopK:    cfg.TopK,
					Backend: cfg.Backend,
					Sampler: cfg,
				}),
				api.WithLogger(log.With("component", "api")),
				api.WithMaxCandidates(int(maxCandidates)),
			)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "backend", cfg.Backend.String())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
