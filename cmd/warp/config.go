package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/warp/internal/config"
	"github.com/samcharles93/warp/internal/logger"
)

// loaded holds the config file and environment defaults for the run.
var loaded config.Config

// setup loads configuration and installs the logger in the context before
// any subcommand runs.
func setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	loaded = cfg
	applyLoggingConfig(c, cfg)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	return logger.WithContext(ctx, logger.NewFormat(os.Stderr, format, level)), nil
}

func applyLoggingConfig(c *cli.Command, cfg config.Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applySamplingConfig applies config defaults to sampling flags that were
// not set explicitly on the command line.
func applySamplingConfig(c *cli.Command, cfg config.Config, s *samplingFlags) {
	if cfg.Temperature != nil && !c.IsSet("temp") {
		s.temp = *cfg.Temperature
	}
	if cfg.TopK != nil && !c.IsSet("top-k") {
		s.topK = int64(*cfg.TopK)
	}
	if cfg.TopP != nil && !c.IsSet("top-p") {
		s.topP = *cfg.TopP
	}
	if cfg.MinP != nil && !c.IsSet("min-p") {
		s.minP = *cfg.MinP
	}
	if cfg.RepeatPenalty != nil && !c.IsSet("repeat-penalty") {
		s.repeatPenalty = *cfg.RepeatPenalty
	}
	if cfg.RepeatLastN != nil && !c.IsSet("repeat-last-n") {
		s.repeatLastN = int64(*cfg.RepeatLastN)
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		s.seed = *cfg.Seed
	}
	applyBackendConfig(c, cfg, &s.backend)
}

func applyTopKConfig(c *cli.Command, cfg config.Config, k *int64, backend *string) {
	if cfg.TopK != nil && !c.IsSet("k") {
		*k = int64(*cfg.TopK)
	}
	applyBackendConfig(c, cfg, backend)
}

func applyBackendConfig(c *cli.Command, cfg config.Config, backend *string) {
	if cfg.Backend != "" && !c.IsSet("backend") {
		*backend = cfg.Backend
	}
}

func applyServeConfig(c *cli.Command, cfg config.Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
