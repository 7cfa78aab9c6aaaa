package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/warp/internal/cpuinfo"
	"github.com/samcharles93/warp/internal/version"
	"github.com/samcharles93/warp/pkg/warp"
)

type infoOutput struct {
	Version        version.Info `json:"version"`
	DefaultBackend warp.Backend `json:"default_backend"`
	BackendEnv     string       `json:"backend_env,omitempty"`
	Runtime        cpuinfo.Info `json:"runtime"`
}

func infoCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "info",
		Usage: "Print host capabilities and the process default backend",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := infoOutput{
				Version:        version.Resolve(),
				DefaultBackend: warp.DefaultBackend(),
				BackendEnv:     os.Getenv(warp.BackendEnv),
				Runtime:        cpuinfo.Detect(),
			}
			w := stdout(cmd)
			if asJSON {
				return writeJSON(w, out)
			}

			fmt.Fprintf(w, "version:         %s\n", version.String())
			fmt.Fprintf(w, "go:              %s %s/%s\n", out.Runtime.GoVersion, out.Runtime.GoOS, out.Runtime.GoArch)
			fmt.Fprintf(w, "cpus:            %d (GOMAXPROCS %d)\n", out.Runtime.CPUs, out.Runtime.MaxProcs)
			features := strings.Join(out.Runtime.Enabled(), " ")
			if features == "" {
				features = "none detected"
			}
			fmt.Fprintf(w, "cpu features:    %s\n", features)
			fmt.Fprintf(w, "default backend: %s\n", out.DefaultBackend)
			if out.BackendEnv != "" {
				fmt.Fprintf(w, "%s=%s\n", warp.BackendEnv, out.BackendEnv)
			}
			return nil
		},
	}
}
