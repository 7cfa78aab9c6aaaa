package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// candidateFile is the on-disk candidate set. Indices may be omitted for a
// full vocabulary row.
type candidateFile struct {
	Indices []int     `json:"indices,omitempty"`
	Logits  []float32 `json:"logits"`
}

func readCandidates(path string, stdin io.Reader) (candidateFile, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return candidateFile{}, fmt.Errorf("read candidates: %w", err)
	}
	return parseCandidates(data)
}

func parseCandidates(data []byte) (candidateFile, error) {
	var cf candidateFile
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return cf, fmt.Errorf("parse candidates: empty input")
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &cf.Logits); err != nil {
			return cf, fmt.Errorf("parse candidates: %w", err)
		}
		return cf, nil
	}
	if err := json.Unmarshal(trimmed, &cf); err != nil {
		return cf, fmt.Errorf("parse candidates: %w", err)
	}
	if cf.Indices != nil && len(cf.Indices) != len(cf.Logits) {
		return cf, fmt.Errorf("parse candidates: %d indices but %d logits", len(cf.Indices), len(cf.Logits))
	}
	return cf, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stdout returns the root command's writer so tests can capture output.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
