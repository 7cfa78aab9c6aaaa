package main

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/warp/pkg/warp"
)

// runApp executes the CLI with captured stdio and a config path that does
// not exist, so the host's config file never leaks into a test.
func runApp(t *testing.T, input string, args ...string) string {
	t.Helper()
	return runAppConfig(t, filepath.Join(t.TempDir(), "missing.yaml"), input, args...)
}

func runAppConfig(t *testing.T, configPath, input string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Reader = strings.NewReader(input)

	argv := append([]string{"warp", "--config", configPath, "--log-level", "error"}, args...)
	if err := app.Run(context.Background(), argv); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return out.String()
}

func TestParseCandidates(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		cf, err := parseCandidates([]byte(" [1, 2.5, -3] "))
		if err != nil {
			t.Fatalf("parseCandidates returned error: %v", err)
		}
		if cf.Indices != nil {
			t.Fatalf("expected nil indices, got %v", cf.Indices)
		}
		if !slices.Equal(cf.Logits, []float32{1, 2.5, -3}) {
			t.Fatalf("unexpected logits: %v", cf.Logits)
		}
	})

	t.Run("object", func(t *testing.T) {
		cf, err := parseCandidates([]byte(`{"indices":[7,9],"logits":[0.5,0.25]}`))
		if err != nil {
			t.Fatalf("parseCandidates returned error: %v", err)
		}
		if !slices.Equal(cf.Indices, []int{7, 9}) || !slices.Equal(cf.Logits, []float32{0.5, 0.25}) {
			t.Fatalf("unexpected candidates: %+v", cf)
		}
	})

	for name, in := range map[string]string{
		"empty":     "  ",
		"mismatch":  `{"indices":[1],"logits":[1,2]}`,
		"malformed": `{"logits":[1,`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := parseCandidates([]byte(in)); err == nil {
				t.Fatalf("expected error for %q", in)
			}
		})
	}
}

func TestReadCandidatesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "row.json")
	if err := os.WriteFile(path, []byte(`[3, 1, 2]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cf, err := readCandidates(path, strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("readCandidates returned error: %v", err)
	}
	if !slices.Equal(cf.Logits, []float32{3, 1, 2}) {
		t.Fatalf("unexpected logits: %v", cf.Logits)
	}
}

func TestParseTokenList(t *testing.T) {
	got, err := parseTokenList(" 4, 8,15 ")
	if err != nil {
		t.Fatalf("parseTokenList returned error: %v", err)
	}
	if !slices.Equal(got, []int{4, 8, 15}) {
		t.Fatalf("unexpected tokens: %v", got)
	}

	if got, err := parseTokenList(""); err != nil || got != nil {
		t.Fatalf("expected nil list for empty input, got %v, %v", got, err)
	}
	if _, err := parseTokenList("1,x"); err == nil {
		t.Fatalf("expected error for non-numeric token")
	}
	if _, err := parseTokenList("-1"); err == nil {
		t.Fatalf("expected error for negative token")
	}
}

func TestSamplerConfigValidation(t *testing.T) {
	s := samplingFlags{temp: 0.7, topK: 10, topP: 0.9, repeatPenalty: 1.1, repeatLastN: 32, seed: 5, backend: "heap"}
	cfg, err := s.samplerConfig()
	if err != nil {
		t.Fatalf("samplerConfig returned error: %v", err)
	}
	if cfg.Backend != warp.Heap || cfg.TopK != 10 || cfg.Seed != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	for name, bad := range map[string]samplingFlags{
		"backend": {backend: "gpu"},
		"top-k":   {topK: -1},
		"top-p":   {topP: 1.5},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := bad.samplerConfig(); err == nil {
				t.Fatalf("expected error for %+v", bad)
			}
		})
	}
}

func TestTopKCommand(t *testing.T) {
	out := runApp(t, `{"indices":[10,20,30,40],"logits":[1,3,2,3]}`, "topk", "--k", "3", "--backend", "heap")

	var got topkOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got.Backend != "heap" {
		t.Fatalf("expected heap backend, got %q", got.Backend)
	}
	if !slices.Equal(got.Indices, []int{20, 40, 30}) {
		t.Fatalf("unexpected indices: %v", got.Indices)
	}
	if !slices.Equal(got.Logits, []float32{3, 3, 2}) {
		t.Fatalf("unexpected logits: %v", got.Logits)
	}
}

func TestTopKCommandIdentityIndices(t *testing.T) {
	out := runApp(t, `[0.1, 0.9, 0.5]`, "topk", "--k", "2")

	var got topkOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !slices.Equal(got.Indices, []int{1, 2}) {
		t.Fatalf("unexpected indices: %v", got.Indices)
	}
}

func TestConfigPrecedence(t *testing.T) {
	t.Setenv("WARP_TOP_K", "")
	os.Unsetenv("WARP_TOP_K")
	t.Setenv("WARP_BACKEND", "")
	os.Unsetenv("WARP_BACKEND")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("top_k: 2\nbackend: sort\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	row := `[5, 4, 3, 2, 1]`

	decode := func(out string) topkOutput {
		t.Helper()
		var got topkOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decode output %q: %v", out, err)
		}
		return got
	}

	t.Run("file", func(t *testing.T) {
		got := decode(runAppConfig(t, path, row, "topk"))
		if len(got.Indices) != 2 || got.Backend != "sort" {
			t.Fatalf("expected file defaults, got %+v", got)
		}
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("WARP_TOP_K", "3")
		got := decode(runAppConfig(t, path, row, "topk"))
		if len(got.Indices) != 3 {
			t.Fatalf("expected env override, got %+v", got)
		}
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("WARP_TOP_K", "3")
		got := decode(runAppConfig(t, path, row, "topk", "--k", "1", "--backend", "insertion"))
		if len(got.Indices) != 1 || got.Backend != "insertion" {
			t.Fatalf("expected flag override, got %+v", got)
		}
	})
}

func TestSampleCommandGreedy(t *testing.T) {
	out := runApp(t, `[0.5, 2.0, 1.0, 2.0]`, "sample", "--temp", "0", "--count", "3", "--repeat-penalty", "1")

	var got sampleOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !slices.Equal(got.Tokens, []int{1, 1, 1}) {
		t.Fatalf("unexpected tokens: %v", got.Tokens)
	}
}

func TestSampleCommandRepetitionPenalty(t *testing.T) {
	out := runApp(t, `[1.0, 2.0, 1.9]`, "sample", "--temp", "0", "--count", "2", "--repeat-penalty", "2", "--recent", "0")

	var got sampleOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	// The first draw picks 1; the penalty then halves it below token 2.
	if !slices.Equal(got.Tokens, []int{1, 2}) {
		t.Fatalf("unexpected tokens: %v", got.Tokens)
	}
}

func TestCheckAgreement(t *testing.T) {
	indices, logits := benchRow(rand.New(rand.NewSource(7)), 2048)
	for _, k := range []int{0, 1, 8, 40, 2048} {
		if err := checkAgreement(context.Background(), indices, logits, k); err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
	}
}

func TestBenchCommand(t *testing.T) {
	out := runApp(t, "", "bench", "--vocab", "512", "--k", "16", "--runs", "2")
	for _, name := range []string{"auto", "insertion", "heap", "sort"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %q in bench output:\n%s", name, out)
		}
	}
}

func TestInfoCommandJSON(t *testing.T) {
	out := runApp(t, "", "info", "--json")

	var got infoOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got.Runtime.CPUs <= 0 || got.Version.Version == "" {
		t.Fatalf("incomplete info: %+v", got)
	}
	if got.DefaultBackend != warp.DefaultBackend() {
		t.Fatalf("default backend: got %s want %s", got.DefaultBackend, warp.DefaultBackend())
	}
}

func TestVersionCommand(t *testing.T) {
	out := runApp(t, "", "version")
	if !strings.HasPrefix(out, "version:") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
