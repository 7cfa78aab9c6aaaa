package cpuinfo

import (
	"runtime"
	"slices"
	"testing"
)

func TestDetect(t *testing.T) {
	info := Detect()
	if info.GoArch != runtime.GOARCH || info.CPUs < 1 || info.MaxProcs < 1 {
		t.Fatalf("unexpected runtime info: %+v", info)
	}
	if info.Features == nil {
		t.Fatal("features map should never be nil")
	}
}

func TestEnabledSorted(t *testing.T) {
	info := Info{Features: map[string]bool{"b": true, "a": true, "c": false}}
	got := info.Enabled()
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
}
