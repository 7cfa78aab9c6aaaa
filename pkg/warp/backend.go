package warp

import (
	"fmt"
	"os"
	"strings"
)

// Backend names a top-k selection algorithm. Every backend produces the same
// output for the same input; they differ only in cost.
type Backend uint8

const (
	// Auto picks a backend per call from the input size and k.
	Auto Backend = iota
	// Insertion keeps a sorted list of at most k entries. O(n·k).
	Insertion
	// Heap keeps a bounded min-heap of k entries. O(n log k).
	Heap
	// Sort orders every candidate and truncates. O(n log n).
	Sort
)

// BackendEnv overrides the backend used for Auto when set to a backend name.
const BackendEnv = "WARP_TOPK_BACKEND"

const (
	insertionMaxK = 8
	heapRatio     = 4
)

// defaultBackend is read once at init; Auto requests resolve through it.
var defaultBackend = Auto

func init() {
	if v, ok := os.LookupEnv(BackendEnv); ok {
		if b, err := ParseBackend(v); err == nil {
			defaultBackend = b
		}
	}
}

// DefaultBackend reports the backend Auto resolves to before the size
// heuristic applies. It is Auto unless overridden by WARP_TOPK_BACKEND.
func DefaultBackend() Backend {
	return defaultBackend
}

func (b Backend) String() string {
	switch b {
	case Auto:
		return "auto"
	case Insertion:
		return "insertion"
	case Heap:
		return "heap"
	case Sort:
		return "sort"
	default:
		return "unknown"
	}
}

// Backends lists the concrete backends, excluding Auto.
func Backends() []Backend {
	return []Backend{Insertion, Heap, Sort}
}

// ParseBackend parses a backend name. The empty string means Auto.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "insertion":
		return Insertion, nil
	case "heap":
		return Heap, nil
	case "sort":
		return Sort, nil
	default:
		return Auto, fmt.Errorf("%w %q (expected auto, insertion, heap, or sort)", ErrUnknownBackend, s)
	}
}

// MarshalText implements encoding.TextMarshaler so backends round-trip
// through YAML, JSON and environment configuration by name.
func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ResolveBackend returns the concrete backend used for n candidates and an
// effective k. It never returns Auto.
func ResolveBackend(b Backend, n, k int) Backend {
	if b == Auto {
		b = defaultBackend
	}
	switch b {
	case Insertion, Heap, Sort:
		return b
	}
	switch {
	case k <= insertionMaxK:
		return Insertion
	case k*heapRatio <= n:
		return Heap
	default:
		return Sort
	}
}
