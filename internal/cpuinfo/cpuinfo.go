// Package cpuinfo reports the host CPU features relevant to selection
// throughput. The report is informational: backend choice never depends on
// it, so output is identical on every machine.
package cpuinfo

import (
	"runtime"
	"sort"

	"golang.org/x/sys/cpu"
)

type Info struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	MaxProcs  int             `json:"gomaxprocs"`
	Features  map[string]bool `json:"features"`
}

// Detect collects the runtime and CPU feature report.
func Detect() Info {
	return Info{
		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		GoArch:    runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		MaxProcs:  runtime.GOMAXPROCS(0),
		Features:  features(),
	}
}

// Enabled returns the names of the detected features in sorted order.
func (i Info) Enabled() []string {
	names := make([]string, 0, len(i.Features))
	for name, ok := range i.Features {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func features() map[string]bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return map[string]bool{
			"sse4.1":   cpu.X86.HasSSE41,
			"avx":      cpu.X86.HasAVX,
			"avx2":     cpu.X86.HasAVX2,
			"fma":      cpu.X86.HasFMA,
			"avx512f":  cpu.X86.HasAVX512F,
			"avx512bw": cpu.X86.HasAVX512BW,
		}
	case "arm64":
		return map[string]bool{
			"asimd":   cpu.ARM64.HasASIMD,
			"asimdhp": cpu.ARM64.HasASIMDHP,
			"sve":     cpu.ARM64.HasSVE,
			"sve2":    cpu.ARM64.HasSVE2,
		}
	default:
		return map[string]bool{}
	}
}
