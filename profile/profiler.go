package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ryanleh/crowdsurf/benchmark"
	"github.com/ryanleh/crowdsurf/target"
)

type Profiler interface {
	SetUp(ctx context.Context) error

	// Instrument turns on profiling for one benchmark run and returns the path on the target where the
	// profile will be written.
	Instrument(cfg *benchmark.Configuration) string

	// Collect copies the profile at remotePath into the local profile directory under a name derived from
	// label and returns the local path.
	Collect(label, remotePath string) (string, error)
}

type ProfilerKind string

const (
	None ProfilerKind = "none"
	Heap ProfilerKind = "heap"
)

type ProfilerFactory func(t target.Target, saveDir string) Profiler

var allProfilers map[ProfilerKind]ProfilerFactory

func RegisterProfiler(kind ProfilerKind, factory ProfilerFactory) {
	if allProfilers == nil {
		allProfilers = map[ProfilerKind]ProfilerFactory{
			None: func(target.Target, string) Profiler { panic("Profiler kind none is reserved and can't be created") },
		}
	}
	allProfilers[kind] = factory
}

func NewProfiler(kind ProfilerKind, t target.Target, saveDir string) (Profiler, error) {
	if kind == None {
		return nil, fmt.Errorf("Profiler kind none is reserved and can't be created")
	}

	factory, ok := allProfilers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown profiler kind: %s", kind)
	}
	return factory(t, saveDir), nil
}

func ExplainProfilers() string {
	kinds := make([]string, 0, len(allProfilers))
	for kind := range allProfilers {
		kinds = append(kinds, "\""+string(kind)+"\"")
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ", ")
}
