// Package parse recovers numeric measurements from the prose printed by the bench and e2e client binaries.
//
// Every metric kind has its own pattern and its own function. A singleton metric takes the first match;
// a missing match is a *Failure, never a zero.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
)

type Kind string

const (
	LatencyMs      Kind = "latency_ms"
	ThroughputGBps Kind = "throughput_gbps"
	QueriesPerSec  Kind = "queries_per_sec"
	SizeMB         Kind = "size_mb"
	Capacity       Kind = "batch_capacity"
)

type Component struct {
	Name  string
	Value float64
}

// Metric is one extracted measurement, optionally split into named parts.
type Metric struct {
	Kind       Kind
	Value      float64
	Components []Component
}

// Component returns the named part, if present.
func (m Metric) Component(name string) (float64, bool) {
	for _, c := range m.Components {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

var (
	MicrosecondsPattern  = regexp.MustCompile(`(\d+\.\d+)µs`)
	SecondsPattern       = regexp.MustCompile(`(\d+\.\d+)s`)
	AnswerLatencyPattern = regexp.MustCompile(`Answer latency: (\d+\.\d+)ms \(p: (\d+\.\d+)ms, h: (\d+\.\d+)ms\)`)
	BatchCapacityPattern = regexp.MustCompile(`Batch Capacity: (\d+)`)
	QueriesPerSecPattern = regexp.MustCompile(`Queries-per-sec.*?: (\d+\.\d+) Q/s`)
	UploadPattern        = regexp.MustCompile(`Upload: (\d+\.\d+)MB`)
	DownloadPattern      = regexp.MustCompile(`Download: (\d+\.\d+)MB`)
)

// Failure reports an expected pattern that was absent or matched the wrong number of times.
type Failure struct {
	Metric  string
	Pattern string
	Want    int // 0 means at least one
	Got     int
	Detail  string
}

func (f *Failure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("parsing %s failed: %s", f.Metric, f.Detail)
	}
	if f.Want == 0 {
		return fmt.Sprintf("parsing %s failed: no match for %q", f.Metric, f.Pattern)
	}
	return fmt.Sprintf("parsing %s failed: want %d matches for %q, got %d", f.Metric, f.Want, f.Pattern, f.Got)
}

func first(metric string, re *regexp.Regexp, out string) ([]string, error) {
	m := re.FindStringSubmatch(out)
	if m == nil {
		return nil, &Failure{Metric: metric, Pattern: re.String()}
	}
	return m[1:], nil
}

func toFloat(metric, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &Failure{Metric: metric, Detail: fmt.Sprintf("bad number %q: %s", s, err)}
	}
	return v, nil
}

// QueryLatency extracts the average query latency, printed in microseconds, as milliseconds.
func QueryLatency(out string) (Metric, error) {
	m, err := first("query latency", MicrosecondsPattern, out)
	if err != nil {
		return Metric{}, err
	}
	micros, err := toFloat("query latency", m[0])
	if err != nil {
		return Metric{}, err
	}
	return Metric{Kind: LatencyMs, Value: micros / 1000.0}, nil
}

// PreprocessingThroughput extracts the average preprocessing time in seconds and turns it into GB/s for a
// database of sizeGB.
func PreprocessingThroughput(out string, sizeGB float64) (Metric, error) {
	m, err := first("preprocessing time", SecondsPattern, out)
	if err != nil {
		return Metric{}, err
	}
	seconds, err := toFloat("preprocessing time", m[0])
	if err != nil {
		return Metric{}, err
	}
	if seconds == 0 {
		return Metric{}, &Failure{Metric: "preprocessing time", Detail: "measured time is zero"}
	}
	return Metric{Kind: ThroughputGBps, Value: sizeGB / seconds}, nil
}

// AnswerLatency extracts the e2e answer latency with its PIR ("pir") and hint ("hint") parts.
func AnswerLatency(out string) (Metric, error) {
	m, err := first("answer latency", AnswerLatencyPattern, out)
	if err != nil {
		return Metric{}, err
	}
	vals := make([]float64, len(m))
	for i, s := range m {
		vals[i], err = toFloat("answer latency", s)
		if err != nil {
			return Metric{}, err
		}
	}
	return Metric{
		Kind:  LatencyMs,
		Value: vals[0],
		Components: []Component{
			{Name: "pir", Value: vals[1]},
			{Name: "hint", Value: vals[2]},
		},
	}, nil
}

func BatchCapacity(out string) (uint64, error) {
	m, err := first("batch capacity", BatchCapacityPattern, out)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(m[0], 10, 64)
	if err != nil {
		return 0, &Failure{Metric: "batch capacity", Detail: fmt.Sprintf("bad integer %q: %s", m[0], err)}
	}
	return v, nil
}
