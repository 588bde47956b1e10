package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/ryanleh/crowdsurf/cost"
)

// Point is the configuration half of a sweep row. It never changes once the row is appended.
type Point struct {
	SizeGB float64 `json:"size_gb"`
	LogQ   int     `json:"log_q"`
	P      uint64  `json:"p"`
	SqrtN  uint64  `json:"sqrt_n"`
	Mode   string  `json:"mode"`
}

type Source string

const (
	Measured   Source = "measured"
	Calibrated Source = "calibrated"
)

type SweepRow struct {
	Point       Point    `json:"point"`
	Value       float64  `json:"value"`
	Source      Source   `json:"source"`
	Improvement *float64 `json:"improvement,omitempty"`
	ProfilePath string   `json:"profile_path,omitempty"`
}

type rowKey struct {
	sizeGB float64
	logQ   int
}

// SweepTable is an append-only table of sweep rows in insertion order. A (size, modulus width) pair
// appears at most once.
type SweepTable struct {
	Name   string
	Metric string
	rows   []SweepRow
	keys   map[rowKey]bool
}

func NewSweepTable(name, metric string) *SweepTable {
	return &SweepTable{Name: name, Metric: metric, keys: map[rowKey]bool{}}
}

func (t *SweepTable) Append(row SweepRow) error {
	k := rowKey{sizeGB: row.Point.SizeGB, logQ: row.Point.LogQ}
	if t.keys[k] {
		return fmt.Errorf("%s: duplicate row for %v GB at log q %d", t.Name, k.sizeGB, k.logQ)
	}
	t.keys[k] = true
	t.rows = append(t.rows, row)
	return nil
}

func (t *SweepTable) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows.
func (t *SweepTable) Rows() []SweepRow {
	out := make([]SweepRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// Lookup finds the row for a (size, modulus width) pair.
func (t *SweepTable) Lookup(sizeGB float64, logQ int) (SweepRow, bool) {
	for _, r := range t.rows {
		if r.Point.SizeGB == sizeGB && r.Point.LogQ == logQ {
			return r, true
		}
	}
	return SweepRow{}, false
}

// SetImprovement records the derived improvement of row i; the point and value are left alone.
func (t *SweepTable) SetImprovement(i int, v float64) {
	t.rows[i].Improvement = &v
}

func (t *SweepTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string     `json:"name"`
		Metric string     `json:"metric"`
		Rows   []SweepRow `json:"rows"`
	}{t.Name, t.Metric, t.rows})
}

type BatchRow struct {
	BatchSize     int     `json:"batch_size"`
	QueriesPerSec float64 `json:"queries_per_sec"`
	UploadMB      float64 `json:"upload_mb"`
	DownloadMB    float64 `json:"download_mb"`
}

type BatchTable struct {
	Name        string     `json:"name"`
	Rows        []BatchRow `json:"rows"`
	ProfilePath string     `json:"profile_path,omitempty"`
}

type E2ERow struct {
	Shard         string  `json:"shard"`
	AnswerMs      float64 `json:"answer_ms"`
	PIRMs         float64 `json:"pir_ms"`
	HintMs        float64 `json:"hint_ms"`
	BatchCapacity uint64  `json:"batch_capacity"`
}

type CostRow struct {
	Name      string        `json:"name"`
	Estimate  cost.Estimate `json:"estimate"`
	Precision int           `json:"precision"`
}

type CostTable struct {
	Name string    `json:"name"`
	Rows []CostRow `json:"rows"`
}

// Report is everything one invocation produced. Error messages of failed families are kept next to the
// tables that did complete.
type Report struct {
	RunID      uuid.UUID      `json:"run_id"`
	Target     string         `json:"target"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Input      map[string]any `json:"input"`
	Sweeps     []*SweepTable  `json:"sweeps"`
	Batches    []*BatchTable  `json:"batches"`
	E2E        []E2ERow       `json:"e2e"`
	Costs      []*CostTable   `json:"costs"`
	Metadata   []any          `json:"metadata,omitempty"`
	Errors     []string       `json:"errors"`
}

func New(targetName string, input map[string]any) *Report {
	return &Report{
		RunID:     uuid.New(),
		Target:    targetName,
		StartedAt: time.Now(),
		Input:     input,
		Errors:    []string{},
	}
}

func (r *Report) AddError(family string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", family, err))
}

// WriteJSON writes report.json into dir and returns its path.
func (r *Report) WriteJSON(dir string) (string, error) {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	p := path.Join(dir, "report.json")
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		return "", err
	}
	return p, nil
}
