package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/ryanleh/crowdsurf/cost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepTable(t *testing.T) {
	tbl := NewSweepTable("Query latency", "latency (ms)")
	p := Point{SizeGB: 1, LogQ: 32, P: 991, SqrtN: 32768, Mode: "hybrid"}
	require.NoError(t, tbl.Append(SweepRow{Point: p, Value: 1.5, Source: Measured}))
	require.NoError(t, tbl.Append(SweepRow{Point: Point{SizeGB: 1, LogQ: 64}, Value: 2, Source: Measured}))

	err := tbl.Append(SweepRow{Point: p, Value: 9})
	require.Error(t, err)
	assert.Equal(t, 2, tbl.Len())

	rows := tbl.Rows()
	rows[0].Value = 100
	r, ok := tbl.Lookup(1, 32)
	require.True(t, ok)
	assert.Equal(t, 1.5, r.Value)

	tbl.SetImprovement(0, 2.5)
	r, _ = tbl.Lookup(1, 32)
	require.NotNil(t, r.Improvement)
	assert.Equal(t, 2.5, *r.Improvement)
	assert.Equal(t, p, r.Point)

	_, ok = tbl.Lookup(2, 32)
	assert.False(t, ok)
}

func TestWriteText(t *testing.T) {
	rep := New("local", map[string]any{"query": true})
	tbl := NewSweepTable("Preprocessing", "throughput (GB/s)")
	require.NoError(t, tbl.Append(SweepRow{Point: Point{SizeGB: 0.25, LogQ: 32}, Value: 0.75, Source: Calibrated}))
	rep.Sweeps = append(rep.Sweeps, tbl)
	rep.Batches = append(rep.Batches, &BatchTable{Name: "dpir", Rows: []BatchRow{{BatchSize: 8, QueriesPerSec: 12.346, UploadMB: 1, DownloadMB: 2}}})
	rep.E2E = []E2ERow{{Shard: "popular", AnswerMs: 12.5, PIRMs: 3, HintMs: 9.5, BatchCapacity: 42}}
	rep.Costs = append(rep.Costs, &CostTable{Name: "Costs", Rows: []CostRow{
		{Name: "baseline", Estimate: cost.Estimate{TotalCost: 0.04414}, Precision: 3},
	}})
	rep.AddError("batching", errors.New("exit code 1"))

	var buf bytes.Buffer
	require.NoError(t, rep.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "calibrated")
	assert.Contains(t, out, "12.35")
	assert.Contains(t, out, "0.044")
	assert.NotContains(t, out, "0.04414")
	assert.Contains(t, out, "batching: exit code 1")
}

func TestWriteJSON(t *testing.T) {
	rep := New("ssh", nil)
	tbl := NewSweepTable("Query latency", "latency (ms)")
	require.NoError(t, tbl.Append(SweepRow{Point: Point{SizeGB: 1, LogQ: 32}, Value: 1.5, Source: Measured}))
	rep.Sweeps = append(rep.Sweeps, tbl)

	p, err := rep.WriteJSON(t.TempDir())
	require.NoError(t, err)
	buf, err := os.ReadFile(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf, &decoded))
	assert.Equal(t, rep.RunID.String(), decoded["run_id"])
	sweeps := decoded["sweeps"].([]any)
	require.Len(t, sweeps, 1)
	rows := sweeps[0].(map[string]any)["rows"].([]any)
	assert.Len(t, rows, 1)
}
