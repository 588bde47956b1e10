package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeRow(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func writeHeader(tw *tabwriter.Writer, cells ...string) {
	writeRow(tw, cells...)
	sep := make([]string, len(cells))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(tw, sep...)
}

func WriteSweepTable(w io.Writer, t *SweepTable) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "--- %s ---\n\n", t.Name)
	writeHeader(tw, "Size (GB)", "log q", "p", "sqrt N", "Mode", t.Metric, "Source", "Improvement")
	for _, r := range t.rows {
		imp := ""
		if r.Improvement != nil {
			imp = fmt.Sprintf("%.2fx", *r.Improvement)
		}
		writeRow(tw,
			fmt.Sprintf("%g", r.Point.SizeGB),
			fmt.Sprintf("%d", r.Point.LogQ),
			fmt.Sprintf("%d", r.Point.P),
			fmt.Sprintf("%d", r.Point.SqrtN),
			r.Point.Mode,
			fmt.Sprintf("%.4f", r.Value),
			string(r.Source),
			imp,
		)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func WriteBatchTable(w io.Writer, t *BatchTable) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "--- %s ---\n\n", t.Name)
	writeHeader(tw, "Batch size", "Queries/s", "Upload (MB)", "Download (MB)")
	for _, r := range t.Rows {
		writeRow(tw,
			fmt.Sprintf("%d", r.BatchSize),
			fmt.Sprintf("%.2f", r.QueriesPerSec),
			fmt.Sprintf("%.2f", r.UploadMB),
			fmt.Sprintf("%.2f", r.DownloadMB),
		)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func WriteE2ETable(w io.Writer, rows []E2ERow) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "--- End-to-end ---\n\n")
	writeHeader(tw, "Shard", "Answer (ms)", "PIR (ms)", "Hint (ms)", "Batch capacity")
	for _, r := range rows {
		writeRow(tw,
			r.Shard,
			fmt.Sprintf("%.2f", r.AnswerMs),
			fmt.Sprintf("%.2f", r.PIRMs),
			fmt.Sprintf("%.2f", r.HintMs),
			fmt.Sprintf("%d", r.BatchCapacity),
		)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

// WriteCostTable prints each row rounded to its own precision.
func WriteCostTable(w io.Writer, t *CostTable) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "--- %s ---\n\n", t.Name)
	writeHeader(tw, "", "Hint (s)", "Hint cost (¢)", "PIR (s)", "PIR cost (¢)", "Total (¢)")
	for _, r := range t.Rows {
		e := r.Estimate.Round(r.Precision)
		f := func(v float64) string { return fmt.Sprintf("%.*f", r.Precision, v) }
		writeRow(tw, r.Name, f(e.HintSeconds), f(e.HintCost), f(e.PIRSeconds), f(e.PIRCost), f(e.TotalCost))
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

// WriteText prints every table of the report followed by the failed families.
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "\n=== CrowdSurf benchmarks (run %s on %s) ===\n\n", r.RunID, r.Target)
	for _, t := range r.Sweeps {
		if err := WriteSweepTable(w, t); err != nil {
			return err
		}
	}
	for _, t := range r.Batches {
		if err := WriteBatchTable(w, t); err != nil {
			return err
		}
	}
	if len(r.E2E) > 0 {
		if err := WriteE2ETable(w, r.E2E); err != nil {
			return err
		}
	}
	for _, t := range r.Costs {
		if err := WriteCostTable(w, t); err != nil {
			return err
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "--- Errors ---\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "%s\n", e)
		}
	}
	return nil
}
