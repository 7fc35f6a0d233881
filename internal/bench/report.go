package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable writes a human-readable table, one row per case and variant.
func (r *Report) WriteTable(w io.Writer) error {
	fmt.Fprintf(w, "run %s  %s/%s  %d CPUs  seed=%d\n\n", r.RunID, r.GoVersion, r.GOARCH, r.NumCPU, r.Seed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tVARIANT\tMIN\tMEAN\tGFLOPS\tSPEEDUP")
	for _, res := range r.Results {
		speedup := "-"
		if res.Speedup > 0 {
			speedup = fmt.Sprintf("%.2fx", res.Speedup)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%s\n",
			res.Case, res.Variant,
			res.Min.Round(time.Microsecond), res.Mean.Round(time.Microsecond),
			res.GFLOPS, speedup)
	}
	return tw.Flush()
}

// WriteChecks writes one line per case and variant with its deviation from the reference.
func WriteChecks(w io.Writer, results []CheckResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tOUTPUT\tVARIANT\tMAX |DIFF|\tSTATUS")
	for _, r := range results {
		for _, d := range r.Deviations {
			status := "ok"
			if !d.OK {
				status = fmt.Sprintf("FAIL (tol %g)", r.Tolerance)
			}
			fmt.Fprintf(tw, "%s\t%v\t%s\t%.3g\t%s\n", r.Case, r.OutputShape, d.Variant, d.MaxAbs, status)
		}
	}
	return tw.Flush()
}
