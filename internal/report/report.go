package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/gopricing/internal/batch"
)

// WriteSummary renders a human-readable run summary: a per-item table
// followed by aggregate counts by status, tier and confidence.
func WriteSummary(w io.Writer, res batch.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tREGION\tSTATUS\tTIER\tCONFIDENCE\tPLANS\tTIME")
	for _, item := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.1fs\n",
			item.Target, item.Region, item.Status, item.Tier,
			item.Confidence, item.PlanCount, item.ElapsedSeconds)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d items in %.1fs\n", len(res.Items), res.Elapsed.Seconds())
	writeCounts(w, "status", statusCounts(res))
	writeCounts(w, "tier", res.ByTier)
	writeCounts(w, "confidence", confidenceCounts(res))
	return nil
}

func statusCounts(res batch.Result) map[string]int {
	out := make(map[string]int, len(res.ByStatus))
	for k, v := range res.ByStatus {
		out[string(k)] = v
	}
	return out
}

func confidenceCounts(res batch.Result) map[string]int {
	out := make(map[string]int, len(res.ByConfidence))
	for k, v := range res.ByConfidence {
		out[string(k)] = v
	}
	return out
}

func writeCounts(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "by %s:", label)
	for _, k := range keys {
		fmt.Fprintf(w, " %s=%d", k, counts[k])
	}
	fmt.Fprintln(w)
}

// WritePDF renders the run summary as a simple one-page-per-run PDF. The
// layout mirrors WriteSummary: a title, the per-item rows, then the
// aggregate counts.
func WritePDF(path string, started time.Time, res batch.Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Pricing extraction run", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Started %s, %d items in %.1fs",
		started.UTC().Format(time.RFC3339), len(res.Items), res.Elapsed.Seconds()),
		"", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{35, 18, 22, 22, 25, 15, 18}
	headers := []string{"Target", "Region", "Status", "Tier", "Confidence", "Plans", "Time"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range res.Items {
		cells := []string{
			item.Target, item.Region, string(item.Status), item.Tier,
			string(item.Confidence),
			fmt.Sprintf("%d", item.PlanCount),
			fmt.Sprintf("%.1fs", item.ElapsedSeconds),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	for _, line := range countLines(res) {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}

	return pdf.OutputFileAndClose(path)
}

func countLines(res batch.Result) []string {
	lines := make([]string, 0, 3)
	for _, group := range []struct {
		label  string
		counts map[string]int
	}{
		{"status", statusCounts(res)},
		{"tier", res.ByTier},
		{"confidence", confidenceCounts(res)},
	} {
		if len(group.counts) == 0 {
			continue
		}
		keys := make([]string, 0, len(group.counts))
		for k := range group.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		line := "By " + group.label + ":"
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%d", k, group.counts[k])
		}
		lines = append(lines, line)
	}
	return lines
}
