package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/store"
	"github.com/roach88/frontier/internal/table"
)

// missing marks a cell with no value.
const missing = "-"

// writeGrid writes rows as columns aligned by terminal display width, so
// unit identifiers in wide scripts keep the grid straight.
func writeGrid(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for c, h := range header {
		widths[c] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			if sw := runewidth.StringWidth(cell); sw > widths[c] {
				widths[c] = sw
			}
		}
	}
	line := func(cells []string) error {
		var b strings.Builder
		for c, cell := range cells {
			if c > 0 {
				b.WriteString("  ")
			}
			if c == len(cells)-1 {
				b.WriteString(cell)
			} else {
				b.WriteString(padRight(cell, widths[c]))
			}
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
		return err
	}
	if err := line(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := line(row); err != nil {
			return err
		}
	}
	return nil
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func scoreCell(s engine.Score) string {
	if !s.OK() {
		return string(s.Failure.Code)
	}
	return formatFloat(s.Value)
}

func meanCell(means []*float64, i int) string {
	if i >= len(means) || means[i] == nil {
		return missing
	}
	return formatFloat(*means[i])
}

// writeReport prints the summary grid of a report followed by its failures.
func writeReport(w io.Writer, rep *engine.Report) error {
	fmt.Fprintf(w, "Run %s (%s)\n", rep.RunID, rep.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Table digest:  %s\n", rep.TableDigest)
	fmt.Fprintf(w, "Report digest: %s\n", rep.Digest)
	fmt.Fprintf(w, "Inputs: %s  Outputs: %s  Precision: %d\n\n",
		strings.Join(rep.Inputs, ", "), strings.Join(rep.Outputs, ", "), rep.Settings.Precision)

	rows := make([][]string, len(rep.Units))
	for i, unit := range rep.Units {
		target, facet := missing, missing
		if tg := rep.Targets[i]; tg.OK() {
			target = formatFloat(tg.Score)
			facet = strings.Join(tg.Facet, " ")
		} else {
			target = string(tg.Failure.Code)
		}
		rows[i] = []string{
			unit,
			scoreCell(rep.Efficiency.Standard[i]),
			scoreCell(rep.Efficiency.Super[i]),
			meanCell(rep.Cross.Means, i),
			target,
			facet,
		}
	}
	if err := writeGrid(w, []string{"UNIT", "CCR", "SUPER", "CROSS", "TARGET", "FACET"}, rows); err != nil {
		return err
	}

	if len(rep.Failures) == 0 {
		_, err := fmt.Fprintln(w, "\nNo failures.")
		return err
	}
	fmt.Fprintf(w, "\nFailures (%d):\n", len(rep.Failures))
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  %s/%s: %s (%s)\n", f.Unit, f.Model, f.Code, f.Message)
	}
	return nil
}

// writeCross prints the rater-by-ratee cross-efficiency matrix.
func writeCross(w io.Writer, cm engine.CrossMatrix) error {
	header := append([]string{"RATER"}, cm.Units...)
	rows := make([][]string, len(cm.Rows))
	for i, row := range cm.Rows {
		cells := []string{row.Rater}
		for _, v := range row.Values {
			if v == nil {
				cells = append(cells, missing)
			} else {
				cells = append(cells, formatFloat(*v))
			}
		}
		rows[i] = cells
	}
	return writeGrid(w, header, rows)
}

// TableSummary describes a loaded table for the validate command.
type TableSummary struct {
	Units    int      `json:"units"`
	Valid    int      `json:"valid"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
	Problems []string `json:"problems,omitempty"`
}

func summarizeTable(t *table.Table) TableSummary {
	s := TableSummary{
		Units:   t.Len(),
		Valid:   len(t.ValidUnits()),
		Inputs:  t.Inputs(),
		Outputs: t.Outputs(),
	}
	for _, p := range t.Problems() {
		s.Problems = append(s.Problems, p.Error())
	}
	return s
}

func writeTableSummary(w io.Writer, s TableSummary) error {
	fmt.Fprintf(w, "%d units (%d valid)\n", s.Units, s.Valid)
	fmt.Fprintf(w, "Inputs:  %s\n", strings.Join(s.Inputs, ", "))
	fmt.Fprintf(w, "Outputs: %s\n", strings.Join(s.Outputs, ", "))
	if len(s.Problems) == 0 {
		_, err := fmt.Fprintln(w, "✓ Table valid")
		return err
	}
	for _, p := range s.Problems {
		fmt.Fprintf(w, "✗ %s\n", p)
	}
	return nil
}

func writeHistory(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs archived.")
		return err
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Units),
			strconv.Itoa(r.Failures),
			shortDigest(r.Digest),
		}
	}
	return writeGrid(w, []string{"RUN", "CREATED", "UNITS", "FAILURES", "DIGEST"}, rows)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
