package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// sheet is one parsed CSV file: a header and raw string rows.
type sheet struct {
	name    string
	columns []string // header cells after the unit column
	rows    []sheetRow
	byUnit  map[string]int
}

type sheetRow struct {
	unit  string
	cells []string
}

// LoadPair reads an inputs file and an outputs file. Each file has a header
// row whose first cell labels the unit column; the remaining header cells
// name the measures. Units are taken in inputs-file order; a unit present in
// only one file is kept and flagged.
func LoadPair(inputsPath, outputsPath string) (*Table, error) {
	in, err := readSheet(inputsPath)
	if err != nil {
		return nil, err
	}
	out, err := readSheet(outputsPath)
	if err != nil {
		return nil, err
	}
	return fromPair(in, out)
}

// ParsePair is LoadPair over readers.
func ParsePair(inputs, outputs io.Reader) (*Table, error) {
	in, err := parseSheet("inputs", inputs)
	if err != nil {
		return nil, err
	}
	out, err := parseSheet("outputs", outputs)
	if err != nil {
		return nil, err
	}
	return fromPair(in, out)
}

// LoadCSV reads a single file whose first column holds unit identifiers and
// picks the named input and output columns out of the rest.
func LoadCSV(path string, inputCols, outputCols []string) (*Table, error) {
	s, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	return fromSheet(s, inputCols, outputCols)
}

// Parse is LoadCSV over a reader.
func Parse(r io.Reader, inputCols, outputCols []string) (*Table, error) {
	s, err := parseSheet("table", r)
	if err != nil {
		return nil, err
	}
	return fromSheet(s, inputCols, outputCols)
}

func readSheet(path string) (*sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return parseSheet(path, f)
}

func parseSheet(name string, r io.Reader) (*sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, invalid("%s is empty (no header row)", name)
	}
	header := records[0]
	if len(header) < 2 {
		return nil, invalid("%s header needs a unit column and at least one measure", name)
	}

	s := &sheet{
		name:    name,
		columns: trimAll(header[1:]),
		rows:    make([]sheetRow, 0, len(records)-1),
		byUnit:  make(map[string]int, len(records)-1),
	}
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		unit := strings.TrimSpace(record[0])
		if unit == "" {
			return nil, invalid("%s row %d has an empty unit identifier", name, i+2)
		}
		if _, dup := s.byUnit[unit]; dup {
			return nil, invalid("%s: duplicate unit %q", name, unit)
		}
		s.byUnit[unit] = len(s.rows)
		s.rows = append(s.rows, sheetRow{unit: unit, cells: record[1:]})
	}
	return s, nil
}

func fromPair(in, out *sheet) (*Table, error) {
	b := NewBuilder(in.columns, out.columns)
	for _, row := range in.rows {
		j, ok := out.byUnit[row.unit]
		if !ok {
			b.Reject(row.unit, "", fmt.Sprintf("missing from %s", out.name))
			continue
		}
		addParsed(b, row.unit, in.columns, row.cells, out.columns, out.rows[j].cells)
	}
	for _, row := range out.rows {
		if _, ok := in.byUnit[row.unit]; !ok {
			b.Reject(row.unit, "", fmt.Sprintf("missing from %s", in.name))
		}
	}
	return b.Build()
}

func fromSheet(s *sheet, inputCols, outputCols []string) (*Table, error) {
	pos := make(map[string]int, len(s.columns))
	for i, c := range s.columns {
		pos[c] = i
	}
	pick := func(cols []string) ([]int, error) {
		idx := make([]int, len(cols))
		for i, c := range cols {
			p, ok := pos[c]
			if !ok {
				return nil, invalid("%s has no column %q", s.name, c)
			}
			idx[i] = p
		}
		return idx, nil
	}
	inIdx, err := pick(inputCols)
	if err != nil {
		return nil, err
	}
	outIdx, err := pick(outputCols)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(inputCols, outputCols)
	for _, row := range s.rows {
		if len(row.cells) != len(s.columns) {
			b.Reject(row.unit, "", fmt.Sprintf("row has %d measures, expected %d", len(row.cells), len(s.columns)))
			continue
		}
		addParsed(b, row.unit, inputCols, subset(row.cells, inIdx), outputCols, subset(row.cells, outIdx))
	}
	return b.Build()
}

// addParsed converts one unit's cells and adds it, or rejects the unit at
// the first cell that is not a number.
func addParsed(b *Builder, unit string, inCols, inCells, outCols, outCells []string) {
	if len(inCells) != len(inCols) {
		b.Reject(unit, "", fmt.Sprintf("has %d inputs, expected %d", len(inCells), len(inCols)))
		return
	}
	if len(outCells) != len(outCols) {
		b.Reject(unit, "", fmt.Sprintf("has %d outputs, expected %d", len(outCells), len(outCols)))
		return
	}
	in, col, reason := parseCells(inCols, inCells)
	if reason == "" {
		var out []float64
		out, col, reason = parseCells(outCols, outCells)
		if reason == "" {
			b.Add(unit, in, out)
			return
		}
	}
	b.Reject(unit, col, reason)
}

func parseCells(cols, cells []string) ([]float64, string, string) {
	vals := make([]float64, len(cells))
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return nil, cols[i], "missing value"
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, cols[i], fmt.Sprintf("not a number: %q", cell)
		}
		vals[i] = v
	}
	return vals, "", ""
}

func subset(cells []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, p := range idx {
		out[i] = cells[p]
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
