// Package table holds the DMU table: an ordered set of uniquely named units,
// each measured on the same ordered input and output columns.
//
// A Table is read-only once built. Units whose data failed validation stay in
// the table (so reports can name them) but are flagged; callers check
// Problem before using a unit and never place flagged units in a reference set.
package table

import (
	"fmt"
	"math"
)

// Table is an immutable DMU table.
type Table struct {
	units    []string
	inputs   []string
	outputs  []string
	x        [][]float64
	y        [][]float64
	problems []*ValidationError
	index    map[string]int
}

// Len returns the number of units, valid or not.
func (t *Table) Len() int { return len(t.units) }

// Units returns the unit identifiers in table order.
func (t *Table) Units() []string { return cloneStrings(t.units) }

// Unit returns the identifier of unit i.
func (t *Table) Unit(i int) string { return t.units[i] }

// Inputs returns the input column names in order.
func (t *Table) Inputs() []string { return cloneStrings(t.inputs) }

// Outputs returns the output column names in order.
func (t *Table) Outputs() []string { return cloneStrings(t.outputs) }

// Index returns the position of a unit.
func (t *Table) Index(unit string) (int, bool) {
	i, ok := t.index[unit]
	return i, ok
}

// Input returns input column c of unit i.
func (t *Table) Input(i, c int) float64 { return t.x[i][c] }

// Output returns output column c of unit i.
func (t *Table) Output(i, c int) float64 { return t.y[i][c] }

// InputRow returns a copy of unit i's inputs.
func (t *Table) InputRow(i int) []float64 { return cloneFloats(t.x[i]) }

// OutputRow returns a copy of unit i's outputs.
func (t *Table) OutputRow(i int) []float64 { return cloneFloats(t.y[i]) }

// Problem returns the validation error of unit i, or nil.
func (t *Table) Problem(i int) *ValidationError { return t.problems[i] }

// Valid reports whether unit i passed validation.
func (t *Table) Valid(i int) bool { return t.problems[i] == nil }

// ValidUnits returns the indices of units that passed validation.
func (t *Table) ValidUnits() []int {
	out := make([]int, 0, len(t.units))
	for i, p := range t.problems {
		if p == nil {
			out = append(out, i)
		}
	}
	return out
}

// Problems returns every unit-level validation error in table order.
func (t *Table) Problems() []*ValidationError {
	var out []*ValidationError
	for _, p := range t.problems {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Value looks up a measure by unit identifier and column name.
func (t *Table) Value(unit, column string) (float64, error) {
	i, ok := t.index[unit]
	if !ok {
		return 0, fmt.Errorf("table: unknown unit %q", unit)
	}
	for c, name := range t.inputs {
		if name == column {
			return t.x[i][c], nil
		}
	}
	for c, name := range t.outputs {
		if name == column {
			return t.y[i][c], nil
		}
	}
	return 0, fmt.Errorf("table: unknown column %q", column)
}

// Builder assembles a Table row by row.
type Builder struct {
	t   *Table
	err error
}

// NewBuilder starts a table with the given column names.
func NewBuilder(inputs, outputs []string) *Builder {
	b := &Builder{t: &Table{
		inputs:  cloneStrings(inputs),
		outputs: cloneStrings(outputs),
		index:   make(map[string]int),
	}}
	switch {
	case len(inputs) == 0:
		b.err = invalid("no input columns")
	case len(outputs) == 0:
		b.err = invalid("no output columns")
	}
	seen := make(map[string]bool)
	for _, name := range append(cloneStrings(inputs), outputs...) {
		if b.err != nil {
			break
		}
		if name == "" {
			b.err = invalid("empty column name")
		} else if seen[name] {
			b.err = invalid("duplicate column %q", name)
		}
		seen[name] = true
	}
	return b
}

// Add appends a unit. Values that are missing (NaN), infinite or negative
// flag the unit; a row of the wrong width flags it too.
func (b *Builder) Add(unit string, inputs, outputs []float64) *Builder {
	if !b.push(unit) {
		return b
	}
	i := len(b.t.units) - 1
	b.t.x[i] = padded(inputs, len(b.t.inputs))
	b.t.y[i] = padded(outputs, len(b.t.outputs))
	b.t.problems[i] = b.check(unit, inputs, outputs)
	return b
}

// Reject appends a unit whose row could not be parsed.
func (b *Builder) Reject(unit, column, reason string) *Builder {
	if !b.push(unit) {
		return b
	}
	i := len(b.t.units) - 1
	b.t.x[i] = make([]float64, len(b.t.inputs))
	b.t.y[i] = make([]float64, len(b.t.outputs))
	b.t.problems[i] = &ValidationError{Unit: unit, Column: column, Reason: reason}
	return b
}

// Restore appends a unit with previously validated values. A non-nil problem
// flags the unit with exactly that error; values are taken as given.
func (b *Builder) Restore(unit string, inputs, outputs []float64, problem *ValidationError) *Builder {
	if !b.push(unit) {
		return b
	}
	i := len(b.t.units) - 1
	b.t.x[i] = padded(inputs, len(b.t.inputs))
	b.t.y[i] = padded(outputs, len(b.t.outputs))
	if problem != nil {
		p := *problem
		p.Unit = unit
		b.t.problems[i] = &p
	}
	return b
}

// Build returns the table, or an ErrInvalidTable error.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.t.units) == 0 {
		return nil, invalid("no units")
	}
	return b.t, nil
}

func (b *Builder) push(unit string) bool {
	if b.err != nil {
		return false
	}
	if unit == "" {
		b.err = invalid("row %d has an empty unit identifier", len(b.t.units)+1)
		return false
	}
	if _, dup := b.t.index[unit]; dup {
		b.err = invalid("duplicate unit %q", unit)
		return false
	}
	b.t.index[unit] = len(b.t.units)
	b.t.units = append(b.t.units, unit)
	b.t.x = append(b.t.x, nil)
	b.t.y = append(b.t.y, nil)
	b.t.problems = append(b.t.problems, nil)
	return true
}

func (b *Builder) check(unit string, inputs, outputs []float64) *ValidationError {
	if len(inputs) != len(b.t.inputs) {
		return &ValidationError{Unit: unit, Reason: fmt.Sprintf("has %d inputs, expected %d", len(inputs), len(b.t.inputs))}
	}
	if len(outputs) != len(b.t.outputs) {
		return &ValidationError{Unit: unit, Reason: fmt.Sprintf("has %d outputs, expected %d", len(outputs), len(b.t.outputs))}
	}
	for c, v := range inputs {
		if reason := checkValue(v); reason != "" {
			return &ValidationError{Unit: unit, Column: b.t.inputs[c], Reason: reason}
		}
	}
	for c, v := range outputs {
		if reason := checkValue(v); reason != "" {
			return &ValidationError{Unit: unit, Column: b.t.outputs[c], Reason: reason}
		}
	}
	return nil
}

func checkValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "missing value"
	case math.IsInf(v, 0):
		return "infinite value"
	case v < 0:
		return fmt.Sprintf("negative value %g", v)
	}
	return ""
}

func padded(in []float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(in); i++ {
		if v := in[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
