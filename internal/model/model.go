package model

import (
	"errors"
	"fmt"

	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/table"
)

// Kind identifies a formulation.
type Kind int

const (
	Efficiency Kind = iota
	SuperEfficiency
	CrossEfficiency
	ClosestTarget
)

func (k Kind) String() string {
	switch k {
	case Efficiency:
		return "ccr"
	case SuperEfficiency:
		return "super"
	case CrossEfficiency:
		return "cross"
	case ClosestTarget:
		return "target"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrInvalidUnit is returned when the target unit cannot be modelled: it is
// out of range or was flagged by table validation.
var ErrInvalidUnit = errors.New("model: invalid unit")

// InputWeight names the weight variable of an input column.
func InputWeight(column string) string { return "v[" + column + "]" }

// OutputWeight names the weight variable of an output column.
func OutputWeight(column string) string { return "u[" + column + "]" }

// Indicator names the facet indicator of a unit.
func Indicator(unit string) string { return "z[" + unit + "]" }

// Model is a built program together with what is needed to read its
// solution back against the table.
type Model struct {
	Kind    Kind
	Unit    int
	Problem lp.Problem
	// Refs holds the table indices of the reference set, in table order.
	Refs []int
	// BigM is the relaxation constant of a closest-target model; zero otherwise.
	BigM float64

	t *table.Table
}

// Table returns the table the model was built from.
func (m Model) Table() *table.Table { return m.t }

// UnitID returns the identifier of the target unit.
func (m Model) UnitID() string { return m.t.Unit(m.Unit) }

// Option configures a builder.
type Option func(*options)

type options struct {
	refs     []int
	refsSet  bool
	withSelf bool
	bigM     float64
	factor   float64
}

// WithReference restricts the reference set to the given table indices.
// Flagged units are still skipped.
func WithReference(units []int) Option {
	return func(o *options) {
		o.refs = append([]int(nil), units...)
		o.refsSet = true
	}
}

// WithSelf keeps the target in its own reference set in super-efficiency
// mode, which reproduces the standard CCR model.
func WithSelf() Option {
	return func(o *options) {
		o.withSelf = true
	}
}

// WithBigM fixes the closest-target relaxation constant. Values <= 0 leave
// the data-derived constant in place.
func WithBigM(m float64) Option {
	return func(o *options) {
		o.bigM = m
	}
}

// WithBigMFactor sets the multiplier of the data-derived big-M.
func WithBigMFactor(f float64) Option {
	return func(o *options) {
		o.factor = f
	}
}

// DefaultBigMFactor multiplies the data-derived big-M bound.
const DefaultBigMFactor = 10

func newOptions(opts []Option) options {
	o := options{factor: DefaultBigMFactor}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// reference returns the reference set in table order, skipping flagged units
// and, when exclude >= 0, that unit.
func (o options) reference(t *table.Table, exclude int) []int {
	candidates := t.ValidUnits()
	if o.refsSet {
		allowed := make(map[int]bool, len(o.refs))
		for _, r := range o.refs {
			allowed[r] = true
		}
		filtered := candidates[:0]
		for _, v := range candidates {
			if allowed[v] {
				filtered = append(filtered, v)
			}
		}
		candidates = filtered
	}
	out := make([]int, 0, len(candidates))
	for _, v := range candidates {
		if v != exclude {
			out = append(out, v)
		}
	}
	return out
}

func checkUnit(t *table.Table, u int) error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidUnit)
	}
	if u < 0 || u >= t.Len() {
		return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidUnit, u, t.Len())
	}
	if p := t.Problem(u); p != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUnit, p)
	}
	return nil
}

// addWeights declares one non-negative weight per input and output column.
func addWeights(b *lp.Builder, t *table.Table) {
	for _, c := range t.Inputs() {
		b.AddVar(lp.NonNegative(InputWeight(c)))
	}
	for _, c := range t.Outputs() {
		b.AddVar(lp.NonNegative(OutputWeight(c)))
	}
}

// WeightedInputs is sum_i x_vi * v_i for unit v.
func WeightedInputs(t *table.Table, v int) lp.Expr {
	cols := t.Inputs()
	terms := make([]lp.Term, len(cols))
	for i, c := range cols {
		terms[i] = lp.T(InputWeight(c), t.Input(v, i))
	}
	return lp.Sum(terms...)
}

// WeightedOutputs is sum_r y_vr * u_r for unit v.
func WeightedOutputs(t *table.Table, v int) lp.Expr {
	cols := t.Outputs()
	terms := make([]lp.Term, len(cols))
	for r, c := range cols {
		terms[r] = lp.T(OutputWeight(c), t.Output(v, r))
	}
	return lp.Sum(terms...)
}

func refName(t *table.Table, v int) string { return "ref[" + t.Unit(v) + "]" }

func problemName(k Kind, t *table.Table, u int) string {
	return k.String() + "[" + t.Unit(u) + "]"
}
