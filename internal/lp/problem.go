package lp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidProblem is wrapped by every Build validation failure.
var ErrInvalidProblem = errors.New("lp: invalid problem")

// Problem is an immutable LP/MIP descriptor. Construct it with a Builder.
type Problem struct {
	name        string
	sense       Sense
	vars        []Variable
	index       map[string]int
	objective   Expr
	constraints []Constraint
}

// Name returns the problem label.
func (p Problem) Name() string { return p.name }

// Sense returns the optimization direction.
func (p Problem) Sense() Sense { return p.sense }

// NumVars returns the number of declared variables.
func (p Problem) NumVars() int { return len(p.vars) }

// NumConstraints returns the number of constraints.
func (p Problem) NumConstraints() int { return len(p.constraints) }

// Vars returns a copy of the variable declarations in declaration order.
func (p Problem) Vars() []Variable {
	out := make([]Variable, len(p.vars))
	copy(out, p.vars)
	return out
}

// Var looks up a variable by name.
func (p Problem) Var(name string) (Variable, bool) {
	i, ok := p.index[name]
	if !ok {
		return Variable{}, false
	}
	return p.vars[i], true
}

// Objective returns a copy of the objective expression.
func (p Problem) Objective() Expr { return p.objective.clone() }

// Constraints returns a deep copy of the constraints in declaration order.
func (p Problem) Constraints() []Constraint {
	out := make([]Constraint, len(p.constraints))
	for i, c := range p.constraints {
		out[i] = c.clone()
	}
	return out
}

// Constraint looks up a constraint by name.
func (p Problem) Constraint(name string) (Constraint, bool) {
	for _, c := range p.constraints {
		if c.Name == name {
			return c.clone(), true
		}
	}
	return Constraint{}, false
}

// HasIntegers reports whether any variable is integer or binary.
func (p Problem) HasIntegers() bool {
	for _, v := range p.vars {
		if v.Integral() {
			return true
		}
	}
	return false
}

// Violations returns the names of constraints and bounds not satisfied at
// the point within tol. Used to check solver output.
func (p Problem) Violations(values map[string]float64, tol float64) []string {
	var out []string
	for _, v := range p.vars {
		x := values[v.Name]
		if x < v.Lower-tol || x > v.Upper+tol {
			out = append(out, "bound:"+v.Name)
		}
	}
	for _, c := range p.constraints {
		if c.Slack(values) < -tol {
			out = append(out, c.Name)
		}
	}
	return out
}

// String renders the problem in an LP-file like text form for debug logs.
func (p Problem) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\\ %s\n%s\n  obj: %s\nsubject to\n", p.name, p.sense, p.objective)
	for _, c := range p.constraints {
		fmt.Fprintf(&b, "  %s: %s %s %s\n", c.Name, c.LHS, c.Op, c.RHS)
	}
	b.WriteString("bounds\n")
	for _, v := range p.vars {
		if v.Bounded() {
			fmt.Fprintf(&b, "  %g <= %s <= %g\n", v.Lower, v.Name, v.Upper)
		} else {
			fmt.Fprintf(&b, "  %s >= %g\n", v.Name, v.Lower)
		}
	}
	var ints []string
	for _, v := range p.vars {
		if v.Integral() {
			ints = append(ints, v.Name)
		}
	}
	if len(ints) > 0 {
		fmt.Fprintf(&b, "general\n  %s\n", strings.Join(ints, " "))
	}
	b.WriteString("end\n")
	return b.String()
}

// Builder accumulates a Problem. The first error is kept and reported by Build.
type Builder struct {
	p   Problem
	err error
}

// NewBuilder starts a problem with the given label and sense.
func NewBuilder(name string, sense Sense) *Builder {
	return &Builder{p: Problem{name: name, sense: sense, index: make(map[string]int)}}
}

// AddVar declares a variable.
func (b *Builder) AddVar(v Variable) *Builder {
	if b.err != nil {
		return b
	}
	if v.Name == "" {
		b.fail("variable with empty name")
		return b
	}
	if _, dup := b.p.index[v.Name]; dup {
		b.fail("duplicate variable %q", v.Name)
		return b
	}
	if v.Domain == Binary {
		v.Lower, v.Upper = math.Max(v.Lower, 0), math.Min(v.Upper, 1)
	}
	if math.IsNaN(v.Lower) || math.IsInf(v.Lower, 0) || v.Lower < 0 {
		b.fail("variable %q: lower bound %v must be finite and >= 0", v.Name, v.Lower)
		return b
	}
	if math.IsNaN(v.Upper) || v.Upper < v.Lower {
		b.fail("variable %q: upper bound %v below lower bound %v", v.Name, v.Upper, v.Lower)
		return b
	}
	b.p.index[v.Name] = len(b.p.vars)
	b.p.vars = append(b.p.vars, v)
	return b
}

// SetObjective sets the objective expression.
func (b *Builder) SetObjective(e Expr) *Builder {
	b.p.objective = e.clone()
	return b
}

// AddConstraint appends a named constraint lhs op rhs.
func (b *Builder) AddConstraint(name string, lhs Expr, op Op, rhs Expr) *Builder {
	if b.err != nil {
		return b
	}
	b.p.constraints = append(b.p.constraints, Constraint{Name: name, LHS: lhs.clone(), Op: op, RHS: rhs.clone()})
	return b
}

// Build validates and returns the problem. The builder must not be reused.
func (b *Builder) Build() (Problem, error) {
	if b.err != nil {
		return Problem{}, b.err
	}
	known := func(name string) bool {
		_, ok := b.p.index[name]
		return ok
	}
	if err := b.p.objective.validate(known); err != nil {
		return Problem{}, fmt.Errorf("%w: objective: %v", ErrInvalidProblem, err)
	}
	seen := make(map[string]bool, len(b.p.constraints))
	for _, c := range b.p.constraints {
		if c.Name == "" {
			return Problem{}, fmt.Errorf("%w: constraint with empty name", ErrInvalidProblem)
		}
		if seen[c.Name] {
			return Problem{}, fmt.Errorf("%w: duplicate constraint %q", ErrInvalidProblem, c.Name)
		}
		seen[c.Name] = true
		if err := c.LHS.validate(known); err != nil {
			return Problem{}, fmt.Errorf("%w: constraint %q: %v", ErrInvalidProblem, c.Name, err)
		}
		if err := c.RHS.validate(known); err != nil {
			return Problem{}, fmt.Errorf("%w: constraint %q: %v", ErrInvalidProblem, c.Name, err)
		}
	}
	return b.p, nil
}

func (b *Builder) fail(format string, args ...any) {
	b.err = fmt.Errorf("%w: %s", ErrInvalidProblem, fmt.Sprintf(format, args...))
}
