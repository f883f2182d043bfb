package lp

import "math"

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Domain is the value domain of a variable.
type Domain int

const (
	Continuous Domain = iota
	Integer
	Binary
)

func (d Domain) String() string {
	switch d {
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "continuous"
	}
}

// Op is a constraint comparison.
type Op int

const (
	LE Op = iota // lhs <= rhs
	GE           // lhs >= rhs
	EQ           // lhs == rhs
)

func (o Op) String() string {
	switch o {
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return "<="
	}
}

// Variable is a decision variable declaration.
type Variable struct {
	Name   string
	Lower  float64
	Upper  float64 // math.Inf(1) when unbounded above
	Domain Domain
}

// NonNegative declares a continuous variable on [0, +Inf).
func NonNegative(name string) Variable {
	return Variable{Name: name, Lower: 0, Upper: math.Inf(1), Domain: Continuous}
}

// BinaryVar declares a {0, 1} variable.
func BinaryVar(name string) Variable {
	return Variable{Name: name, Lower: 0, Upper: 1, Domain: Binary}
}

// Bounded reports whether the variable has a finite upper bound.
func (v Variable) Bounded() bool {
	return !math.IsInf(v.Upper, 1)
}

// Integral reports whether the variable must take an integer value.
func (v Variable) Integral() bool {
	return v.Domain == Integer || v.Domain == Binary
}

// Constraint is a named linear relation LHS op RHS.
type Constraint struct {
	Name string
	LHS  Expr
	Op   Op
	RHS  Expr
}

// Normalized returns the constraint as (coefficients, op, rhs) with every
// variable moved to the left and every constant moved to the right.
func (c Constraint) Normalized() (map[string]float64, Op, float64) {
	diff := c.LHS.Sub(c.RHS)
	return diff.Coefficients(), c.Op, -diff.Constant
}

// Slack returns how far the constraint is from being violated at the point.
// Non-negative slack means satisfied; for EQ the slack is -|lhs-rhs|.
func (c Constraint) Slack(values map[string]float64) float64 {
	lhs := c.LHS.Eval(values)
	rhs := c.RHS.Eval(values)
	switch c.Op {
	case GE:
		return lhs - rhs
	case EQ:
		return -math.Abs(lhs - rhs)
	default:
		return rhs - lhs
	}
}

func (c Constraint) clone() Constraint {
	return Constraint{Name: c.Name, LHS: c.LHS.clone(), Op: c.Op, RHS: c.RHS.clone()}
}
