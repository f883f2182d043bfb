package lp

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Term is a single coefficient-variable product.
type Term struct {
	Var  string
	Coef float64
}

// T is shorthand for Term{Var: name, Coef: coef}.
func T(name string, coef float64) Term {
	return Term{Var: name, Coef: coef}
}

// Expr is a linear expression: sum(Terms) + Constant.
//
// Expr values are treated as immutable. Methods that combine expressions
// always allocate new term slices so callers can share an Expr freely.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Sum builds an expression from terms. Zero coefficients are dropped.
func Sum(terms ...Term) Expr {
	out := Expr{Terms: make([]Term, 0, len(terms))}
	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		out.Terms = append(out.Terms, t)
	}
	return out
}

// Const builds a constant expression.
func Const(c float64) Expr {
	return Expr{Constant: c}
}

// Add returns e + other.
func (e Expr) Add(other Expr) Expr {
	terms := make([]Term, 0, len(e.Terms)+len(other.Terms))
	terms = append(terms, e.Terms...)
	terms = append(terms, other.Terms...)
	return Expr{Terms: terms, Constant: e.Constant + other.Constant}
}

// Sub returns e - other.
func (e Expr) Sub(other Expr) Expr {
	return e.Add(other.Scale(-1))
}

// Scale returns k * e.
func (e Expr) Scale(k float64) Expr {
	terms := make([]Term, 0, len(e.Terms))
	for _, t := range e.Terms {
		if c := t.Coef * k; c != 0 {
			terms = append(terms, Term{Var: t.Var, Coef: c})
		}
	}
	return Expr{Terms: terms, Constant: e.Constant * k}
}

// Coefficients merges repeated variables and returns one coefficient per name.
func (e Expr) Coefficients() map[string]float64 {
	out := make(map[string]float64, len(e.Terms))
	for _, t := range e.Terms {
		out[t.Var] += t.Coef
	}
	return out
}

// Eval evaluates the expression at the given point. Missing variables count as zero.
func (e Expr) Eval(values map[string]float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

func (e Expr) clone() Expr {
	terms := make([]Term, len(e.Terms))
	copy(terms, e.Terms)
	return Expr{Terms: terms, Constant: e.Constant}
}

func (e Expr) validate(known func(string) bool) error {
	if math.IsNaN(e.Constant) || math.IsInf(e.Constant, 0) {
		return fmt.Errorf("constant %v is not finite", e.Constant)
	}
	for _, t := range e.Terms {
		if !known(t.Var) {
			return fmt.Errorf("undeclared variable %q", t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("coefficient of %q is not finite", t.Var)
		}
	}
	return nil
}

// String renders the expression with merged terms in name order.
func (e Expr) String() string {
	coefs := e.Coefficients()
	names := make([]string, 0, len(coefs))
	for name, c := range coefs {
		if c != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		c := coefs[name]
		switch {
		case i == 0 && c < 0:
			b.WriteString("-")
		case i > 0 && c < 0:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		if a := math.Abs(c); a != 1 {
			fmt.Fprintf(&b, "%g ", a)
		}
		b.WriteString(name)
	}
	if e.Constant != 0 || len(names) == 0 {
		if len(names) > 0 {
			if e.Constant < 0 {
				fmt.Fprintf(&b, " - %g", -e.Constant)
			} else {
				fmt.Fprintf(&b, " + %g", e.Constant)
			}
		} else {
			fmt.Fprintf(&b, "%g", e.Constant)
		}
	}
	return b.String()
}
