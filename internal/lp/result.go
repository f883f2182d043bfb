package lp

import "sort"

// Status is the outcome class of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusOther
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "other"
	}
}

// Result is the immutable outcome of one solve call.
type Result struct {
	Status    Status
	Objective float64 // meaningful only when Status is StatusOptimal
	Detail    string  // solver diagnostic for non-optimal outcomes
	Nodes     int     // branch-and-bound nodes explored, 1 for pure LPs

	values map[string]float64
}

// NewResult copies values into a new Result.
func NewResult(status Status, objective float64, values map[string]float64) Result {
	r := Result{Status: status, Objective: objective, Nodes: 1}
	if values != nil {
		r.values = make(map[string]float64, len(values))
		for k, v := range values {
			r.values[k] = v
		}
	}
	return r
}

// Failed builds a non-optimal result with a diagnostic.
func Failed(status Status, detail string) Result {
	return Result{Status: status, Detail: detail, Nodes: 1}
}

// Optimal reports whether the solve reached an optimum.
func (r Result) Optimal() bool { return r.Status == StatusOptimal }

// Value returns the solved value of a variable, zero if unknown.
func (r Result) Value(name string) float64 { return r.values[name] }

// Values returns a copy of all solved values.
func (r Result) Values() map[string]float64 {
	out := make(map[string]float64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Names returns the solved variable names in sorted order.
func (r Result) Names() []string {
	out := make([]string, 0, len(r.values))
	for k := range r.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
