package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/frontier/internal/lp"
	"github.com/roach88/frontier/internal/model"
)

// UnitError records why one unit has no result under one formulation.
// It never aborts a run; it is stored in place of the unit's score.
type UnitError struct {
	// Code identifies the failure category.
	Code ErrorCode `json:"code"`

	// Unit is the identifier of the affected unit.
	Unit string `json:"unit"`

	// Model names the formulation ("ccr", "super", "cross", "target").
	Model string `json:"model"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// ErrorCode categorizes unit failures.
type ErrorCode string

const (
	// CodeInfeasible indicates the program has no feasible point.
	CodeInfeasible ErrorCode = "INFEASIBLE"

	// CodeUnbounded indicates the objective can grow without limit.
	CodeUnbounded ErrorCode = "UNBOUNDED"

	// CodeSolverFailure indicates a numerical failure, node limit or timeout.
	CodeSolverFailure ErrorCode = "SOLVER_FAILURE"

	// CodeDependency indicates a prerequisite score was missing, such as the
	// CCR score a cross-efficiency row is pinned to.
	CodeDependency ErrorCode = "DEPENDENCY"

	// CodeInvalidInput indicates the unit's data failed table validation.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error implements the error interface.
func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %s (unit=%s, model=%s)", e.Code, e.Message, e.Unit, e.Model)
}

// AsUnitError extracts a UnitError from err, if present.
func AsUnitError(err error) (*UnitError, bool) {
	var ue *UnitError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	ue, ok := AsUnitError(err)
	return ok && ue.Code == code
}

// IsInfeasible reports whether err is an infeasible-program unit failure.
func IsInfeasible(err error) bool { return hasCode(err, CodeInfeasible) }

// IsUnbounded reports whether err is an unbounded-program unit failure.
func IsUnbounded(err error) bool { return hasCode(err, CodeUnbounded) }

// IsSolverFailure reports whether err is a solver failure for one unit.
func IsSolverFailure(err error) bool { return hasCode(err, CodeSolverFailure) }

// IsDependencyError reports whether err is a missing-prerequisite failure.
func IsDependencyError(err error) bool { return hasCode(err, CodeDependency) }

// IsInvalidInput reports whether err is an invalid-data unit failure.
func IsInvalidInput(err error) bool { return hasCode(err, CodeInvalidInput) }

func newUnitError(code ErrorCode, unit string, k model.Kind, format string, args ...any) *UnitError {
	return &UnitError{
		Code:    code,
		Unit:    unit,
		Model:   k.String(),
		Message: fmt.Sprintf(format, args...),
	}
}

// statusError maps a non-optimal solve status to a unit failure.
func statusError(unit string, k model.Kind, r lp.Result) *UnitError {
	code := CodeSolverFailure
	switch r.Status {
	case lp.StatusInfeasible:
		code = CodeInfeasible
	case lp.StatusUnbounded:
		code = CodeUnbounded
	}
	msg := fmt.Sprintf("solver returned %s", r.Status)
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return newUnitError(code, unit, k, "%s", msg)
}
