package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/model"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against rep and returns the
// failure messages in assertion order.
func EvaluateAssertions(rep *engine.Report, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(rep, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(rep *engine.Report, a Assertion) error {
	switch a.Type {
	case AssertScore:
		return assertScore(rep, a)
	case AssertFailure:
		return assertFailure(rep, a)
	case AssertCross:
		return assertCross(rep, a)
	case AssertCrossMean:
		return assertCrossMean(rep, a)
	case AssertTarget:
		return assertTarget(rep, a)
	case AssertFailureCount:
		return assertFailureCount(rep, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return DefaultTolerance
}

func near(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func unitIndex(rep *engine.Report, unit string) (int, error) {
	i := slices.Index(rep.Units, unit)
	if i < 0 {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return i, nil
}

func describe(f *engine.UnitError) string {
	if f == nil {
		return "no failure"
	}
	return fmt.Sprintf("%s (%s)", f.Code, f.Message)
}

// assertScore checks a rounded efficiency or super-efficiency score.
func assertScore(rep *engine.Report, a Assertion) error {
	scores := rep.Efficiency.Standard
	if a.Model == model.SuperEfficiency.String() {
		scores = rep.Efficiency.Super
	}
	sc, ok := scores.Lookup(a.Unit)
	if !ok {
		return fmt.Errorf("unknown unit %q", a.Unit)
	}
	expected := fmt.Sprintf("%s score of %s = %g", a.Model, a.Unit, *a.Value)
	if !sc.OK() {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: describe(sc.Failure)}
	}
	if !near(sc.Value, *a.Value, tolerance(a)) {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: fmt.Sprintf("%g", sc.Value)}
	}
	return nil
}

// failureOf returns the failure of unit i under the named formulation.
func failureOf(rep *engine.Report, modelName string, i int) *engine.UnitError {
	switch modelName {
	case model.Efficiency.String():
		return rep.Efficiency.Standard[i].Failure
	case model.SuperEfficiency.String():
		return rep.Efficiency.Super[i].Failure
	case model.CrossEfficiency.String():
		return rep.Cross.Rows[i].Failure
	default:
		return rep.Targets[i].Failure
	}
}

// assertFailure checks that a unit failed with the given code.
func assertFailure(rep *engine.Report, a Assertion) error {
	i, err := unitIndex(rep, a.Unit)
	if err != nil {
		return err
	}
	f := failureOf(rep, a.Model, i)
	if f == nil || string(f.Code) != a.Code {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s failure of %s with code %s", a.Model, a.Unit, a.Code),
			Actual:   describe(f),
		}
	}
	return nil
}

// assertCross checks one rounded cross-efficiency entry.
func assertCross(rep *engine.Report, a Assertion) error {
	i, err := unitIndex(rep, a.Rater)
	if err != nil {
		return err
	}
	j, err := unitIndex(rep, a.Unit)
	if err != nil {
		return err
	}
	expected := fmt.Sprintf("cross-efficiency of %s under %s = %g", a.Unit, a.Rater, *a.Value)
	row := rep.Cross.Rows[i]
	if row.Failure != nil {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: describe(row.Failure)}
	}
	v := row.Values[j]
	if v == nil {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "undefined"}
	}
	if !near(*v, *a.Value, tolerance(a)) {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: fmt.Sprintf("%g", *v)}
	}
	return nil
}

// assertCrossMean checks a unit's rounded mean peer appraisal.
func assertCrossMean(rep *engine.Report, a Assertion) error {
	j, err := unitIndex(rep, a.Unit)
	if err != nil {
		return err
	}
	expected := fmt.Sprintf("mean cross-efficiency of %s = %g", a.Unit, *a.Value)
	if j >= len(rep.Cross.Means) || rep.Cross.Means[j] == nil {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "undefined"}
	}
	if got := *rep.Cross.Means[j]; !near(got, *a.Value, tolerance(a)) {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: fmt.Sprintf("%g", got)}
	}
	return nil
}

// assertTarget checks a closest-target score and/or its facet.
func assertTarget(rep *engine.Report, a Assertion) error {
	i, err := unitIndex(rep, a.Unit)
	if err != nil {
		return err
	}
	tg := rep.Targets[i]
	if !tg.OK() {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("closest target of %s", a.Unit),
			Actual:   describe(tg.Failure),
		}
	}
	if a.Value != nil && !near(tg.Score, *a.Value, tolerance(a)) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("closest-target score of %s = %g", a.Unit, *a.Value),
			Actual:   fmt.Sprintf("%g", tg.Score),
		}
	}
	if a.Facet != nil && !slices.Equal(tg.Facet, a.Facet) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("facet of %s = %v", a.Unit, a.Facet),
			Actual:   fmt.Sprintf("%v", tg.Facet),
		}
	}
	return nil
}

// assertFailureCount checks the total number of unit failures.
func assertFailureCount(rep *engine.Report, a Assertion) error {
	if got := len(rep.Failures); got != *a.Count {
		var codes []string
		for _, f := range rep.Failures {
			codes = append(codes, fmt.Sprintf("%s/%s:%s", f.Unit, f.Model, f.Code))
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d failures", *a.Count),
			Actual:   fmt.Sprintf("%d failures %v", got, codes),
		}
	}
	return nil
}
