package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frontier/internal/engine"
)

func fptr(f float64) *float64 { return &f }

func iptr(i int) *int { return &i }

// sampleReport is a two-unit report where b is invalid.
func sampleReport() *engine.Report {
	bad := func(model string) *engine.UnitError {
		return &engine.UnitError{Code: engine.CodeInvalidInput, Unit: "b", Model: model, Message: "missing value"}
	}
	rep := &engine.Report{
		Units: []string{"a", "b"},
		Efficiency: engine.EfficiencyResult{
			Standard: engine.Scores{{Unit: "a", Value: 1, Raw: 1}, {Unit: "b", Failure: bad("ccr")}},
			Super:    engine.Scores{{Unit: "a", Value: 1.25, Raw: 1.25}, {Unit: "b", Failure: bad("super")}},
		},
		Cross: engine.CrossMatrix{
			Units: []string{"a", "b"},
			Rows: []engine.CrossRow{
				{Rater: "a", Values: []*float64{fptr(1), nil}, Raw: []*float64{fptr(1), nil}},
				{Rater: "b", Values: []*float64{nil, nil}, Raw: []*float64{nil, nil}, Failure: bad("cross")},
			},
			Means: []*float64{fptr(1), nil},
		},
		Targets: engine.Targets{
			{Unit: "a", Score: 0.667, Raw: 2.0 / 3, Facet: []string{"a"}},
			{Unit: "b", Failure: bad("target")},
		},
	}
	rep.Failures = append(rep.Failures, rep.Efficiency.Standard.Failures()...)
	rep.Failures = append(rep.Failures, rep.Efficiency.Super.Failures()...)
	rep.Failures = append(rep.Failures, rep.Cross.Failures()...)
	rep.Failures = append(rep.Failures, rep.Targets.Failures()...)
	return rep
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertScore, Model: "ccr", Unit: "a", Value: fptr(1)},
		{Type: AssertScore, Model: "super", Unit: "a", Value: fptr(1.25)},
		{Type: AssertFailure, Model: "ccr", Unit: "b", Code: "INVALID_INPUT"},
		{Type: AssertFailure, Model: "super", Unit: "b", Code: "INVALID_INPUT"},
		{Type: AssertFailure, Model: "cross", Unit: "b", Code: "INVALID_INPUT"},
		{Type: AssertFailure, Model: "target", Unit: "b", Code: "INVALID_INPUT"},
		{Type: AssertCross, Rater: "a", Unit: "a", Value: fptr(1)},
		{Type: AssertCrossMean, Unit: "a", Value: fptr(1)},
		{Type: AssertTarget, Unit: "a", Value: fptr(0.667), Facet: []string{"a"}},
		{Type: AssertTarget, Unit: "a", Value: fptr(0.7), Tolerance: 0.05},
		{Type: AssertFailureCount, Count: iptr(4)},
	}
	assert.Empty(t, EvaluateAssertions(sampleReport(), assertions))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"score of failed unit", Assertion{Type: AssertScore, Model: "ccr", Unit: "b", Value: fptr(1)}, "INVALID_INPUT (missing value)"},
		{"score off", Assertion{Type: AssertScore, Model: "super", Unit: "a", Value: fptr(1)}, "Actual: 1.25"},
		{"wrong code", Assertion{Type: AssertFailure, Model: "ccr", Unit: "b", Code: "INFEASIBLE"}, "with code INFEASIBLE"},
		{"undefined cross entry", Assertion{Type: AssertCross, Rater: "a", Unit: "b", Value: fptr(1)}, "Actual: undefined"},
		{"failed rater", Assertion{Type: AssertCross, Rater: "b", Unit: "a", Value: fptr(1)}, "INVALID_INPUT"},
		{"unknown rater", Assertion{Type: AssertCross, Rater: "z", Unit: "a", Value: fptr(1)}, `unknown unit "z"`},
		{"undefined mean", Assertion{Type: AssertCrossMean, Unit: "b", Value: fptr(1)}, "Actual: undefined"},
		{"failed target", Assertion{Type: AssertTarget, Unit: "b", Value: fptr(1)}, "closest target of b"},
		{"target score", Assertion{Type: AssertTarget, Unit: "a", Value: fptr(0.5)}, "Actual: 0.667"},
		{"failure count", Assertion{Type: AssertFailureCount, Count: iptr(0)}, "b/ccr:INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleReport(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertScore, Expected: "ccr score of a = 1", Actual: "0.5"}
	assert.Equal(t, "Assertion failed: score\n  Expected: ccr score of a = 1\n  Actual: 0.5", err.Error())
}
