package model

import "github.com/roach88/frontier/internal/lp"

// IndicatorThreshold is the value at or above which a facet indicator
// counts as selected.
const IndicatorThreshold = 0.5

const zeroInput = 1e-12

// InputWeights returns the solved input weights in column order.
func (m Model) InputWeights(r lp.Result) []float64 {
	cols := m.t.Inputs()
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = r.Value(InputWeight(c))
	}
	return out
}

// OutputWeights returns the solved output weights in column order.
func (m Model) OutputWeights(r lp.Result) []float64 {
	cols := m.t.Outputs()
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = r.Value(OutputWeight(c))
	}
	return out
}

// Ratio evaluates unit v under the solved weights: weighted outputs over
// weighted inputs. It reports false when v's weighted input is zero.
func (m Model) Ratio(r lp.Result, v int) (float64, bool) {
	values := r.Values()
	in := WeightedInputs(m.t, v).Eval(values)
	if in <= zeroInput {
		return 0, false
	}
	return WeightedOutputs(m.t, v).Eval(values) / in, true
}

// Facet returns the table indices of the reference units whose indicator is
// set, in table order.
func (m Model) Facet(r lp.Result) []int {
	var out []int
	for _, v := range m.Refs {
		if r.Value(Indicator(m.t.Unit(v))) >= IndicatorThreshold {
			out = append(out, v)
		}
	}
	return out
}

// Slack returns in_v - out_v for unit v under the solved weights.
func (m Model) Slack(r lp.Result, v int) float64 {
	values := r.Values()
	return WeightedInputs(m.t, v).Eval(values) - WeightedOutputs(m.t, v).Eval(values)
}
