package engine

import (
	"fmt"

	"github.com/roach88/frontier/internal/ir"
	"github.com/roach88/frontier/internal/table"
)

// TableDigest returns the content digest of a table: identifiers, columns,
// every value and every validation problem.
func TableDigest(t *table.Table) (string, error) {
	rows := make(ir.Array, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := ir.NewObject(
			ir.O("unit", ir.String(t.Unit(i))),
			ir.O("x", ir.Floats(t.InputRow(i))),
			ir.O("y", ir.Floats(t.OutputRow(i))),
		)
		if p := t.Problem(i); p != nil {
			row["problem"] = ir.String(p.Error())
		}
		rows[i] = row
	}
	d, err := ir.TableDigest(ir.NewObject(
		ir.O("inputs", ir.Strings(t.Inputs())),
		ir.O("outputs", ir.Strings(t.Outputs())),
		ir.O("rows", rows),
	))
	if err != nil {
		return "", fmt.Errorf("engine: table digest: %w", err)
	}
	return d, nil
}

// ReportDigest returns the digest of a report's settings and rounded results.
// Raw values, run ID, timestamps and node counts are excluded.
func ReportDigest(r *Report) (string, error) {
	d, err := ir.ReportDigest(ReportValue(r))
	if err != nil {
		return "", fmt.Errorf("engine: report digest: %w", err)
	}
	return d, nil
}

// ReportValue is the canonical form of a report that ReportDigest hashes.
func ReportValue(r *Report) ir.Object {
	return ir.NewObject(
		ir.O("format", ir.String(ir.FormatVersion)),
		ir.O("table", ir.String(r.TableDigest)),
		ir.O("settings", ir.NewObject(
			ir.O("precision", ir.Int(r.Settings.Precision)),
			ir.O("big_m", ir.Float(r.Settings.BigM)),
			ir.O("big_m_factor", ir.Float(r.Settings.BigMFactor)),
		)),
		ir.O("standard", scoresValue(r.Efficiency.Standard)),
		ir.O("super", scoresValue(r.Efficiency.Super)),
		ir.O("cross", crossValue(r.Cross)),
		ir.O("targets", targetsValue(r.Targets)),
	)
}

func failureValue(f *UnitError) ir.Value {
	if f == nil {
		return ir.Null{}
	}
	return ir.NewObject(ir.O("code", ir.String(string(f.Code))), ir.O("message", ir.String(f.Message)))
}

func scoresValue(s Scores) ir.Array {
	arr := make(ir.Array, len(s))
	for i, sc := range s {
		arr[i] = ir.NewObject(
			ir.O("unit", ir.String(sc.Unit)),
			ir.O("value", ir.OptFloat(sc.Value, sc.OK())),
			ir.O("failure", failureValue(sc.Failure)),
		)
	}
	return arr
}

func optFloats(ps []*float64) ir.Array {
	arr := make(ir.Array, len(ps))
	for i, p := range ps {
		if p == nil {
			arr[i] = ir.Null{}
		} else {
			arr[i] = ir.Float(*p)
		}
	}
	return arr
}

func crossValue(c CrossMatrix) ir.Object {
	rows := make(ir.Array, len(c.Rows))
	for i, row := range c.Rows {
		rows[i] = ir.NewObject(
			ir.O("rater", ir.String(row.Rater)),
			ir.O("values", optFloats(row.Values)),
			ir.O("failure", failureValue(row.Failure)),
		)
	}
	return ir.NewObject(
		ir.O("units", ir.Strings(c.Units)),
		ir.O("rows", rows),
		ir.O("means", optFloats(c.Means)),
	)
}

func targetsValue(ts Targets) ir.Array {
	arr := make(ir.Array, len(ts))
	for i, t := range ts {
		obj := ir.NewObject(
			ir.O("unit", ir.String(t.Unit)),
			ir.O("failure", failureValue(t.Failure)),
		)
		if t.OK() {
			obj["score"] = ir.Float(t.Score)
			obj["facet"] = ir.Strings(t.Facet)
			obj["input_weights"] = ir.Floats(t.InputWeights)
			obj["output_weights"] = ir.Floats(t.OutputWeights)
		}
		arr[i] = obj
	}
	return arr
}
