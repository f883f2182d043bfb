package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/frontier/internal/engine"
	"github.com/roach88/frontier/internal/ir"
)

// timeLayout has fixed-width fractional seconds so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// marshalStrings converts a list to canonical JSON TEXT. nil is stored as NULL.
func marshalStrings(ss []string) (sql.NullString, error) {
	if ss == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(ir.Strings(ss))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal strings: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// marshalFloats converts a vector to canonical JSON TEXT. nil is stored as NULL.
func marshalFloats(fs []float64) (sql.NullString, error) {
	if fs == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(ir.Floats(fs))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal floats: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalStrings(data sql.NullString) ([]string, error) {
	if !data.Valid {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(data.String), &ss); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return ss, nil
}

func unmarshalFloats(data sql.NullString) ([]float64, error) {
	if !data.Valid {
		return nil, nil
	}
	var fs []float64
	if err := json.Unmarshal([]byte(data.String), &fs); err != nil {
		return nil, fmt.Errorf("unmarshal floats: %w", err)
	}
	return fs, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

// failureColumns splits a unit failure into its code and message columns.
func failureColumns(f *engine.UnitError) (code, message sql.NullString) {
	if f == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: string(f.Code), Valid: true},
		sql.NullString{String: f.Message, Valid: true}
}

// failureFrom rebuilds a unit failure, or returns nil when code is NULL.
func failureFrom(code, message sql.NullString, unit, model string) *engine.UnitError {
	if !code.Valid {
		return nil
	}
	return &engine.UnitError{
		Code:    engine.ErrorCode(code.String),
		Unit:    unit,
		Model:   model,
		Message: message.String,
	}
}
