package table

import (
	"errors"
	"fmt"
)

// ErrInvalidTable marks table-level problems that make the whole table unusable:
// no units, duplicate identifiers, duplicate or missing columns.
var ErrInvalidTable = errors.New("table: invalid table")

// ValidationError describes a problem with one unit's data. It is fatal for
// that unit only.
type ValidationError struct {
	Unit   string
	Column string // empty when the problem is not tied to a column
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("unit %q, column %q: %s", e.Unit, e.Column, e.Reason)
	}
	return fmt.Sprintf("unit %q: %s", e.Unit, e.Reason)
}

// AsValidationError extracts a ValidationError from err, if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTable, fmt.Sprintf(format, args...))
}
