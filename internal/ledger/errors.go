package ledger

import (
	"errors"
	"fmt"
)

// ValidationError reports a mutation rejected before it touched the ledger.
type ValidationError struct {
	// Field names the offending input (e.g. "volume", "gender").
	Field string

	// Message is a human-readable description.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvariantError reports a dailyStats index that disagrees with drinkHistory.
type InvariantError struct {
	Date    string
	Indexed int
	Actual  int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("daily stat %s: indexed total %d, history total %d", e.Date, e.Indexed, e.Actual)
}
