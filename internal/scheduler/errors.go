package scheduler

import (
	"errors"
	"fmt"
)

// InvalidTimeFormatError reports a time-of-day string that is not "H:MM AM/PM".
type InvalidTimeFormatError struct {
	Value string
}

func (e *InvalidTimeFormatError) Error() string {
	return fmt.Sprintf("invalid time format: %q (want H:MM AM/PM)", e.Value)
}

// IsInvalidTimeFormat returns true if err is or wraps an InvalidTimeFormatError.
func IsInvalidTimeFormat(err error) bool {
	var te *InvalidTimeFormatError
	return errors.As(err, &te)
}

// StoreNotInitializedError reports a scheduling attempt before a state source
// was attached. It indicates wrong initialization order, never user input.
type StoreNotInitializedError struct {
	Op string
}

func (e *StoreNotInitializedError) Error() string {
	return fmt.Sprintf("scheduler: state source not initialized (op=%s)", e.Op)
}

// IsStoreNotInitialized returns true if err is or wraps a StoreNotInitializedError.
func IsStoreNotInitialized(err error) bool {
	var se *StoreNotInitializedError
	return errors.As(err, &se)
}
