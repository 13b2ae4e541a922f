package repo

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("assessment not found")

// UnknownFieldError is returned by Update for a name outside the updatable
// column set.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown or immutable assessment field %q", e.Field)
}

// FieldValueError reports a value that cannot be stored in its column.
type FieldValueError struct {
	Field  string
	Reason string
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}
