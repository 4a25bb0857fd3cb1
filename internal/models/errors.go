package models

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when an operation needs at least one sample or
// at least one candidate trip and got none.
var ErrEmptyInput = errors.New("empty input")

// MalformedSampleError reports a sample that is missing a required numeric
// field. It is produced by whatever decoded the path, never by the analysis
// itself.
type MalformedSampleError struct {
	Index int    // position of the sample in its source
	Field string // lon, lat or speed
	Err   error
}

func (e *MalformedSampleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed sample %d: missing %s", e.Index, e.Field)
	}
	return fmt.Sprintf("malformed sample %d: bad %s: %v", e.Index, e.Field, e.Err)
}

func (e *MalformedSampleError) Unwrap() error {
	return e.Err
}
