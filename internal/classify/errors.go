// Package classify labels master table rows with a procurement category using an LLM.
package classify

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when the classifier is built without an API key.
var ErrMissingCredential = errors.New("classifier credential is missing (set GEMINI_API_KEY)")

// ErrNoTextColumn is returned when the input table has none of the text columns.
var ErrNoTextColumn = errors.New("input table has no text column")

// ClassificationError represents a failure to label one row
type ClassificationError struct {
	Row     int
	Message string
	Cause   error
}

func (e *ClassificationError) Error() string {
	prefix := "classification error"
	if e.Row >= 0 {
		prefix = fmt.Sprintf("classification error at row %d", e.Row)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}
