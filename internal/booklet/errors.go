package booklet

import (
	"errors"
	"fmt"
)

var (
	ErrCoverNotFound    = errors.New("cover not found")
	ErrCoverPageCount   = errors.New("cover must have exactly 4 pages")
	ErrPlannerPageCount = errors.New("planner template must have exactly 2 pages")
	ErrMissingField     = errors.New("required form field missing")
	ErrInvalidPeriod    = errors.New("invalid planner period")
	ErrConversion       = errors.New("grayscale conversion failed")
	ErrLoad             = errors.New("cannot load fragment")
)

// FragmentError is a fatal error attributed to one fragment. The build is
// aborted; nothing is returned to the caller but the error.
type FragmentError struct {
	FragmentID string
	Type       string
	Reason     string
	Err        error
}

func (e *FragmentError) Error() string {
	msg := fmt.Sprintf("fragment %q (%s)", e.FragmentID, e.Type)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

func fragmentError(f Fragment, reason string, err error) *FragmentError {
	return &FragmentError{FragmentID: f.ID, Type: f.Type, Reason: reason, Err: err}
}
