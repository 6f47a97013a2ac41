package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a page fetch failure.
type Kind string

// Failure kinds.
const (
	// KindNetwork is a transport failure (connection, timeout, cancelled context).
	KindNetwork Kind = "NetworkError"
	// KindUpstream is a non-2xx status other than 429.
	KindUpstream Kind = "UpstreamError"
	// KindRateLimited is an HTTP 429 that outlived the attempt budget.
	KindRateLimited Kind = "RateLimited"
	// KindDecode is a 2xx body that is not the expected structure.
	KindDecode Kind = "DecodeError"
)

// Error represents a terminal failure while fetching one page.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Message    string
	Cause      error
	Retryable  bool
}

func (e *Error) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s for %s%s: %s: %v", e.Kind, e.URL, status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s for %s%s: %s", e.Kind, e.URL, status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of a fetch error, or "" if err is not one.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
