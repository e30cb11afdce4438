package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned before any chunk work when no extraction
// backend is available.
var ErrNotConfigured = errors.New("extraction backend not configured")

// InputError reports a malformed request.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// FetchError wraps a failure to retrieve a URL source.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
