package ingest

import (
	"errors"
	"fmt"
)

// FetchError is a document or API fetch failure with a transient/permanent
// classification. Transient failures (network errors, 429, 5xx) are worth
// retrying; permanent ones (403, 404, bad URL) are not. The distinction is
// preserved all the way to callers so "we couldn't look" is never collapsed
// into "we looked and there's nothing".
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Transient  bool
	Err        error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s fetch failure: HTTP %d for %s", kind, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s fetch failure for %s: %v", kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a FetchError classified as retryable.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}
