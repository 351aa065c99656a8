package fetcher

import (
	"fmt"

	"tootfeed/models"
)

// ErrKind classifies why a fetch failed
type ErrKind string

const (
	// Timeout, refused connection, DNS failure, truncated body
	ErrKindTransport ErrKind = "transport"
	// Non 2xx response
	ErrKindStatus ErrKind = "status"
	// Body is not a JSON list of entries
	ErrKindDecode ErrKind = "decode"
)

// FetchError is returned for every failed fetch
type FetchError struct {
	Account    string
	URL        string
	Kind       ErrKind
	StatusCode int
	Err        error
}

func newFetchError(sub models.Subscription, url string, kind ErrKind, status int, err error) *FetchError {
	return &FetchError{
		Account:    sub.Account,
		URL:        url,
		Kind:       kind,
		StatusCode: status,
		Err:        err,
	}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): %s error, HTTP %d: %v", e.Account, e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s): %s error: %v", e.Account, e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
