package catalog

import (
	"errors"
	"fmt"

	"github.com/VoxDroid/bhub/internal/transport"
)

// ErrFetchFailed matches every failure surfaced by Client fetches.
var ErrFetchFailed = errors.New("fetch failed")

// ErrProjectNotFound is returned when a slug does not appear in the catalog.
var ErrProjectNotFound = errors.New("project not found")

// FailureKind records why a fetch failed. It is informational; callers
// treat every kind the same way.
type FailureKind string

const (
	KindNetwork FailureKind = "network"
	KindStatus  FailureKind = "status"
	KindDecode  FailureKind = "decode"
	KindInvalid FailureKind = "invalid"
)

// FetchError is the single error type returned by Client fetches.
type FetchError struct {
	Op   string
	URL  string
	Kind FailureKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports FetchError as ErrFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

func transportFailure(op, url string, err error) *FetchError {
	kind := KindNetwork
	var se *transport.StatusError
	if errors.As(err, &se) {
		kind = KindStatus
	}
	return &FetchError{Op: op, URL: url, Kind: kind, Err: err}
}
