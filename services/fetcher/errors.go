package fetcher

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against a *Failure.
var (
	ErrTransientNetwork  = errors.New("transient network failure")
	ErrPermanentHTTP     = errors.New("permanent http failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// FailureKind classifies why a fetch did not produce a document
type FailureKind string

const (
	KindTransientNetwork  FailureKind = "transient_network"
	KindPermanentHTTP     FailureKind = "permanent_http"
	KindMalformedResponse FailureKind = "malformed_response"
)

// Failure is returned for every unsuccessful fetch. None of these are fatal
// to a run; callers record them per item.
type Failure struct {
	Kind     FailureKind
	URL      string
	Status   int // 0 when no response was received
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: GET %s", f.Kind, f.URL)
	if f.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", f.Status)
	}
	if f.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", f.Attempts)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	errs := []error{f.sentinel()}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

func (f *Failure) sentinel() error {
	switch f.Kind {
	case KindTransientNetwork:
		return ErrTransientNetwork
	case KindPermanentHTTP:
		return ErrPermanentHTTP
	default:
		return ErrMalformedResponse
	}
}

// KindOf returns the failure kind of err, or "" when err is not a *Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
