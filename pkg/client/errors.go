package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFormNotFound marks resolution failures: unknown, unpublished or
	// malformed form identifiers.
	ErrFormNotFound = errors.New("client: form not found")
	// ErrNetwork marks requests that did not complete: transport failures,
	// timeouts and 5xx responses.
	ErrNetwork = errors.New("client: network error")
	// ErrRejected marks submissions the server refused as invalid.
	ErrRejected = errors.New("client: submission rejected")
)

// ResolutionError carries the server-supplied message for a form that could
// not be resolved.
type ResolutionError struct {
	Status  int
	Message string
}

func (e *ResolutionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("client: form not found (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("client: form not found (%d)", e.Status)
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrFormNotFound
}

// NetworkError wraps a failed or 5xx request.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("client: %s: unexpected status %d %s", e.Op, e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("client: %s failed", e.Op)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// RejectedError is a completed submission the server reported invalid.
// Fields is keyed by the server's error paths.
type RejectedError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("client: submission rejected (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("client: submission rejected (%d)", e.Status)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
