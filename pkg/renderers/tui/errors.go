package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined
	// to try again.
	ErrAborted = errors.New("tui: aborted")
	// ErrUnavailable is returned when the widget never became ready.
	ErrUnavailable = errors.New("tui: form unavailable")
	// ErrGaveUp is returned when submissions kept failing.
	ErrGaveUp = errors.New("tui: submission failed")
)
