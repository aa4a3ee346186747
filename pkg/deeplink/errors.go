package deeplink

import (
	"errors"
	"fmt"
)

// Sentinel errors for navigation outcomes.
var (
	// ErrInvalidPath indicates the input contained no non-empty segments.
	// It is rejected at the boundary and never scheduled for retry.
	ErrInvalidPath = errors.New("deeplink: path has no segments")

	// ErrNotReady indicates the stack is empty or its root does not match the
	// requested route. The route can succeed later once the stack grows.
	ErrNotReady = errors.New("deeplink: stack not ready for route")

	// ErrBlocked indicates a node declined to present or dismiss during
	// reconciliation.
	ErrBlocked = errors.New("deeplink: navigation blocked by node")

	// ErrBusy indicates a reconciliation was already running on the navigator.
	// The request is dropped, not queued.
	ErrBusy = errors.New("deeplink: reconciliation already in progress")

	// ErrClosed indicates the navigator has been closed.
	ErrClosed = errors.New("deeplink: navigator closed")

	// ErrGaveUp indicates the retry policy refused to defer a failed route.
	// It wraps the underlying ErrNotReady or ErrBlocked failure.
	ErrGaveUp = errors.New("deeplink: route abandoned")

	// ErrNilNode indicates a nil node, typed or untyped, was registered.
	ErrNilNode = errors.New("deeplink: nil node")
)

// ReconcileError describes where reconciliation stopped.
type ReconcileError struct {
	Op      string // Phase that failed ("match", "dismiss", "present")
	Index   int    // Stack index the phase was working on
	Segment string // Segment at Index, if any
	Err     error  // ErrNotReady or ErrBlocked
}

func (e *ReconcileError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("deeplink: %s at %d (%q): %v", e.Op, e.Index, e.Segment, e.Err)
	}
	return fmt.Sprintf("deeplink: %s at %d: %v", e.Op, e.Index, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// IsNotReady reports whether err is a not-ready reconciliation failure.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsBlocked reports whether err is a blocked reconciliation failure.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}

// Retryable reports whether a failed route may be deferred for a later attempt.
func Retryable(err error) bool {
	return IsNotReady(err) || IsBlocked(err)
}
