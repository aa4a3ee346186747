package deeplink

import (
	"errors"
	"log/slog"
)

// State is the scheduler's lifecycle state.
type State int

const (
	StateIdle    State = iota // No route is waiting
	StatePending              // A failed route is waiting for retry
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// PendingRoute is a failed navigation request retained for retry.
type PendingRoute struct {
	Path     Path
	Animated bool
	Attempts int   // Retries made since the route was scheduled
	LastErr  error // Failure from the most recent attempt, nil before the first retry
}

// RetryPolicy bounds how long a pending route survives.
// The zero value retries forever and treats blocked routes like not-ready ones.
type RetryPolicy struct {
	MaxAttempts     int  // Give up after this many failed retries; 0 means never
	GiveUpOnBlocked bool // Drop a route as soon as a node declines it
}

// Allows reports whether a route that failed with err after attempts
// retries should stay scheduled.
func (p RetryPolicy) Allows(err error, attempts int) bool {
	if !Retryable(err) {
		return false
	}
	if p.GiveUpOnBlocked && IsBlocked(err) {
		return false
	}
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return false
	}
	return true
}

// Scheduler holds at most one pending route. Newer requests overwrite older ones.
type Scheduler struct {
	pending *PendingRoute
	policy  RetryPolicy
	metrics *Metrics
	logger  *slog.Logger
}

// NewScheduler creates an idle scheduler. metrics and logger may be nil.
func NewScheduler(policy RetryPolicy, metrics *Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{policy: policy, metrics: metrics, logger: logger}
}

// Schedule replaces any pending route with path.
func (s *Scheduler) Schedule(path Path, animated bool) {
	if s.pending != nil {
		s.logger.Debug("pending route superseded", "old", s.pending.Path.String(), "new", path.String())
	}
	s.pending = &PendingRoute{Path: append(Path(nil), path...), Animated: animated}
	s.metrics.setPending(true)
}

// Pending returns the pending route, if any.
func (s *Scheduler) Pending() (PendingRoute, bool) {
	if s.pending == nil {
		return PendingRoute{}, false
	}
	return *s.pending, true
}

// State reports whether a route is pending.
func (s *Scheduler) State() State {
	if s.pending == nil {
		return StateIdle
	}
	return StatePending
}

// Policy returns the retry policy in effect.
func (s *Scheduler) Policy() RetryPolicy {
	return s.policy
}

// Cancel drops the pending route.
func (s *Scheduler) Cancel() {
	if s.pending == nil {
		return
	}
	s.logger.Debug("pending route cancelled", "path", s.pending.Path.String())
	s.pending = nil
	s.metrics.setPending(false)
}

// RetryIfPossible runs attempt against the pending route and reports whether
// it succeeded. On success the route is cleared. On failure it stays pending
// unless the policy gives up on it. ErrBusy does not count as an attempt.
func (s *Scheduler) RetryIfPossible(attempt func(PendingRoute) error) bool {
	if s.pending == nil {
		return false
	}

	route := *s.pending
	err := attempt(route)

	switch {
	case err == nil:
		s.metrics.retried(outcomeSuccess)
		s.logger.Info("deferred route completed", "path", route.Path.String(), "attempts", route.Attempts+1)
		s.clearIf(route.Path)
		return true
	case errors.Is(err, ErrBusy):
		return false
	}

	route.Attempts++
	route.LastErr = err

	// attempt may have rescheduled a newer route; never clobber it.
	if s.pending == nil || !s.pending.Path.Equal(route.Path) {
		s.metrics.retried(outcomeOf(err))
		return false
	}

	if !s.policy.Allows(err, route.Attempts) {
		s.metrics.retried(outcomeGaveUp)
		s.logger.Warn("deferred route abandoned",
			"path", route.Path.String(),
			"attempts", route.Attempts,
			"error", err)
		s.pending = nil
		s.metrics.setPending(false)
		return false
	}

	s.metrics.retried(outcomeOf(err))
	s.pending.Attempts = route.Attempts
	s.pending.LastErr = err
	return false
}

func (s *Scheduler) clearIf(path Path) {
	if s.pending != nil && s.pending.Path.Equal(path) {
		s.pending = nil
		s.metrics.setPending(false)
	}
}
