package deeplink

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink/internal"
)

// Navigator is the deep-link service. It owns a Registry, reconciles
// requested paths against it and keeps at most one failed route for retry.
//
// All methods must be called from a single coordination context (the host's
// UI thread). Multi-threaded hosts marshal calls through dispatch.Loop.
type Navigator struct {
	registry   *Registry
	reconciler *Reconciler
	scheduler  *Scheduler
	metrics    *Metrics
	logger     *slog.Logger

	// observed maps every node the navigator knows a segment for.
	observed map[Handle]string

	// appeared buffers Appeared signals for nodes that are not attached yet
	// because they arrived from inside Present. Replayed after reconciliation.
	appeared []Matchable

	busy   atomic.Bool
	closed atomic.Bool
}

// Option configures a Navigator.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
	policy  RetryPolicy
}

// WithLogger sets the structured logger. Defaults to the package logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records activity into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRetryPolicy bounds how long deferred routes are retried.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) { o.policy = p }
}

// New creates a Navigator with an empty stack.
func New(opts ...Option) *Navigator {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = internal.GetLogger()
	}

	n := &Navigator{
		registry: NewRegistry(),
		metrics:  o.metrics,
		logger:   o.logger,
		observed: make(map[Handle]string),
	}
	n.reconciler = NewReconciler(n.registry, o.metrics, o.logger).OnPresent(n.observe)
	n.scheduler = NewScheduler(o.policy, o.metrics, o.logger)
	return n
}

// Register makes node addressable as the last segment of path and appends
// it to the stack. The deferred route, if any, is retried afterwards.
func (n *Navigator) Register(node Matchable, path string) (Handle, error) {
	if n.closed.Load() {
		return 0, ErrClosed
	}
	if isNil(node) {
		return 0, ErrNilNode
	}

	p, err := ParsePath(path)
	if err != nil {
		return 0, err
	}

	h := n.registry.Attach(node)
	n.observe(StackItem{Segment: p.Last(), Handle: h, Node: node})
	n.registry.Add(StackItem{Segment: p.Last(), Handle: h, Node: node})
	n.logger.Debug("node registered", "segment", p.Last(), "handle", uint64(h))

	n.retry()
	return h, nil
}

// Open navigates to path and reports whether the route was satisfied
// immediately. Failed routes are deferred; see Navigate.
func (n *Navigator) Open(path string, animated bool) bool {
	return n.Navigate(path, animated) == nil
}

// OpenURL is Open for a deep-link URL; see ParseURL.
func (n *Navigator) OpenURL(rawURL string, animated bool) bool {
	return n.NavigateURL(rawURL, animated) == nil
}

// Navigate is Open with the failure classified.
//
// ErrInvalidPath, ErrBusy and ErrClosed are returned without touching the
// pending route. NotReady and Blocked failures replace the pending route
// when the retry policy allows it. Otherwise the pending route is cancelled
// and the failure is returned wrapped in ErrGaveUp.
func (n *Navigator) Navigate(path string, animated bool) error {
	if n.closed.Load() {
		return ErrClosed
	}

	p, err := ParsePath(path)
	if err != nil {
		n.logger.Warn("rejected deep link", "raw", path, "error", err)
		return err
	}
	return n.navigate(p, animated)
}

// NavigateURL is Navigate for a deep-link URL; see ParseURL.
func (n *Navigator) NavigateURL(rawURL string, animated bool) error {
	if n.closed.Load() {
		return ErrClosed
	}

	p, err := ParseURL(rawURL)
	if err != nil {
		n.logger.Warn("rejected deep link", "raw", rawURL, "error", err)
		return err
	}
	return n.navigate(p, animated)
}

func (n *Navigator) navigate(p Path, animated bool) error {
	logger := n.logger.With("nav_id", uuid.NewString(), "path", p.String())

	err := n.reconcile(p, animated, logger)
	switch {
	case err == nil:
		n.scheduler.Cancel()
		logger.Info("route opened")
		return nil
	case errors.Is(err, ErrBusy):
		logger.Warn("route dropped", "error", err)
		return err
	}

	if n.scheduler.Policy().Allows(err, 0) {
		n.scheduler.Schedule(p, animated)
		logger.Info("route deferred", "error", err)
		return err
	}

	n.scheduler.Cancel()
	logger.Warn("route abandoned", "error", err)
	return fmt.Errorf("%w: %w", ErrGaveUp, err)
}

// Appeared reports that node became visible. Nodes the navigator has never
// seen are ignored, except during reconciliation: a node may appear from
// inside Present before it is attached, so the signal is held and replayed
// once the attempt ends. A node already on the stack keeps its position.
func (n *Navigator) Appeared(node Matchable) {
	if n.closed.Load() || isNil(node) {
		return
	}

	h, ok := n.registry.Lookup(node)
	if !ok {
		if n.busy.Load() {
			n.appeared = append(n.appeared, node)
		}
		return
	}
	segment, ok := n.observed[h]
	if !ok {
		return
	}

	if n.registry.Snapshot().Index(h) < 0 {
		n.registry.Add(StackItem{Segment: segment, Handle: h, Node: node})
		n.logger.Debug("node appeared", "segment", segment, "handle", uint64(h))
	}
	n.retry()
}

// Disappeared reports that node was detached from the UI. It leaves the
// stack but stays observed, so a later Appeared puts it back.
func (n *Navigator) Disappeared(node Matchable) {
	n.forgetAppeared(node)

	h, ok := n.registry.Lookup(node)
	if !ok {
		return
	}
	removed := n.registry.RemoveWhere(func(item StackItem) bool {
		return item.Handle == h
	})
	if len(removed) > 0 {
		n.logger.Debug("node disappeared", "segment", removed[0].Segment, "handle", uint64(h))
	}
}

// Released reports that node is gone for good. Its stack position becomes
// absent without an explicit Disappeared.
func (n *Navigator) Released(node Matchable) {
	n.forgetAppeared(node)

	h, ok := n.registry.Lookup(node)
	if !ok {
		return
	}
	n.registry.Release(h)
	delete(n.observed, h)
}

// Stack returns the live stack.
func (n *Navigator) Stack() Stack {
	return n.registry.Snapshot()
}

// Pending returns the deferred route, if any.
func (n *Navigator) Pending() (PendingRoute, bool) {
	return n.scheduler.Pending()
}

// State reports whether a deferred route is waiting.
func (n *Navigator) State() State {
	return n.scheduler.State()
}

// Cancel drops the deferred route.
func (n *Navigator) Cancel() {
	n.scheduler.Cancel()
}

// Close cancels the deferred route and releases every node. Subsequent
// calls fail with ErrClosed or are ignored.
func (n *Navigator) Close() {
	if !n.closed.CompareAndSwap(false, true) {
		return
	}
	n.scheduler.Cancel()
	for h := range n.observed {
		n.registry.Release(h)
	}
	for _, item := range n.registry.Snapshot() {
		n.registry.Release(item.Handle)
	}
	n.registry.Replace(nil)
	n.observed = make(map[Handle]string)
	n.appeared = nil
}

func (n *Navigator) observe(item StackItem) {
	n.observed[item.Handle] = item.Segment
}

// reconcile runs one attempt, publishes the result on success and then
// replays appearances held back during the attempt.
func (n *Navigator) reconcile(p Path, animated bool, logger *slog.Logger) error {
	if !n.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	err := n.attempt(p, animated, logger)
	n.busy.Store(false)

	n.replayAppeared()
	return err
}

func (n *Navigator) attempt(p Path, animated bool, logger *slog.Logger) error {
	current := n.registry.Snapshot()
	next, err := n.reconciler.Reconcile(current, p, animated)
	if err != nil {
		logger.Debug("reconciliation failed", "stack", current.Path().String(), "error", err)
		return err
	}

	n.registry.Replace(next)
	return nil
}

// replayAppeared adds nodes that appeared while unattached and have since
// been attached and observed. It does not retry: the caller is finishing an
// attempt and decides what happens next.
func (n *Navigator) replayAppeared() {
	held := n.appeared
	n.appeared = nil

	for _, node := range held {
		h, ok := n.registry.Lookup(node)
		if !ok {
			continue
		}
		segment, ok := n.observed[h]
		if !ok || n.registry.Snapshot().Index(h) >= 0 {
			continue
		}
		n.registry.Add(StackItem{Segment: segment, Handle: h, Node: node})
		n.logger.Debug("node appeared during reconciliation", "segment", segment, "handle", uint64(h))
	}
}

func (n *Navigator) forgetAppeared(node Matchable) {
	if len(n.appeared) == 0 {
		return
	}
	kept := n.appeared[:0]
	for _, held := range n.appeared {
		if held != node {
			kept = append(kept, held)
		}
	}
	n.appeared = kept
}

// isNil reports whether node is nil or a nil pointer, map, slice, func or
// chan wrapped in the interface.
func isNil(node Matchable) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// retry attempts the deferred route after the stack grew. Signals delivered
// from inside Present or Dismiss do not start a nested reconciliation.
func (n *Navigator) retry() {
	if n.busy.Load() {
		return
	}
	n.scheduler.RetryIfPossible(func(route PendingRoute) error {
		logger := n.logger.With("nav_id", uuid.NewString(), "path", route.Path.String(), "attempt", route.Attempts+1)
		return n.reconcile(route.Path, route.Animated, logger)
	})
}
