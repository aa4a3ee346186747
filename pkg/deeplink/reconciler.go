package deeplink

import "log/slog"

// Attacher allocates handles for nodes created during build-up.
type Attacher interface {
	Attach(node Matchable) Handle
}

// Reconciler turns a current stack and a target path into a new stack by
// tearing down the divergent suffix and presenting the missing one.
//
// Reconcile never mutates its input. The returned stack is only meaningful
// on success; on failure the UI may have changed partially and the host's
// lifecycle signals bring the registry back in line.
type Reconciler struct {
	attacher  Attacher
	metrics   *Metrics
	logger    *slog.Logger
	onPresent func(StackItem)
}

// NewReconciler creates a reconciler that attaches presented nodes through a.
// metrics and logger may be nil.
func NewReconciler(a Attacher, metrics *Metrics, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{attacher: a, metrics: metrics, logger: logger}
}

// OnPresent sets a hook called for every node created during build-up,
// including builds that later fail.
func (r *Reconciler) OnPresent(fn func(StackItem)) *Reconciler {
	r.onPresent = fn
	return r
}

// Divergence returns the first index at which current and target disagree,
// or the length of the shorter sequence if one is a prefix of the other.
func Divergence(current Stack, target Path) int {
	n := min(len(current), len(target))
	for i := 0; i < n; i++ {
		if current[i].Segment != target[i] {
			return i
		}
	}
	return n
}

// Reconcile returns the stack that materializes target.
//
// Failures are *ReconcileError values wrapping ErrNotReady (empty stack or
// root mismatch, no node is called) or ErrBlocked (a node declined).
func (r *Reconciler) Reconcile(current Stack, target Path, animated bool) (Stack, error) {
	if len(target) == 0 {
		return nil, ErrInvalidPath
	}
	if len(current) == 0 {
		r.metrics.reconciled(outcomeNotReady)
		return nil, &ReconcileError{Op: "match", Index: 0, Err: ErrNotReady}
	}

	d := Divergence(current, target)
	if d == 0 {
		r.metrics.reconciled(outcomeNotReady)
		return nil, &ReconcileError{Op: "match", Index: 0, Segment: target[0], Err: ErrNotReady}
	}

	working, err := r.tearDown(current.Clone(), d, animated)
	if err != nil {
		r.metrics.reconciled(outcomeBlocked)
		return nil, err
	}

	working, err = r.buildUp(working, target, animated)
	if err != nil {
		r.metrics.reconciled(outcomeBlocked)
		return nil, err
	}

	r.metrics.reconciled(outcomeSuccess)
	return working, nil
}

// tearDown dismisses items until only working[:d] remains.
//
// Each pass asks the deepest parent first to dismiss the items above it, then
// walks toward index d-1, offering each ancestor a longer trailing run. The
// first ancestor that handles its run shortens the stack and a new pass
// starts from the new end.
func (r *Reconciler) tearDown(working Stack, d int, animated bool) (Stack, error) {
	for len(working) > d {
		dismissed := false

		for p := len(working) - 2; p >= d-1; p-- {
			parent := working[p].Node
			if parent == nil {
				continue
			}

			children := working[p+1:].Clone()
			handled := parent.Dismiss(children, animated)
			r.metrics.dismissCall(handled)
			r.logger.Debug("dismiss",
				"parent", working[p].Segment,
				"index", p,
				"children", len(children),
				"handled", handled)

			if handled {
				working = working[:p+1]
				dismissed = true
				break
			}
		}

		if !dismissed {
			last := working[len(working)-1]
			return nil, &ReconcileError{Op: "dismiss", Index: len(working) - 1, Segment: last.Segment, Err: ErrBlocked}
		}
	}
	return working, nil
}

// buildUp presents target[len(working):] one segment at a time.
func (r *Reconciler) buildUp(working Stack, target Path, animated bool) (Stack, error) {
	for i := len(working); i < len(target); i++ {
		parent := working[i-1]
		remaining := append([]string(nil), target[i:]...)

		next := parent.Node.Present(remaining, animated)
		r.metrics.presentCall()
		r.logger.Debug("present",
			"parent", parent.Segment,
			"segment", target[i],
			"remaining", len(remaining),
			"presented", next != nil)

		if next == nil {
			return nil, &ReconcileError{Op: "present", Index: i, Segment: target[i], Err: ErrBlocked}
		}

		item := StackItem{
			Segment: target[i],
			Handle:  r.attacher.Attach(next),
			Node:    next,
		}
		if r.onPresent != nil {
			r.onPresent(item)
		}
		working = append(working, item)
	}
	return working, nil
}
