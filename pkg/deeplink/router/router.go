package router

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink"
	"github.com/BrandonKowalski/deeplink/pkg/deeplink/constants"
	"github.com/BrandonKowalski/deeplink/pkg/deeplink/internal"
)

// Screen is a type-safe identifier for screens.
// Applications should define their own Screen constants using iota.
//
// Example:
//
//	const (
//	    ScreenRoot Screen = iota
//	    ScreenList
//	    ScreenDetail
//	)
type Screen int

// Params holds the values captured by ":name" route patterns.
type Params map[string]string

// ScreenFunc builds the model for a screen that is being presented.
// Returning an error declines the presentation.
type ScreenFunc func(params Params) (model any, err error)

// TransitionKind tells presentations and dismissals apart.
type TransitionKind int

const (
	TransitionPresent TransitionKind = iota
	TransitionDismiss
)

func (k TransitionKind) String() string {
	if k == TransitionDismiss {
		return "dismiss"
	}
	return "present"
}

// Transition describes one change to the presentation stack.
type Transition struct {
	Kind     TransitionKind
	Screen   Screen
	Segment  string
	Depth    int
	Animated bool
}

// TransitionFunc observes every change to the presentation stack.
type TransitionFunc func(t Transition)

// Lifecycle receives appear/disappear signals for presented nodes.
// *deeplink.Navigator satisfies it.
type Lifecycle interface {
	Appeared(node deeplink.Matchable)
	Disappeared(node deeplink.Matchable)
}

type route struct {
	pattern string
	screen  Screen
}

// Router is an in-memory UI host. Screens are registered with their
// functions and wired into a tree of segment patterns; the nodes it
// presents implement deeplink.Matchable.
type Router struct {
	screens    map[Screen]ScreenFunc
	routes     map[Screen][]route
	locked     map[Screen]bool
	transition TransitionFunc
	lifecycle  Lifecycle
	stack      *Stack
	logger     *slog.Logger
}

// New creates a new Router.
func New() *Router {
	return &Router{
		screens: make(map[Screen]ScreenFunc),
		routes:  make(map[Screen][]route),
		locked:  make(map[Screen]bool),
		stack:   NewStack(),
		logger:  internal.GetLogger().With("subsystem", "router"),
	}
}

// Register adds a screen to the router.
// The screen function will be called when the screen is presented.
func (r *Router) Register(screen Screen, fn ScreenFunc) *Router {
	r.screens[screen] = fn
	return r
}

// Route lets parent present child for segments matching pattern.
// A pattern is either a literal segment or ":name", which matches any
// segment and captures it in Params. Literal routes are tried first.
func (r *Router) Route(parent Screen, pattern string, child Screen) *Router {
	r.routes[parent] = append(r.routes[parent], route{pattern: pattern, screen: child})
	return r
}

// Lock makes screen refuse dismissal.
func (r *Router) Lock(screen Screen) *Router {
	r.locked[screen] = true
	return r
}

// Unlock reverses Lock.
func (r *Router) Unlock(screen Screen) *Router {
	delete(r.locked, screen)
	return r
}

// OnTransition sets the observer called after every push and pop.
func (r *Router) OnTransition(fn TransitionFunc) *Router {
	r.transition = fn
	return r
}

// Observe sends lifecycle signals for presented and dismissed nodes to l.
func (r *Router) Observe(l Lifecycle) *Router {
	r.lifecycle = l
	return r
}

// WithLogger replaces the router's logger.
func (r *Router) WithLogger(logger *slog.Logger) *Router {
	r.logger = logger
	return r
}

// Root presents screen at the bottom of an empty stack and returns its node.
func (r *Router) Root(screen Screen, segment string) (*Node, error) {
	if !r.stack.IsEmpty() {
		return nil, fmt.Errorf("router: root already presented")
	}
	fn, ok := r.screens[screen]
	if !ok {
		return nil, fmt.Errorf("router: screen %d not registered", screen)
	}

	params := Params{}
	model, err := fn(params)
	if err != nil {
		return nil, fmt.Errorf("router: screen %d error: %w", screen, err)
	}

	return r.push(screen, segment, params, model, false), nil
}

// Stack returns the presentation stack.
func (r *Router) Stack() *Stack {
	return r.stack
}

// Top returns the node currently on top, or nil.
func (r *Router) Top() *Node {
	if e := r.stack.Peek(); e != nil {
		return e.Node
	}
	return nil
}

// Path returns the presented segments joined with "/".
func (r *Router) Path() string {
	return strings.Join(r.stack.Segments(), constants.Separator)
}

func (r *Router) match(parent Screen, segment string) (Screen, Params, bool) {
	candidates := r.routes[parent]
	for _, rt := range candidates {
		if rt.pattern == segment {
			return rt.screen, nil, true
		}
	}
	for _, rt := range candidates {
		if name, ok := strings.CutPrefix(rt.pattern, constants.ParamPrefix); ok {
			return rt.screen, Params{name: segment}, true
		}
	}
	return 0, nil, false
}

func (r *Router) push(screen Screen, segment string, params Params, model any, animated bool) *Node {
	node := &Node{router: r, screen: screen, segment: segment, depth: r.stack.Len()}
	r.stack.Push(StackEntry{
		Screen:  screen,
		Segment: segment,
		Params:  params,
		Model:   model,
		Node:    node,
	})
	r.notify(Transition{Kind: TransitionPresent, Screen: screen, Segment: segment, Depth: node.depth, Animated: animated})
	if r.lifecycle != nil {
		r.lifecycle.Appeared(node)
	}
	return node
}

func (r *Router) pop(animated bool) {
	entry := r.stack.Pop()
	if entry == nil {
		return
	}
	r.notify(Transition{Kind: TransitionDismiss, Screen: entry.Screen, Segment: entry.Segment, Depth: entry.Node.depth, Animated: animated})
	if r.lifecycle != nil {
		r.lifecycle.Disappeared(entry.Node)
	}
}

func (r *Router) notify(t Transition) {
	if r.transition != nil {
		r.transition(t)
	}
}

// Node is a presented screen. Nodes compare by identity.
type Node struct {
	router  *Router
	screen  Screen
	segment string
	depth   int
}

// Screen returns the screen this node presents.
func (n *Node) Screen() Screen { return n.screen }

// Segment returns the path segment the node was presented for.
func (n *Node) Segment() string { return n.segment }

// Depth returns the node's position in the presentation stack.
func (n *Node) Depth() int { return n.depth }

// Entry returns the node's stack entry, or nil once it has been dismissed.
func (n *Node) Entry() *StackEntry {
	e := n.router.stack.At(n.depth)
	if e == nil || e.Node != n {
		return nil
	}
	return e
}

// Present implements deeplink.Matchable. Only the top-most node presents;
// the child inherits every parameter captured above it.
func (n *Node) Present(remaining []string, animated bool) deeplink.Matchable {
	r := n.router
	entry := n.Entry()
	if entry == nil || r.stack.Len() != n.depth+1 || len(remaining) == 0 {
		return nil
	}

	segment := remaining[0]
	screen, captured, ok := r.match(n.screen, segment)
	if !ok {
		r.logger.Debug("no route", "parent", n.segment, "segment", segment)
		return nil
	}
	fn, ok := r.screens[screen]
	if !ok {
		r.logger.Warn("route to unregistered screen", "screen", int(screen), "segment", segment)
		return nil
	}

	params := maps.Clone(entry.Params)
	if params == nil {
		params = Params{}
	}
	maps.Copy(params, captured)

	model, err := fn(params)
	if err != nil {
		r.logger.Debug("screen declined", "screen", int(screen), "segment", segment, "error", err)
		return nil
	}

	return r.push(screen, segment, params, model, animated)
}

// Dismiss implements deeplink.Matchable. The node pops everything presented
// above it, provided every child is among those entries and none of the
// entries is locked.
func (n *Node) Dismiss(children []deeplink.StackItem, animated bool) bool {
	r := n.router
	if n.Entry() == nil {
		return false
	}

	above := make(map[*Node]bool)
	for i := n.depth + 1; i < r.stack.Len(); i++ {
		e := r.stack.At(i)
		if r.locked[e.Screen] {
			return false
		}
		above[e.Node] = true
	}
	for _, child := range children {
		c, ok := child.Node.(*Node)
		if !ok || !above[c] {
			return false
		}
	}

	for r.stack.Len() > n.depth+1 {
		r.pop(animated)
	}
	return true
}
