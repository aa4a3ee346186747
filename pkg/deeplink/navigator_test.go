package deeplink

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNavigator(opts ...Option) *Navigator {
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return New(opts...)
}

func TestNavigatorOpenFromRoot(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	root := newFakeNode("root", log)

	_, err := nav.Register(root, "root")
	require.NoError(t, err)

	assert.True(t, nav.Open("root/list/42/edit", true))
	assert.Equal(t, Path{"root", "list", "42", "edit"}, nav.Stack().Path())
	assert.Equal(t, []string{
		"present root [list 42 edit]",
		"present list [42 edit]",
		"present 42 [edit]",
	}, log.calls)

	log.reset()
	assert.True(t, nav.Open("/root/list/42/edit/", true))
	assert.Empty(t, log.calls, "reopening the current path calls no node")
}

func TestNavigatorDeferredRetryOnRegister(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}

	assert.False(t, nav.Open("a/b", true))
	route, ok := nav.Pending()
	require.True(t, ok)
	assert.Equal(t, Path{"a", "b"}, route.Path)
	assert.True(t, route.Animated)

	_, err := nav.Register(newFakeNode("a", log), "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"present a [b]"}, log.calls)
	assert.Equal(t, Path{"a", "b"}, nav.Stack().Path())
	assert.Equal(t, StateIdle, nav.State())
}

func TestNavigatorSinglePendingRoute(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}

	assert.False(t, nav.Open("a/first", true))
	assert.False(t, nav.Open("a/second", false))

	route, ok := nav.Pending()
	require.True(t, ok)
	assert.Equal(t, Path{"a", "second"}, route.Path)

	_, err := nav.Register(newFakeNode("a", log), "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"present a [second]"}, log.calls)
	assert.Equal(t, Path{"a", "second"}, nav.Stack().Path())
}

func TestNavigatorRootMismatch(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	a := newFakeNode("a", log)
	_, err := nav.Register(a, "a")
	require.NoError(t, err)
	require.True(t, nav.Open("a/b", true))
	log.reset()

	err = nav.Navigate("z", true)
	assert.True(t, IsNotReady(err))
	assert.False(t, nav.Open("z", true))
	assert.Empty(t, log.calls)
	assert.Equal(t, Path{"a", "b"}, nav.Stack().Path())
	assert.Equal(t, StatePending, nav.State())
}

func TestNavigatorInvalidPathIsNotScheduled(t *testing.T) {
	nav := newTestNavigator()

	assert.ErrorIs(t, nav.Navigate("//", true), ErrInvalidPath)
	assert.Equal(t, StateIdle, nav.State())

	_, err := nav.Register(newFakeNode("a", &callLog{}), "")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = nav.Register(nil, "a")
	assert.ErrorIs(t, err, ErrNilNode)

	var typed *fakeNode
	_, err = nav.Register(typed, "a")
	assert.ErrorIs(t, err, ErrNilNode)
	assert.True(t, nav.Stack().IsEmpty())

	assert.ErrorIs(t, nav.NavigateURL("app://", true), ErrInvalidPath)
	assert.ErrorIs(t, nav.NavigateURL("app://a/%zz", true), ErrInvalidPath)
	assert.Equal(t, StateIdle, nav.State())
}

func TestNavigatorNavigateURL(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	_, err := nav.Register(newFakeNode("a", log), "a")
	require.NoError(t, err)

	require.True(t, nav.OpenURL("app://a/b/c?ref=mail#top", true))
	assert.Equal(t, Path{"a", "b", "c"}, nav.Stack().Path())
	assert.Equal(t, []string{"present a [b c]", "present b [c]"}, log.calls)

	// Plain paths keep query characters as segment text.
	log.reset()
	require.True(t, nav.Open("a/b?x", true))
	assert.Equal(t, Path{"a", "b?x"}, nav.Stack().Path())
}

func TestNavigatorSuccessCancelsPending(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	a := newFakeNode("a", log)
	a.declinePresent["locked"] = true
	_, err := nav.Register(a, "a")
	require.NoError(t, err)

	assert.True(t, IsBlocked(nav.Navigate("a/locked", true)))
	assert.Equal(t, StatePending, nav.State())

	assert.True(t, nav.Open("a/open", true))
	assert.Equal(t, StateIdle, nav.State())
}

func TestNavigatorGiveUpOnBlocked(t *testing.T) {
	nav := newTestNavigator(WithRetryPolicy(RetryPolicy{GiveUpOnBlocked: true}))
	a := newFakeNode("a", &callLog{})
	a.declinePresent["locked"] = true
	_, err := nav.Register(a, "a")
	require.NoError(t, err)

	require.False(t, nav.Open("missing/root", true))
	require.Equal(t, StatePending, nav.State())

	err = nav.Navigate("a/locked", true)
	assert.ErrorIs(t, err, ErrGaveUp)
	assert.True(t, IsBlocked(err))
	assert.Equal(t, StateIdle, nav.State(), "an abandoned route also drops the older one")

	// Deferred failures are returned unwrapped.
	err = nav.Navigate("missing/root", true)
	assert.True(t, IsNotReady(err))
	assert.NotErrorIs(t, err, ErrGaveUp)
}

func TestNavigatorReleasedNodeIsAbsent(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	root := newFakeNode("a", log)
	_, err := nav.Register(root, "a")
	require.NoError(t, err)
	require.True(t, nav.Open("a/b/c", true))

	b := nav.Stack()[1].Node
	nav.Released(b)
	assert.Equal(t, Path{"a", "c"}, nav.Stack().Path())

	log.reset()
	require.True(t, nav.Open("a/b", true))
	assert.Equal(t, []string{"dismiss a [c]", "present a [b]"}, log.calls)
	assert.NotSame(t, b, nav.Stack()[1].Node)
}

func TestNavigatorDisappearedAndReappeared(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	_, err := nav.Register(newFakeNode("a", log), "a")
	require.NoError(t, err)
	require.True(t, nav.Open("a/b", true))

	b := nav.Stack()[1].Node
	nav.Disappeared(b)
	assert.Equal(t, Path{"a"}, nav.Stack().Path())

	nav.Appeared(b)
	assert.Equal(t, Path{"a", "b"}, nav.Stack().Path())
}

func TestNavigatorAppearedKeepsPosition(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	_, err := nav.Register(newFakeNode("a", log), "a")
	require.NoError(t, err)
	require.True(t, nav.Open("a/b/c", true))

	// Late appearance of an intermediate node must not reorder the stack.
	nav.Appeared(nav.Stack()[1].Node)
	assert.Equal(t, Path{"a", "b", "c"}, nav.Stack().Path())

	// Unknown nodes are ignored.
	nav.Appeared(newFakeNode("stranger", log))
	nav.Disappeared(newFakeNode("stranger", log))
	nav.Released(newFakeNode("stranger", log))
	assert.Equal(t, Path{"a", "b", "c"}, nav.Stack().Path())
}

func TestNavigatorAppearanceRetriesPending(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	root := newFakeNode("a", log)
	_, err := nav.Register(root, "a")
	require.NoError(t, err)
	require.True(t, nav.Open("a/b", true))

	b := nav.Stack()[1].Node
	nav.Disappeared(b)
	root.declinePresent["b"] = true

	assert.False(t, nav.Open("a/b/c", true))
	require.Equal(t, StatePending, nav.State())

	log.reset()
	nav.Appeared(b)
	assert.Equal(t, []string{"present b [c]"}, log.calls)
	assert.Equal(t, Path{"a", "b", "c"}, nav.Stack().Path())
	assert.Equal(t, StateIdle, nav.State())
}

func TestNavigatorReentrantOpenIsDropped(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	root := newFakeNode("a", log)

	var nested error
	root.onPresent = func(child *fakeNode) {
		nested = nav.Navigate("a/other", true)
	}
	_, err := nav.Register(root, "a")
	require.NoError(t, err)

	assert.True(t, nav.Open("a/b", true))
	assert.ErrorIs(t, nested, ErrBusy)
	assert.Equal(t, Path{"a", "b"}, nav.Stack().Path())
	assert.Equal(t, StateIdle, nav.State(), "busy requests are not scheduled")
}

func TestNavigatorLifecycleDuringPresent(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	root := newFakeNode("a", log)
	root.onPresent = func(child *fakeNode) {
		// Host registers the new node itself before returning it.
		_, err := nav.Register(child, "a/"+child.name)
		assert.NoError(t, err)
	}
	_, err := nav.Register(root, "a")
	require.NoError(t, err)

	assert.True(t, nav.Open("a/b", true))
	stack := nav.Stack()
	assert.Equal(t, Path{"a", "b"}, stack.Path())
	assert.Len(t, stack, 2)
}

func TestNavigatorAppearedDuringFailedBuildUp(t *testing.T) {
	nav := newTestNavigator()
	log := &callLog{}
	root := newFakeNode("a", log)
	root.onPresent = func(child *fakeNode) {
		child.declinePresent["c"] = true
		nav.Appeared(child)
	}
	_, err := nav.Register(root, "a")
	require.NoError(t, err)

	err = nav.Navigate("a/b/c", true)
	require.True(t, IsBlocked(err))
	assert.Equal(t, Path{"a", "b"}, nav.Stack().Path(), "b appeared while being presented")

	require.NoError(t, nav.Navigate("a/b", true))
	require.NoError(t, nav.Navigate("a", true))
	assert.Equal(t, Path{"a"}, nav.Stack().Path())
	assert.Equal(t, "dismiss a [b]", log.calls[len(log.calls)-1])
}

func TestNavigatorDisappearedDuringFailedBuildUp(t *testing.T) {
	nav := newTestNavigator()
	root := newFakeNode("a", &callLog{})
	root.onPresent = func(child *fakeNode) {
		child.declinePresent["c"] = true
		nav.Appeared(child)
		nav.Disappeared(child)
	}
	_, err := nav.Register(root, "a")
	require.NoError(t, err)

	require.Error(t, nav.Navigate("a/b/c", true))
	assert.Equal(t, Path{"a"}, nav.Stack().Path())
}

func TestNavigatorCancel(t *testing.T) {
	nav := newTestNavigator()
	assert.False(t, nav.Open("a", true))
	nav.Cancel()
	assert.Equal(t, StateIdle, nav.State())

	_, err := nav.Register(newFakeNode("a", &callLog{}), "a")
	require.NoError(t, err)
	assert.Equal(t, Path{"a"}, nav.Stack().Path())
}

func TestNavigatorClose(t *testing.T) {
	nav := newTestNavigator()
	a := newFakeNode("a", &callLog{})
	_, err := nav.Register(a, "a")
	require.NoError(t, err)
	assert.False(t, nav.Open("z", true))

	nav.Close()
	nav.Close()

	assert.True(t, nav.Stack().IsEmpty())
	assert.Equal(t, StateIdle, nav.State())
	assert.ErrorIs(t, nav.Navigate("a", true), ErrClosed)
	_, err = nav.Register(a, "a")
	assert.ErrorIs(t, err, ErrClosed)
	nav.Appeared(a)
	assert.True(t, nav.Stack().IsEmpty())
}
