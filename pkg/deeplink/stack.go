package deeplink

// Matchable is implemented by live UI nodes that can be addressed by path.
//
// Both calls run synchronously on the coordination context and must return
// immediately with their result.
type Matchable interface {
	// Present creates and presents the node for remaining[0]. remaining holds
	// every segment still to be built, so a node may pre-load deeper content.
	// Returns nil if the node cannot present the segment.
	Present(remaining []string, animated bool) Matchable

	// Dismiss removes the given descendants (ordered root-most first) and
	// reports whether it handled all of them.
	Dismiss(children []StackItem, animated bool) bool
}

// Handle is an opaque key for a node attached to a Registry.
type Handle uint64

// StackItem pairs a path segment with the node presenting it.
type StackItem struct {
	Segment string
	Handle  Handle
	Node    Matchable
}

// Stack is an ordered sequence of items. Index 0 is the root.
type Stack []StackItem

// Path returns the segments the stack currently materializes.
func (s Stack) Path() Path {
	p := make(Path, len(s))
	for i, item := range s {
		p[i] = item.Segment
	}
	return p
}

// Peek returns the deepest item, or nil if the stack is empty.
func (s Stack) Peek() *StackItem {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// IsEmpty returns true if the stack has no items.
func (s Stack) IsEmpty() bool {
	return len(s) == 0
}

// Index returns the position of the item keyed to h, or -1.
func (s Stack) Index(h Handle) int {
	for i, item := range s {
		if item.Handle == h {
			return i
		}
	}
	return -1
}

// Clone returns a copy that does not share the backing array.
func (s Stack) Clone() Stack {
	if s == nil {
		return nil
	}
	out := make(Stack, len(s))
	copy(out, s)
	return out
}
