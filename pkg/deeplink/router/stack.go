package router

// StackEntry represents a single presented screen.
// It stores the screen identifier, the segment it was presented for,
// the parameters captured along the path and the model its ScreenFunc built.
type StackEntry struct {
	Screen  Screen
	Segment string
	Params  Params
	Model   any
	Node    *Node
}

// Stack is the host's presentation stack. Entry 0 is the root screen.
type Stack struct {
	entries []StackEntry
}

// NewStack creates a new empty presentation stack.
func NewStack() *Stack {
	return &Stack{
		entries: make([]StackEntry, 0),
	}
}

// Push adds a new entry to the stack.
// Called when a screen is presented on top of the current one.
func (s *Stack) Push(entry StackEntry) {
	s.entries = append(s.entries, entry)
}

// Pop removes and returns the top entry from the stack.
// Returns nil if the stack is empty.
func (s *Stack) Pop() *StackEntry {
	if len(s.entries) == 0 {
		return nil
	}
	entry := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return &entry
}

// Peek returns the top entry without removing it.
// Returns nil if the stack is empty.
func (s *Stack) Peek() *StackEntry {
	if len(s.entries) == 0 {
		return nil
	}
	return &s.entries[len(s.entries)-1]
}

// At returns the entry at depth i, or nil if out of range.
func (s *Stack) At(i int) *StackEntry {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return &s.entries[i]
}

// IsEmpty returns true if the stack has no entries.
func (s *Stack) IsEmpty() bool {
	return len(s.entries) == 0
}

// Len returns the number of entries in the stack.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Segments returns the segment of every entry, root first.
func (s *Stack) Segments() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Segment
	}
	return out
}

// Clear removes all entries from the stack.
func (s *Stack) Clear() {
	s.entries = s.entries[:0]
}
