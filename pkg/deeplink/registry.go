package deeplink

// slot is the stored form of a stack item. The registry never keeps a node
// reference in its stack; nodes live in the arena table until released.
type slot struct {
	segment string
	handle  Handle
}

// Registry owns the current stack and the arena of attached nodes.
//
// Nodes are keyed by identity, so they must be comparable values (normally
// pointers). A released handle stays in the stored stack until the next
// mutation, but never appears in a Snapshot.
//
// Registry is not safe for concurrent use; see the dispatch package.
type Registry struct {
	nodes   map[Handle]Matchable
	handles map[Matchable]Handle
	next    Handle
	slots   []slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:   make(map[Handle]Matchable),
		handles: make(map[Matchable]Handle),
		slots:   make([]slot, 0),
	}
}

// Attach returns the handle for node, allocating one on first sight.
func (r *Registry) Attach(node Matchable) Handle {
	if h, ok := r.handles[node]; ok {
		return h
	}
	r.next++
	h := r.next
	r.nodes[h] = node
	r.handles[node] = h
	return h
}

// Lookup returns the handle of an attached node.
func (r *Registry) Lookup(node Matchable) (Handle, bool) {
	h, ok := r.handles[node]
	return h, ok
}

// Resolve returns the live node for h.
func (r *Registry) Resolve(h Handle) (Matchable, bool) {
	node, ok := r.nodes[h]
	return node, ok
}

// Release marks h dead. The registry drops its reference to the node and
// every item keyed to h disappears from subsequent snapshots.
func (r *Registry) Release(h Handle) {
	node, ok := r.nodes[h]
	if !ok {
		return
	}
	delete(r.nodes, h)
	delete(r.handles, node)
}

// Add appends items, first removing any stored item whose handle matches an
// incoming one. Items with released handles are ignored.
func (r *Registry) Add(items ...StackItem) {
	r.prune()
	for _, item := range items {
		if _, live := r.nodes[item.Handle]; !live {
			continue
		}
		r.removeHandle(item.Handle)
		r.slots = append(r.slots, slot{segment: item.Segment, handle: item.Handle})
	}
}

// RemoveWhere removes and returns every live item for which match is true.
func (r *Registry) RemoveWhere(match func(StackItem) bool) []StackItem {
	r.prune()
	var removed []StackItem
	kept := r.slots[:0]
	for _, s := range r.slots {
		item := r.item(s)
		if match(item) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, s)
	}
	r.slots = kept
	return removed
}

// Snapshot returns the live items without mutating the stored stack.
func (r *Registry) Snapshot() Stack {
	out := make(Stack, 0, len(r.slots))
	for _, s := range r.slots {
		if _, live := r.nodes[s.handle]; !live {
			continue
		}
		out = append(out, r.item(s))
	}
	return out
}

// Replace publishes stack as the registry's contents. Items whose handle is
// not live, because it was released or never attached, are dropped.
func (r *Registry) Replace(stack Stack) {
	slots := make([]slot, 0, len(stack))
	for _, item := range stack {
		if _, live := r.nodes[item.Handle]; !live {
			continue
		}
		slots = append(slots, slot{segment: item.Segment, handle: item.Handle})
	}
	r.slots = slots
}

// Len returns the number of live items.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.slots {
		if _, live := r.nodes[s.handle]; live {
			n++
		}
	}
	return n
}

func (r *Registry) item(s slot) StackItem {
	return StackItem{Segment: s.segment, Handle: s.handle, Node: r.nodes[s.handle]}
}

func (r *Registry) removeHandle(h Handle) {
	kept := r.slots[:0]
	for _, s := range r.slots {
		if s.handle != h {
			kept = append(kept, s)
		}
	}
	r.slots = kept
}

// prune drops released items from the stored stack.
func (r *Registry) prune() {
	kept := r.slots[:0]
	for _, s := range r.slots {
		if _, live := r.nodes[s.handle]; live {
			kept = append(kept, s)
		}
	}
	r.slots = kept
}
