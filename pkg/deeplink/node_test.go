package deeplink

import (
	"fmt"
	"strings"
)

// callLog records Present/Dismiss calls across a tree of fake nodes.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) reset() {
	l.calls = nil
}

// fakeNode is a Matchable that presents any segment unless told otherwise.
type fakeNode struct {
	name string
	log  *callLog

	declinePresent map[string]bool
	refuseDismiss  bool

	// onPresent runs after a child is created, before it is returned.
	onPresent func(child *fakeNode)

	children []*fakeNode
}

func newFakeNode(name string, log *callLog) *fakeNode {
	return &fakeNode{name: name, log: log, declinePresent: make(map[string]bool)}
}

func (n *fakeNode) Present(remaining []string, animated bool) Matchable {
	n.log.add("present %s [%s]", n.name, strings.Join(remaining, " "))
	if n.declinePresent[remaining[0]] {
		return nil
	}
	child := newFakeNode(remaining[0], n.log)
	n.children = append(n.children, child)
	if n.onPresent != nil {
		n.onPresent(child)
	}
	return child
}

func (n *fakeNode) Dismiss(children []StackItem, animated bool) bool {
	segs := make([]string, len(children))
	for i, c := range children {
		segs[i] = c.Segment
	}
	n.log.add("dismiss %s [%s]", n.name, strings.Join(segs, " "))
	return !n.refuseDismiss
}

// seed attaches one fake node per segment and appends them to r.
func seed(r *Registry, log *callLog, segments ...string) []*fakeNode {
	nodes := make([]*fakeNode, len(segments))
	for i, seg := range segments {
		nodes[i] = newFakeNode(seg, log)
		h := r.Attach(nodes[i])
		r.Add(StackItem{Segment: seg, Handle: h, Node: nodes[i]})
	}
	return nodes
}
