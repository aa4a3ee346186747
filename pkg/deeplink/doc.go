// Package deeplink maps slash-separated paths onto a live stack of presented
// UI nodes.
//
// The host registers nodes that implement Matchable and forwards their
// lifecycle signals. Navigator.Open compares the requested path against the
// current stack, dismisses the divergent suffix deepest-first and presents
// the missing segments one at a time. The new stack is published only when
// every step succeeds.
//
// # Basic Usage
//
//	nav := deeplink.New(deeplink.WithLogger(logger))
//
//	// The root container registers itself once it exists.
//	nav.Register(rootNode, "root")
//
//	// Presents "list" on root, then "42" on the list, then "edit" on 42.
//	if !nav.Open("root/list/42/edit", true) {
//	    // Not satisfied yet; the route stays pending and is retried
//	    // whenever a node appears.
//	}
//
//	// Forward lifecycle signals from the UI framework.
//	nav.Appeared(node)
//	nav.Disappeared(node)
//	nav.Released(node)
//
// # Deferred Routes
//
// A route that fails with ErrNotReady or ErrBlocked is kept as the single
// pending route. Every stack growth retries it. A later Open replaces it and
// a successful Open clears it. RetryPolicy can bound the number of retries or
// drop blocked routes immediately; the zero policy retries forever.
//
// # Threading
//
// Navigator, Registry, Reconciler and Scheduler are not safe for concurrent
// use. Marshal every call onto one goroutine, for example with dispatch.Loop.
package deeplink
