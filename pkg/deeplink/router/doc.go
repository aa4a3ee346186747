// Package router provides an in-memory UI host whose screens can be reached
// by deep link.
//
// Screens are registered with the function that builds their model and
// wired into a tree of segment patterns. Every presented screen is a *Node,
// which implements deeplink.Matchable, so a deeplink.Navigator can drive the
// router directly. The router reports presentations and dismissals to an
// optional Lifecycle (normally the Navigator) and to an OnTransition
// observer.
//
// # Basic Usage
//
//	// Define screen identifiers as typed constants
//	const (
//	    ScreenHome Screen = iota
//	    ScreenList
//	    ScreenDetail
//	)
//
//	r := router.New()
//
//	r.Register(ScreenHome, func(router.Params) (any, error) { return HomeModel{}, nil })
//	r.Register(ScreenList, func(router.Params) (any, error) { return loadList() })
//	r.Register(ScreenDetail, func(p router.Params) (any, error) {
//	    return loadItem(p["id"])
//	})
//
//	// "home/list/:id" becomes reachable
//	r.Route(ScreenHome, "list", ScreenList).
//	    Route(ScreenList, ":id", ScreenDetail)
//
//	nav := deeplink.New()
//	r.Observe(nav)
//
//	root, _ := r.Root(ScreenHome, "home")
//	nav.Register(root, "home")
//
//	nav.Open("home/list/42", true)
//
// # Presentation Semantics
//
// Only the top-most node presents. Dismissing on a node pops everything
// presented above it, like a modal presentation stack. Locked screens refuse
// to be dismissed, which surfaces as deeplink.ErrBlocked.
package router
