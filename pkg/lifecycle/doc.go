// Package lifecycle detects the removal of identified nodes from the widget
// tree and runs a caller-supplied callback exactly once when it happens.
//
// The tree is rebuilt wholesale on every pass; the framework never raises a
// "this node was removed" event. What it does expose is identity correlation
// (a widget key matches a node across rebuilds) and child teardown (an
// element whose identity is absent from the new pass is unmounted, and its
// state disposed). This package turns those two primitives into a removal
// signal:
//
//	tree := core.Group{Children: []core.Widget{
//	    lifecycle.OnRemove{
//	        Do:    func() { log.Println("card gone") },
//	        Child: core.Identify(card, "card-1"),
//	    },
//	}}
//
// When a later rebuild no longer contains a child keyed "card-1", the
// callback runs once, synchronously, before the next rebuild begins.
//
// Hosts on platform.TierTransitions deliver a native appear/disappear signal
// scoped to the identity; there the callback is driven by the host event
// instead of marker teardown. The strategy is chosen once at attachment and
// an inconclusive capability probe always selects the teardown-based one.
//
// Only the outermost OnRemove wrapping a given identity takes effect. Inner
// attachments on the same identity find the registry slot occupied and stay
// inert. A node whose subtree carries no key never fires; that is a
// documented limitation, not an error.
//
// A panicking callback is reported through the framework error channel
// (pkg/errors); the mechanism neither wraps nor suppresses it beyond that.
package lifecycle
