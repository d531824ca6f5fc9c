// Package testing provides an isolated harness for driving widget trees in
// tests: mount a tree, rebuild it, and observe what the framework does,
// without a host platform.
package testing

import (
	"testing"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/platform"
)

// TreeTester drives the same build and reconciliation phases as a real host
// but with a synchronous pump instead of a platform update loop.
type TreeTester struct {
	owner      *core.BuildOwner
	root       core.Element
	dispatches []func()
}

// NewTreeTester creates a tester with a fresh build owner.
// Call Cleanup() when done, or use NewTreeTesterWithT() instead.
func NewTreeTester() *TreeTester {
	t := &TreeTester{
		owner: core.NewBuildOwner(),
	}
	// Route platform.Dispatch through the tester's queue so bridge-driven
	// callbacks are sequenced like frames.
	platform.RegisterDispatch(t.Dispatch)
	return t
}

// NewTreeTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewTreeTesterWithT(t *testing.T) *TreeTester {
	tester := NewTreeTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the tree.
func (t *TreeTester) Cleanup() {
	if t.root != nil {
		t.root.Unmount()
		t.root = nil
	}
}

// Owner returns the build owner driving the tree.
func (t *TreeTester) Owner() *core.BuildOwner {
	return t.owner
}

// Root returns the root element, or nil before the first PumpWidget.
func (t *TreeTester) Root() core.Element {
	return t.root
}

// PumpWidget makes widget the root of the tree and runs one rebuild pass.
// The first call mounts; later calls update the root in place when the
// widget's type and key allow it, and otherwise unmount the old tree and
// mount fresh. Pass the same container type (typically core.Group) each
// time to exercise reconciliation rather than remounting.
func (t *TreeTester) PumpWidget(widget core.Widget) {
	if t.root == nil {
		t.root = core.MountRoot(widget, t.owner)
		t.flush()
		return
	}
	if core.CanUpdate(t.root.Widget(), widget) {
		t.root.Update(widget)
	} else {
		t.root.Unmount()
		t.root = core.MountRoot(widget, t.owner)
	}
	t.flush()
}

// Pump runs one rebuild pass without changing the root widget: queued
// dispatches run first, then dirty elements rebuild.
func (t *TreeTester) Pump() {
	t.flush()
}

// Dispatch queues a callback to run at the start of the next pump, the way
// a host would marshal work onto the tree-owning thread.
func (t *TreeTester) Dispatch(callback func()) {
	if callback == nil {
		return
	}
	t.dispatches = append(t.dispatches, callback)
}

func (t *TreeTester) flush() {
	for len(t.dispatches) > 0 {
		pending := t.dispatches
		t.dispatches = nil
		for _, callback := range pending {
			callback()
		}
	}
	t.owner.FlushBuild()
}

// FindElement walks the tree depth-first and returns the first element
// matching the predicate, or nil.
func (t *TreeTester) FindElement(predicate func(core.Element) bool) core.Element {
	if t.root == nil {
		return nil
	}
	return findElement(t.root, predicate)
}

func findElement(element core.Element, predicate func(core.Element) bool) core.Element {
	if predicate(element) {
		return element
	}
	var found core.Element
	element.VisitChildren(func(child core.Element) bool {
		found = findElement(child, predicate)
		return found == nil
	})
	return found
}

// CountElements walks the tree depth-first and counts elements matching the
// predicate.
func (t *TreeTester) CountElements(predicate func(core.Element) bool) int {
	count := 0
	if t.root == nil {
		return 0
	}
	var walk func(core.Element)
	walk = func(element core.Element) {
		if predicate(element) {
			count++
		}
		element.VisitChildren(func(child core.Element) bool {
			walk(child)
			return true
		})
	}
	walk(t.root)
	return count
}
