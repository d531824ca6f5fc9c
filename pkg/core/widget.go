// Package core provides the core widget and element framework.
package core

// Widget is an immutable description of one node in the tree. A widget is
// rebuilt wholesale on every pass; the framework correlates it with the
// previous pass through its type and key.
type Widget interface {
	// CreateElement instantiates the element that will host this widget.
	CreateElement() Element

	// Key returns the reconciliation key for this widget, or nil.
	// Two widgets of the same type with equal keys describe the same
	// logical node across rebuilds.
	Key() any
}

// StatelessWidget builds a child subtree from its own configuration.
type StatelessWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// StatefulWidget owns mutable state that survives rebuilds.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State holds the mutable state for a StatefulWidget.
type State interface {
	// InitState is called once after the state is attached to its element.
	InitState()

	// Build produces the child subtree.
	Build(ctx BuildContext) Widget

	// DidUpdateWidget is called when the element is updated in place with a
	// new widget configuration of the same type and key.
	DidUpdateWidget(oldWidget StatefulWidget)

	// Dispose is called when the element is removed from the tree. This is
	// the only teardown signal the framework delivers.
	Dispose()
}

// BuildContext gives build methods access to the element hosting them.
type BuildContext interface {
	// Widget returns the widget configuration for this element.
	Widget() Widget

	// FindAncestor walks up the tree and returns the first element matching
	// the predicate, or nil.
	FindAncestor(predicate func(Element) bool) Element
}

// Element is a live node in the tree. Elements persist across rebuilds as
// long as their widget can be updated in place; otherwise they are unmounted
// and replaced.
type Element interface {
	BuildContext

	// Mount attaches the element under parent and performs the first build.
	Mount(parent Element, slot any)

	// Update replaces the widget configuration and schedules a rebuild.
	Update(newWidget Widget)

	// Unmount detaches the element, its children and any state it owns.
	Unmount()

	// RebuildIfNeeded rebuilds the subtree if it was marked dirty.
	RebuildIfNeeded()

	// Depth returns the distance from the root.
	Depth() int

	// MarkNeedsBuild marks this element dirty for the next build pass.
	MarkNeedsBuild()

	// VisitChildren calls visitor for each child until it returns false.
	VisitChildren(visitor func(Element) bool)
}

// StatelessBase provides default CreateElement and Key implementations for
// stateless widgets. Embed it in your widget struct to satisfy the Widget
// interface without boilerplate:
//
//	type Greeting struct {
//	    core.StatelessBase
//	    Name string
//	}
//
//	func (g Greeting) Build(ctx core.BuildContext) core.Widget {
//	    return Label{Text: "Hello, " + g.Name}
//	}
type StatelessBase struct{}

// CreateElement returns a new StatelessElement.
func (StatelessBase) CreateElement() Element { return &StatelessElement{} }

// Key returns nil (no key).
func (StatelessBase) Key() any { return nil }

// StatefulBase provides default CreateElement and Key implementations for
// stateful widgets. Embed it in your widget struct to satisfy the Widget
// interface without boilerplate:
//
//	type Counter struct {
//	    core.StatefulBase
//	}
//
//	func (Counter) CreateState() core.State { return &counterState{} }
type StatefulBase struct{}

// CreateElement returns a new StatefulElement.
func (StatefulBase) CreateElement() Element { return &StatefulElement{} }

// Key returns nil (no key).
func (StatefulBase) Key() any { return nil }
