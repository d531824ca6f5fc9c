package core

// Group is a container widget with an ordered list of children. It is the
// branching primitive of the tree: rebuilding a Group with a different child
// list is how nodes appear and disappear.
//
// Children with a non-nil key are matched against the previous pass by key,
// so reorders update elements in place. Unkeyed children are matched by
// position. Nil children are skipped.
type Group struct {
	// GroupKey is the reconciliation key for the group itself.
	GroupKey any
	// Children are the child widgets, rebuilt every pass.
	Children []Widget
}

// CreateElement returns a new GroupElement.
func (g Group) CreateElement() Element { return &GroupElement{} }

// Key returns the group's own reconciliation key.
func (g Group) Key() any { return g.GroupKey }

// Identified stamps a stable identity onto a child widget. It is the binding
// primitive removal detection requires: a node correlates across rebuilds
// only if it carries a key, and Identified gives a key to a child that has
// none of its own.
//
//	core.Identify(profileCard, "user-42")
type Identified struct {
	// As is the identity. It must be comparable and unique within the
	// enclosing scope.
	As any
	// Child is the widget being identified.
	Child Widget
}

// CreateElement returns a new StatelessElement.
func (i Identified) CreateElement() Element { return &StatelessElement{} }

// Key returns the identity.
func (i Identified) Key() any { return i.As }

// Build returns the wrapped child.
func (i Identified) Build(ctx BuildContext) Widget { return i.Child }

// Identify wraps child so it carries key as its identity across rebuilds.
func Identify(child Widget, key any) Widget {
	return Identified{As: key, Child: child}
}

// WidgetKey returns the reconciliation key of w, or nil if w is nil or
// carries no key.
func WidgetKey(w Widget) any {
	if w == nil {
		return nil
	}
	return w.Key()
}
