package core

// MountRoot inflates widget and mounts it as a tree root with no parent.
func MountRoot(widget Widget, owner *BuildOwner) Element {
	element := inflateWidget(widget, owner)
	if element == nil {
		return nil
	}
	element.Mount(nil, nil)
	return element
}

// CanUpdate reports whether an element hosting existing can be updated in
// place with next (same dynamic type, equal key).
func CanUpdate(existing, next Widget) bool {
	return canUpdateWidget(existing, next)
}
