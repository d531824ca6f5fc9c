package lifecycle

import (
	"fmt"
	"runtime"

	"github.com/go-drift/arbor/pkg/core"
)

// OnRemove attaches a removal callback to the identity carried by its child.
// The callback runs exactly once, on the tree-owning thread, at the moment a
// rebuild no longer contains that identity.
//
//	lifecycle.OnRemove{
//	    Do:    func() { releaseResources() },
//	    Tag:   lifecycle.CallSite(),
//	    Child: core.Identify(card, cardID),
//	}
//
// The identity is the child's reconciliation key. A child without a key
// makes the attachment inert: the callback will never fire. When several
// OnRemove wrappers chain over one identity, only the outermost takes
// effect; inner ones are shadowed.
type OnRemove struct {
	// Do is the removal callback. Nil at attach time makes the attachment
	// inert; clearing it on a later in-place update keeps the identity
	// claimed but runs nothing on removal.
	Do func()
	// Tag is an optional call-site label carried through diagnostics. It
	// never participates in identity comparison.
	Tag string
	// Child is the identified subtree being watched.
	Child core.Widget
}

// CreateElement returns a new StatefulElement.
func (w OnRemove) CreateElement() core.Element { return &core.StatefulElement{} }

// Key forwards the child's key, so the wrapper itself occupies the child's
// identity-keyed slot in the tree. A chained OnRemove forwards recursively
// and the whole chain shares one identity.
func (w OnRemove) Key() any { return core.WidgetKey(w.Child) }

// CreateState returns the marker state that carries the attachment.
func (w OnRemove) CreateState() core.State { return &removalMarker{} }

// CallSite returns a "file:line" label for the caller, for use as an
// OnRemove.Tag. Purely diagnostic.
func CallSite() string {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}
