package lifecycle

import (
	"github.com/go-drift/arbor/pkg/core"
)

// removalMarker is the state object hosted by an OnRemove element. It exists
// for exactly as long as the instrumented node is present in the tree; on
// the teardown tier its disposal is the removal signal.
//
// Lifecycle per attachment: the marker either acquires a tracker at mount
// (Attached), stays inert forever (no identity, nil callback, or shadowed by
// an outer attachment), or fires once and retires. Nothing is carried over
// if the same identity is re-identified later; that is a fresh marker with
// its own lifecycle.
type removalMarker struct {
	core.StateBase
	tracker tracker
}

func (m *removalMarker) InitState() {
	widget := m.Element().Widget().(OnRemove)
	identity := widget.Key()
	if identity == nil || widget.Do == nil {
		// No identity binding (or nothing to call): silently abandoned.
		return
	}
	m.tracker = attachTracker(attachment{
		registry: sharedRegistry,
		identity: identity,
		callback: widget.Do,
		tag:      widget.Tag,
		marker:   m,
	})
}

func (m *removalMarker) Build(ctx core.BuildContext) core.Widget {
	return ctx.Widget().(OnRemove).Child
}

// DidUpdateWidget refreshes the stored callback after an in-place update.
// The element survives only when type and key match, so the identity is
// unchanged and no re-registration happens; re-attaching the same node
// without an intervening removal never duplicates the entry. Updating Do to
// nil clears the stored callback: the slot stays claimed, but nothing runs
// on removal.
func (m *removalMarker) DidUpdateWidget(oldWidget core.StatefulWidget) {
	if m.tracker == nil {
		return
	}
	widget := m.Element().Widget().(OnRemove)
	m.tracker.update(widget.Do, widget.Tag)
}

// Dispose routes teardown to the tracker. On the teardown tier this is the
// removal signal; a marker that never attached resolves to nothing.
func (m *removalMarker) Dispose() {
	if m.tracker != nil {
		m.tracker.teardown()
	}
	m.StateBase.Dispose()
}
