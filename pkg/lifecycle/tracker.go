package lifecycle

import (
	"sync"

	"github.com/go-drift/arbor/pkg/platform"
)

// attachment carries everything a tracker needs to wire itself up.
type attachment struct {
	registry *Registry
	identity any
	callback func()
	tag      string
	marker   *removalMarker
}

// tracker is one removal-detection strategy bound to a single attachment.
type tracker interface {
	// update replaces the callback and tag after an in-place widget update.
	update(callback func(), tag string)

	// teardown is invoked when the hosting element is unmounted.
	teardown()
}

// legacyTracker infers removal from child-lifecycle teardown: the marker is
// owned by the instrumented element, the tree engine discards it together
// with the subtree when the identity goes missing on a rebuild, and its
// disposal is routed back through the registry.
type legacyTracker struct {
	registry *Registry
	entry    *entry
	marker   *removalMarker
}

func newLegacyTracker(att attachment) tracker {
	e := att.registry.register(att.identity, att.callback, att.tag, platform.TierLegacy, att.marker)
	if e == nil {
		return nil
	}
	return &legacyTracker{registry: att.registry, entry: e, marker: att.marker}
}

func (t *legacyTracker) update(callback func(), tag string) {
	t.registry.update(t.entry, callback, tag)
}

func (t *legacyTracker) teardown() {
	t.registry.markerTeardown(t.marker)
}

// modernTracker subscribes to the host's native transition signal for the
// identity. The host performs the identity correlation, so no marker
// participates: a disappeared event settles the entry through the registry
// and the subscription is dropped once the entry is finished. An unmatched
// disappeared (no prior appeared) still fires; the registry's state machine
// suppresses any double fire.
type modernTracker struct {
	registry *Registry
	entry    *entry

	mu     sync.Mutex
	cancel func()
}

func newModernTracker(att attachment) tracker {
	e := att.registry.register(att.identity, att.callback, att.tag, platform.TierTransitions, nil)
	if e == nil {
		return nil
	}
	t := &modernTracker{registry: att.registry, entry: e}
	// Hold the lock across registration so an event racing in on the
	// bridge goroutine waits until the cancel is recorded.
	t.mu.Lock()
	t.cancel = platform.Transitions.Watch(identityString(att.identity), func(phase platform.TransitionPhase) {
		if phase != platform.PhaseDisappeared {
			return
		}
		settle := func() {
			if t.registry.hostDisappeared(t.entry) {
				t.releaseWatch()
			}
		}
		// Transition events arrive off the host bridge; hop to the
		// tree-owning thread when a dispatcher is available.
		if !platform.Dispatch(settle) {
			settle()
		}
	})
	t.mu.Unlock()
	att.registry.setRelease(e, t.releaseWatch)
	return t
}

func (t *modernTracker) releaseWatch() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (t *modernTracker) update(callback func(), tag string) {
	t.registry.update(t.entry, callback, tag)
}

// teardown marks the entry engine-detached rather than firing it: on this
// tier the host owns the removal signal. A re-attachment of the same
// identity may adopt the slot while that signal is still in flight.
func (t *modernTracker) teardown() {
	t.registry.markDetached(t.entry)
}
