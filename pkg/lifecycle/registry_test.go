package lifecycle

import (
	"testing"

	"github.com/go-drift/arbor/pkg/platform"
)

func newTestRegistry() *Registry {
	return NewRegistry()
}

func TestRegister_ClaimsSlot(t *testing.T) {
	r := newTestRegistry()
	marker := &removalMarker{}

	e := r.register("X", func() {}, "", platform.TierLegacy, marker)
	if e == nil {
		t.Fatal("expected registration to succeed")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", r.Len())
	}
}

func TestRegister_SecondAttachmentIsShadowed(t *testing.T) {
	r := newTestRegistry()

	first := r.register("X", func() {}, "", platform.TierLegacy, &removalMarker{})
	second := r.register("X", func() {}, "", platform.TierLegacy, &removalMarker{})

	if first == nil {
		t.Fatal("expected first registration to succeed")
	}
	if second != nil {
		t.Fatal("expected second registration to be refused")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", r.Len())
	}
}

func TestRegister_AdoptsDetachedEntry(t *testing.T) {
	r := newTestRegistry()

	var firstFired, secondFired, released int
	first := r.register("X", func() { firstFired++ }, "", platform.TierTransitions, nil)
	r.setRelease(first, func() { released++ })
	r.markDetached(first)

	second := r.register("X", func() { secondFired++ }, "", platform.TierTransitions, nil)
	if second != first {
		t.Fatal("expected the new attachment to adopt the detached entry")
	}
	if released != 1 {
		t.Fatalf("expected the superseded watch to be released, got %d", released)
	}
	if r.Len() != 1 {
		t.Fatalf("expected a single live entry, got %d", r.Len())
	}

	// Host events settle superseded attachments first, then the entry.
	if done := r.hostDisappeared(second); done {
		t.Fatal("expected the entry to stay live after settling the predecessor")
	}
	if firstFired != 1 || secondFired != 0 {
		t.Fatalf("expected the predecessor to settle first, got first=%d second=%d", firstFired, secondFired)
	}

	if done := r.hostDisappeared(second); !done {
		t.Fatal("expected the entry to be finished")
	}
	if secondFired != 1 {
		t.Errorf("expected the adopting attachment to fire, got %d", secondFired)
	}
	if r.Len() != 0 {
		t.Errorf("expected eviction, got %d live", r.Len())
	}
}

func TestHostDisappeared_FiredEntryIsFinished(t *testing.T) {
	r := newTestRegistry()

	e := r.register("X", func() {}, "", platform.TierTransitions, nil)
	r.fire(e)

	if done := r.hostDisappeared(e); !done {
		t.Error("expected a settled entry to report finished")
	}
}

func TestFire_IsOneShotAndEvicts(t *testing.T) {
	r := newTestRegistry()

	fired := 0
	e := r.register("X", func() { fired++ }, "", platform.TierLegacy, nil)

	r.fire(e)
	r.fire(e)
	r.fire(e)

	if fired != 1 {
		t.Errorf("expected exactly 1 fire, got %d", fired)
	}
	if r.Len() != 0 {
		t.Errorf("expected entry evicted after firing, got %d live", r.Len())
	}
}

func TestFire_EvictsBeforeCallbackRuns(t *testing.T) {
	r := newTestRegistry()

	var reattached *entry
	e := r.register("X", func() {
		// The slot must already be free here, so an immediate
		// re-identification of the same identity succeeds.
		reattached = r.register("X", func() {}, "", platform.TierLegacy, nil)
	}, "", platform.TierLegacy, nil)

	r.fire(e)

	if reattached == nil {
		t.Fatal("expected re-registration from inside the callback to succeed")
	}
	if r.Len() != 1 {
		t.Errorf("expected the re-registered entry to be live, got %d", r.Len())
	}
}

func TestMarkerTeardown_UnknownMarkerIsNoOp(t *testing.T) {
	r := newTestRegistry()

	fired := 0
	r.register("X", func() { fired++ }, "", platform.TierLegacy, &removalMarker{})

	r.markerTeardown(&removalMarker{})

	if fired != 0 {
		t.Errorf("unrelated marker must not fire anything, got %d", fired)
	}
	if r.Len() != 1 {
		t.Errorf("expected entry untouched, got %d", r.Len())
	}
}

func TestMarkerTeardown_FiresOwningEntry(t *testing.T) {
	r := newTestRegistry()
	marker := &removalMarker{}

	fired := 0
	r.register("X", func() { fired++ }, "", platform.TierLegacy, marker)
	r.markerTeardown(marker)

	if fired != 1 {
		t.Errorf("expected 1 fire, got %d", fired)
	}
	if r.Len() != 0 {
		t.Errorf("expected eviction, got %d live", r.Len())
	}
}

func TestUpdate_ReplacesCallback(t *testing.T) {
	r := newTestRegistry()
	marker := &removalMarker{}

	var stale, fresh int
	e := r.register("X", func() { stale++ }, "", platform.TierLegacy, marker)
	r.update(e, func() { fresh++ }, "updated")
	r.markerTeardown(marker)

	if stale != 0 {
		t.Errorf("stale callback fired %d times", stale)
	}
	if fresh != 1 {
		t.Errorf("expected updated callback to fire once, got %d", fresh)
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	r := newTestRegistry()

	seen := 0
	cancel := r.Subscribe(func(Event) { seen++ })

	r.register("a", func() {}, "", platform.TierLegacy, nil)
	cancel()
	cancel() // second cancel is a no-op
	r.register("b", func() {}, "", platform.TierLegacy, nil)

	if seen != 1 {
		t.Errorf("expected 1 observed event, got %d", seen)
	}
}

func TestRecent_IsBounded(t *testing.T) {
	r := newTestRegistry()

	for i := 0; i < recentEventCap+50; i++ {
		e := r.register(i, func() {}, "", platform.TierLegacy, nil)
		r.fire(e)
	}

	if got := len(r.Recent()); got != recentEventCap {
		t.Errorf("expected history capped at %d, got %d", recentEventCap, got)
	}
}

func TestIdentityString_RendersCompositeKeys(t *testing.T) {
	type rowKey struct {
		Section string
		Index   int
	}

	got := identityString(rowKey{Section: "inbox", Index: 3})
	if got == "" {
		t.Fatal("expected non-empty rendering")
	}
	// Distinct keys must render distinctly for diagnostics to be usable.
	other := identityString(rowKey{Section: "inbox", Index: 4})
	if got == other {
		t.Errorf("distinct identities rendered identically: %q", got)
	}
}
