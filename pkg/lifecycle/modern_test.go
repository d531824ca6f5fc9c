package lifecycle_test

import (
	"testing"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/lifecycle"
	"github.com/go-drift/arbor/pkg/platform"
	arbortesting "github.com/go-drift/arbor/pkg/testing"
)

// newTransitionsTester builds a pump harness against a host scripted to
// answer the capability probe with the transitions tier. The tester's
// dispatcher is registered after the bridge, so transition callbacks queue
// until the next pump, matching delivery on the tree-owning thread.
func newTransitionsTester(t *testing.T) *arbortesting.TreeTester {
	t.Helper()
	platform.ResetForTest()
	t.Cleanup(platform.ResetForTest)
	lifecycle.Shared().ResetForTest()
	t.Cleanup(lifecycle.Shared().ResetForTest)
	platform.SetupTestBridgeWithTier(t.Cleanup, platform.TierTransitions)
	return arbortesting.NewTreeTesterWithT(t)
}

func TestTransitions_DisappearedFiresOnce(t *testing.T) {
	tester := newTransitionsTester(t)

	fired := 0
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { fired++ }),
	}})

	if err := platform.DeliverTransition("X", platform.PhaseDisappeared); err != nil {
		t.Fatal(err)
	}
	if fired != 0 {
		t.Fatalf("callback ran before the dispatcher drained: %d", fired)
	}

	tester.Pump()
	if fired != 1 {
		t.Fatalf("expected exactly 1 fire, got %d", fired)
	}
}

func TestTransitions_DoubleDisappearedIsSuppressed(t *testing.T) {
	tester := newTransitionsTester(t)

	fired := 0
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { fired++ }),
	}})

	platform.DeliverTransition("X", platform.PhaseDisappeared)
	platform.DeliverTransition("X", platform.PhaseDisappeared)
	tester.Pump()

	if fired != 1 {
		t.Errorf("expected exactly 1 fire after duplicate events, got %d", fired)
	}
}

func TestTransitions_UnmatchedDisappearedStillFires(t *testing.T) {
	tester := newTransitionsTester(t)

	fired := 0
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { fired++ }),
	}})

	// No prior appeared event: a bare disappeared is still a removal.
	platform.DeliverTransition("X", platform.PhaseDisappeared)
	tester.Pump()

	if fired != 1 {
		t.Errorf("expected 1 fire, got %d", fired)
	}
}

func TestTransitions_AppearedIsIgnored(t *testing.T) {
	tester := newTransitionsTester(t)

	fired := 0
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { fired++ }),
	}})

	platform.DeliverTransition("X", platform.PhaseAppeared)
	tester.Pump()

	if fired != 0 {
		t.Errorf("appeared event must not fire the callback, got %d", fired)
	}
}

func TestTransitions_EngineUnmountDefersToHost(t *testing.T) {
	tester := newTransitionsTester(t)

	fired := 0
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { fired++ }),
	}})

	// On this tier the host owns the removal signal: the engine-side
	// unmount alone does not fire.
	tester.PumpWidget(core.Group{})
	if fired != 0 {
		t.Fatalf("engine unmount fired on transitions tier: %d", fired)
	}
	if got := lifecycle.Shared().Len(); got != 1 {
		t.Fatalf("expected entry to stay live until the host signal, got %d", got)
	}

	platform.DeliverTransition("X", platform.PhaseDisappeared)
	tester.Pump()
	if fired != 1 {
		t.Errorf("expected the host signal to fire once, got %d", fired)
	}
	if got := lifecycle.Shared().Len(); got != 0 {
		t.Errorf("expected eviction after firing, got %d", got)
	}
}

func TestTransitions_ReinsertionBeforeHostSignal_AdoptsSlot(t *testing.T) {
	tester := newTransitionsTester(t)

	var oldFired, newFired int
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { oldFired++ }),
	}})

	// Remove and reinsert before the host's disappeared event arrives. The
	// fresh attachment must take over the slot instead of being shadowed by
	// the detached entry.
	tester.PumpWidget(core.Group{})
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("X", func() { newFired++ }),
	}})

	if got := platform.Transitions.WatchCount("X"); got != 1 {
		t.Fatalf("expected the stale subscription to be dropped, got %d", got)
	}

	// The late event settles the superseded attachment, oldest first.
	platform.DeliverTransition("X", platform.PhaseDisappeared)
	tester.Pump()
	if oldFired != 1 || newFired != 0 {
		t.Fatalf("expected the first attachment to settle, got old=%d new=%d", oldFired, newFired)
	}
	if got := lifecycle.Shared().Len(); got != 1 {
		t.Fatalf("expected the reinserted attachment to stay live, got %d", got)
	}

	// The reinserted node's own removal still fires its callback.
	tester.PumpWidget(core.Group{})
	platform.DeliverTransition("X", platform.PhaseDisappeared)
	tester.Pump()
	if oldFired != 1 || newFired != 1 {
		t.Errorf("expected the reinserted attachment to fire, got old=%d new=%d", oldFired, newFired)
	}
	if got := lifecycle.Shared().Len(); got != 0 {
		t.Errorf("expected no live entries, got %d", got)
	}
}

func TestTransitions_ShadowedInnerDoesNotWatch(t *testing.T) {
	tester := newTransitionsTester(t)

	var outerFired, innerFired int
	chain := lifecycle.OnRemove{
		Do: func() { outerFired++ },
		Child: lifecycle.OnRemove{
			Do:    func() { innerFired++ },
			Child: core.Identify(leaf{}, "X"),
		},
	}
	tester.PumpWidget(core.Group{Children: []core.Widget{chain}})

	if got := platform.Transitions.WatchCount("X"); got != 1 {
		t.Fatalf("expected a single host subscription, got %d", got)
	}

	platform.DeliverTransition("X", platform.PhaseDisappeared)
	tester.Pump()

	if outerFired != 1 {
		t.Errorf("expected outer callback to fire once, got %d", outerFired)
	}
	if innerFired != 0 {
		t.Errorf("expected inner callback to stay inert, got %d", innerFired)
	}
}

func TestTransitions_OtherIdentityUnaffected(t *testing.T) {
	tester := newTransitionsTester(t)

	firedBy := map[string]int{}
	tester.PumpWidget(core.Group{Children: []core.Widget{
		watched("a", func() { firedBy["a"]++ }),
		watched("b", func() { firedBy["b"]++ }),
	}})

	platform.DeliverTransition("a", platform.PhaseDisappeared)
	tester.Pump()

	if firedBy["a"] != 1 || firedBy["b"] != 0 {
		t.Errorf("expected only 'a' to fire, got %v", firedBy)
	}
}
