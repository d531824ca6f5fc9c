package lifecycle

import (
	"testing"

	"github.com/go-drift/arbor/pkg/platform"
)

func setupTierTest(t *testing.T, tier platform.Tier) {
	t.Helper()
	platform.ResetForTest()
	t.Cleanup(platform.ResetForTest)
	sharedRegistry.ResetForTest()
	t.Cleanup(sharedRegistry.ResetForTest)
	platform.SetupTestBridge(t.Cleanup)
	platform.Capabilities.OverrideTierForTest(tier)
}

func TestAttachTracker_LegacyTierSelectsTeardownStrategy(t *testing.T) {
	setupTierTest(t, platform.TierLegacy)

	tr := attachTracker(attachment{
		registry: sharedRegistry,
		identity: "X",
		callback: func() {},
		marker:   &removalMarker{},
	})

	if _, ok := tr.(*legacyTracker); !ok {
		t.Fatalf("expected *legacyTracker, got %T", tr)
	}
}

func TestAttachTracker_TransitionsTierSelectsNativeStrategy(t *testing.T) {
	setupTierTest(t, platform.TierTransitions)

	tr := attachTracker(attachment{
		registry: sharedRegistry,
		identity: "X",
		callback: func() {},
	})

	if _, ok := tr.(*modernTracker); !ok {
		t.Fatalf("expected *modernTracker, got %T", tr)
	}
}

func TestAttachTracker_UnknownTierFallsBackToTeardown(t *testing.T) {
	setupTierTest(t, platform.TierUnknown)

	tr := attachTracker(attachment{
		registry: sharedRegistry,
		identity: "X",
		callback: func() {},
		marker:   &removalMarker{},
	})

	if _, ok := tr.(*legacyTracker); !ok {
		t.Fatalf("expected fallback to *legacyTracker, got %T", tr)
	}
}

func TestModernTracker_ReleaseToleratesUnsetWatch(t *testing.T) {
	// A disappeared event can race tracker construction on the bridge
	// goroutine; releasing before the cancel is recorded must not panic.
	tr := &modernTracker{registry: NewRegistry()}
	tr.releaseWatch()
	tr.releaseWatch()
}

func TestAttachTracker_ShadowedReturnsNil(t *testing.T) {
	setupTierTest(t, platform.TierLegacy)

	first := attachTracker(attachment{
		registry: sharedRegistry,
		identity: "X",
		callback: func() {},
		marker:   &removalMarker{},
	})
	second := attachTracker(attachment{
		registry: sharedRegistry,
		identity: "X",
		callback: func() {},
		marker:   &removalMarker{},
	})

	if first == nil {
		t.Fatal("expected first attachment to acquire a tracker")
	}
	if second != nil {
		t.Fatalf("expected shadowed attachment to get no tracker, got %T", second)
	}
}
