package platform

import (
	"errors"
	"testing"
)

func TestRemovalTier_NoBridge_DefaultsToLegacy(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	if tier := Capabilities.RemovalTier(); tier != TierLegacy {
		t.Errorf("expected TierLegacy without a bridge, got %v", tier)
	}
}

func TestRemovalTier_HostAnswersTransitions(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	SetNativeBridge(&FakeBridge{
		Results: map[string]any{"arbor/capabilities#removalTier": "transitions"},
	})

	if tier := Capabilities.RemovalTier(); tier != TierTransitions {
		t.Errorf("expected TierTransitions, got %v", tier)
	}
}

func TestRemovalTier_InvokeError_DefaultsToLegacy(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	SetNativeBridge(&FakeBridge{InvokeErr: errors.New("bridge down")})

	if tier := Capabilities.RemovalTier(); tier != TierLegacy {
		t.Errorf("expected TierLegacy on probe error, got %v", tier)
	}
}

func TestRemovalTier_UnknownAnswer_DefaultsToLegacy(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	SetNativeBridge(&FakeBridge{
		Results: map[string]any{"arbor/capabilities#removalTier": "quantum"},
	})

	if tier := Capabilities.RemovalTier(); tier != TierLegacy {
		t.Errorf("expected TierLegacy on unrecognized answer, got %v", tier)
	}
}

func TestRemovalTier_ProbeIsCached(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	bridge := &FakeBridge{
		Results: map[string]any{"arbor/capabilities#removalTier": "transitions"},
	}
	SetNativeBridge(bridge)

	if tier := Capabilities.RemovalTier(); tier != TierTransitions {
		t.Fatalf("expected TierTransitions, got %v", tier)
	}

	// Change the host answer; the cached result must win.
	bridge.Results["arbor/capabilities#removalTier"] = "legacy"
	if tier := Capabilities.RemovalTier(); tier != TierTransitions {
		t.Errorf("expected cached TierTransitions, got %v", tier)
	}
}

func TestOverrideTierForTest(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	Capabilities.OverrideTierForTest(TierTransitions)
	if tier := Capabilities.RemovalTier(); tier != TierTransitions {
		t.Errorf("expected overridden tier, got %v", tier)
	}
}

func TestTier_String(t *testing.T) {
	cases := map[Tier]string{
		TierUnknown:     "unknown",
		TierLegacy:      "legacy",
		TierTransitions: "transitions",
	}
	for tier, want := range cases {
		if got := tier.String(); got != want {
			t.Errorf("Tier(%d).String() = %q, want %q", tier, got, want)
		}
	}
}
