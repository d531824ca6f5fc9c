package platform

import "sync"

// Tier identifies which removal-detection capability the host provides.
type Tier int

const (
	// TierUnknown means the probe has not resolved yet. Callers must treat
	// it as TierLegacy.
	TierUnknown Tier = iota

	// TierLegacy means the host has no native transition signal; removal is
	// inferred from child-lifecycle teardown.
	TierLegacy

	// TierTransitions means the host delivers native appear/disappear
	// transition events scoped to a node identity.
	TierTransitions
)

func (t Tier) String() string {
	switch t {
	case TierLegacy:
		return "legacy"
	case TierTransitions:
		return "transitions"
	default:
		return "unknown"
	}
}

// Capabilities queries the host for its feature tier.
var Capabilities = &CapabilityService{
	channel: NewMethodChannel("arbor/capabilities"),
}

// CapabilityService resolves the host capability tier. The probe is total:
// a missing bridge, an invoke error, or an unrecognized answer all resolve
// to TierLegacy, the strategy that assumes nothing about the host.
type CapabilityService struct {
	channel  *MethodChannel
	mu       sync.Mutex
	resolved bool
	tier     Tier
}

// RemovalTier returns the host's removal-detection tier. The first call
// probes the host over the capability channel; the answer is cached for the
// process lifetime (the host tier cannot change under a running app).
func (c *CapabilityService) RemovalTier() Tier {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return c.tier
	}
	c.tier = c.probe()
	c.resolved = true
	return c.tier
}

func (c *CapabilityService) probe() Tier {
	result, err := c.channel.Invoke("removalTier", nil)
	if err != nil {
		return TierLegacy
	}
	name, ok := result.(string)
	if !ok {
		return TierLegacy
	}
	switch name {
	case "transitions":
		return TierTransitions
	case "legacy":
		return TierLegacy
	default:
		return TierLegacy
	}
}

// OverrideTierForTest pins the resolved tier without probing the host.
// This should only be called from tests.
func (c *CapabilityService) OverrideTierForTest(tier Tier) {
	c.mu.Lock()
	c.tier = tier
	c.resolved = true
	c.mu.Unlock()
}

// resetCapabilityCache clears the cached tier. Called from ResetForTest.
func resetCapabilityCache() {
	Capabilities.mu.Lock()
	Capabilities.resolved = false
	Capabilities.tier = TierUnknown
	Capabilities.mu.Unlock()
}
