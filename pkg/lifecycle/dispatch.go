package lifecycle

import (
	"github.com/go-drift/arbor/pkg/platform"
)

// strategies is the capability-dispatch table: each host tier maps to the
// tracker constructor implementing removal detection on that tier. Selection
// happens once, at attachment time.
var strategies = map[platform.Tier]func(attachment) tracker{
	platform.TierLegacy:      newLegacyTracker,
	platform.TierTransitions: newModernTracker,
}

// attachTracker probes the host tier and wires the matching strategy onto
// the attachment. A tier without a strategy (including an unresolved probe)
// falls back to the teardown-based one, which assumes nothing about the
// host. Returns nil when the attachment is shadowed by an outer one.
func attachTracker(att attachment) tracker {
	construct, ok := strategies[platform.Capabilities.RemovalTier()]
	if !ok {
		construct = newLegacyTracker
	}
	return construct(att)
}
