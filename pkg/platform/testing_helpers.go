package platform

// noopBridge is a NativeBridge that accepts all calls without side effects.
type noopBridge struct{}

func (noopBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	return DefaultCodec.Encode(nil)
}
func (noopBridge) StartEventStream(string) error { return nil }
func (noopBridge) StopEventStream(string) error  { return nil }

// FakeBridge is a scriptable NativeBridge for tests. Method results are
// looked up by "channel#method"; unscripted methods return nil.
type FakeBridge struct {
	// Results maps "channel#method" to the decoded value to return.
	Results map[string]any
	// InvokeErr, when set, is returned by every InvokeMethod call.
	InvokeErr error
	// Started records channels whose event streams were started.
	Started []string
}

// InvokeMethod returns the scripted result for channel#method.
func (b *FakeBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	if b.InvokeErr != nil {
		return nil, b.InvokeErr
	}
	if b.Results != nil {
		if v, ok := b.Results[channel+"#"+method]; ok {
			return DefaultCodec.Encode(v)
		}
	}
	return DefaultCodec.Encode(nil)
}

func (b *FakeBridge) StartEventStream(channel string) error {
	b.Started = append(b.Started, channel)
	return nil
}

func (b *FakeBridge) StopEventStream(string) error { return nil }

// SetupTestBridge installs a no-op native bridge and synchronous dispatch
// function for testing. The cleanup function should be testing.T.Cleanup or
// equivalent; it registers a teardown that calls ResetForTest.
//
//	platform.SetupTestBridge(t.Cleanup)
func SetupTestBridge(cleanup func(func())) {
	SetNativeBridge(noopBridge{})
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
}

// SetupTestBridgeWithTier is SetupTestBridge with the host scripted to
// answer the capability probe with the given tier.
func SetupTestBridgeWithTier(cleanup func(func()), tier Tier) {
	SetNativeBridge(&FakeBridge{
		Results: map[string]any{
			"arbor/capabilities#removalTier": tier.String(),
		},
	})
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
}

// DeliverTransition injects a transition event as if the host had sent it.
// Intended for tests of TierTransitions behavior.
func DeliverTransition(identity string, phase TransitionPhase) error {
	data, err := DefaultCodec.Encode(map[string]any{
		"identity": identity,
		"phase":    string(phase),
	})
	if err != nil {
		return err
	}
	return HandleEvent("arbor/lifecycle/transitions", data)
}
