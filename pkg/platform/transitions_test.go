package platform

import (
	"testing"

	"github.com/go-drift/arbor/pkg/errors"
)

type recordingHandler struct {
	errors.LogHandler
	reported []*errors.ArborError
}

func (h *recordingHandler) HandleError(err *errors.ArborError) {
	h.reported = append(h.reported, err)
}

func TestTransitions_WatchReceivesPhases(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	var phases []TransitionPhase
	cancel := Transitions.Watch("card-1", func(p TransitionPhase) {
		phases = append(phases, p)
	})
	defer cancel()

	if err := DeliverTransition("card-1", PhaseAppeared); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := DeliverTransition("card-1", PhaseDisappeared); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(phases) != 2 || phases[0] != PhaseAppeared || phases[1] != PhaseDisappeared {
		t.Errorf("unexpected phases: %v", phases)
	}
}

func TestTransitions_WatchIsScopedToIdentity(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	var got int
	cancel := Transitions.Watch("card-1", func(TransitionPhase) { got++ })
	defer cancel()

	DeliverTransition("card-2", PhaseDisappeared)

	if got != 0 {
		t.Errorf("expected no events for other identity, got %d", got)
	}
}

func TestTransitions_CancelStopsDelivery(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	var got int
	cancel := Transitions.Watch("card-1", func(TransitionPhase) { got++ })
	cancel()
	cancel() // second cancel is harmless

	DeliverTransition("card-1", PhaseDisappeared)

	if got != 0 {
		t.Errorf("expected no delivery after cancel, got %d", got)
	}
	if Transitions.WatchCount("card-1") != 0 {
		t.Error("expected watcher to be removed")
	}
}

func TestTransitions_MalformedEventIsReported(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	handler := &recordingHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	data, _ := DefaultCodec.Encode(map[string]any{"identity": "card-1"})
	if err := HandleEvent("arbor/lifecycle/transitions", data); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(handler.reported) != 1 {
		t.Fatalf("expected 1 parse report, got %d", len(handler.reported))
	}
	if handler.reported[0].Kind != errors.KindParsing {
		t.Errorf("expected KindParsing, got %v", handler.reported[0].Kind)
	}
}

func TestTransitions_UnknownPhaseIsReported(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	handler := &recordingHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	var got int
	cancel := Transitions.Watch("card-1", func(TransitionPhase) { got++ })
	defer cancel()

	data, _ := DefaultCodec.Encode(map[string]any{"identity": "card-1", "phase": "hovering"})
	HandleEvent("arbor/lifecycle/transitions", data)

	if got != 0 {
		t.Errorf("expected unknown phase to be dropped, got %d deliveries", got)
	}
	if len(handler.reported) != 1 {
		t.Errorf("expected parse report for unknown phase, got %d", len(handler.reported))
	}
}

func TestDispatch_RequiresRegistration(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	if Dispatch(func() {}) {
		t.Error("expected Dispatch to fail without registration")
	}

	ran := false
	RegisterDispatch(func(cb func()) { cb() })
	if !Dispatch(func() { ran = true }) || !ran {
		t.Error("expected Dispatch to run callback synchronously")
	}
}
