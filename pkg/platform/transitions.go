package platform

import (
	"sync"

	"github.com/go-drift/arbor/pkg/errors"
)

// TransitionPhase is one side of the host's appear/disappear signal.
type TransitionPhase string

const (
	// PhaseAppeared indicates the identified node became present.
	PhaseAppeared TransitionPhase = "appeared"

	// PhaseDisappeared indicates the identified node is no longer present.
	PhaseDisappeared TransitionPhase = "disappeared"
)

// TransitionHandler receives transition phases for one watched identity.
type TransitionHandler func(phase TransitionPhase)

// Transitions exposes the host's native appear/disappear transition signal,
// scoped per node identity. Only hosts on TierTransitions deliver events
// here; on legacy hosts the channel stays silent.
var Transitions = &TransitionService{
	events:   NewEventChannel("arbor/lifecycle/transitions"),
	watchers: make(map[string][]*transitionWatcher),
}

// TransitionService fans host transition events out to per-identity watchers.
type TransitionService struct {
	events   *EventChannel
	watchers map[string][]*transitionWatcher
	mu       sync.Mutex
}

type transitionWatcher struct {
	identity string
	handler  TransitionHandler
	canceled bool
}

func init() {
	setup := func() {
		Transitions.events.Listen(EventHandler{
			OnEvent: Transitions.handleEvent,
			OnError: func(err error) {
				errors.Report(&errors.ArborError{
					Op:      "transitions.streamError",
					Kind:    errors.KindPlatform,
					Channel: "arbor/lifecycle/transitions",
					Err:     err,
				})
			},
		})
	}
	registerBuiltinInit(setup)
	setup()
}

// Watch subscribes handler to transition phases for the given identity.
// The returned cancel function removes the watcher; calling it more than
// once is harmless.
func (t *TransitionService) Watch(identity string, handler TransitionHandler) func() {
	w := &transitionWatcher{identity: identity, handler: handler}
	t.mu.Lock()
	t.watchers[identity] = append(t.watchers[identity], w)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if w.canceled {
			return
		}
		w.canceled = true
		list := t.watchers[identity]
		for i, candidate := range list {
			if candidate == w {
				t.watchers[identity] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(t.watchers[identity]) == 0 {
			delete(t.watchers, identity)
		}
	}
}

// handleEvent parses a raw host event and dispatches it to watchers.
func (t *TransitionService) handleEvent(data any) {
	m, ok := data.(map[string]any)
	if !ok {
		t.reportParse(data)
		return
	}
	identity, ok := m["identity"].(string)
	if !ok {
		t.reportParse(data)
		return
	}
	phase, ok := m["phase"].(string)
	if !ok {
		t.reportParse(data)
		return
	}
	switch TransitionPhase(phase) {
	case PhaseAppeared, PhaseDisappeared:
	default:
		t.reportParse(data)
		return
	}

	t.mu.Lock()
	list := make([]*transitionWatcher, len(t.watchers[identity]))
	copy(list, t.watchers[identity])
	t.mu.Unlock()

	for _, w := range list {
		t.mu.Lock()
		canceled := w.canceled
		t.mu.Unlock()
		if !canceled {
			w.handler(TransitionPhase(phase))
		}
	}
}

func (t *TransitionService) reportParse(data any) {
	errors.Report(&errors.ArborError{
		Op:      "transitions.parseEvent",
		Kind:    errors.KindParsing,
		Channel: "arbor/lifecycle/transitions",
		Err: &errors.ParseError{
			Channel:  "arbor/lifecycle/transitions",
			DataType: "TransitionEvent",
			Got:      data,
		},
	})
}

// WatchCount returns the number of live watchers for identity.
// Exposed for diagnostics and tests.
func (t *TransitionService) WatchCount(identity string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.watchers[identity])
}

// reset drops all watchers. Called from ResetForTest.
func (t *TransitionService) reset() {
	t.mu.Lock()
	t.watchers = make(map[string][]*transitionWatcher)
	t.mu.Unlock()
}
