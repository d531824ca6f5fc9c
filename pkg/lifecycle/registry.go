package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/platform"
)

// entryState is the per-attachment state machine. The only transition is
// stateAttached -> stateFired; it is irreversible and happens at most once.
type entryState int

const (
	stateAttached entryState = iota
	stateFired
)

// entry is one live attachment: an identity bound to a callback, plus the
// marker (teardown tier only) whose disposal stands in for the removal event.
//
// On the transitions tier the engine-side unmount only marks the entry
// detached; the host's disappeared event settles it. A re-attachment of the
// same identity that lands in that window adopts the entry: the superseded
// callback moves to pending and the incoming host events settle pendings
// oldest first before the entry itself fires.
type entry struct {
	identity   any
	callback   func()
	tag        string
	tier       platform.Tier
	generation uint64
	marker     *removalMarker
	attachedAt time.Time
	state      entryState
	detached   bool
	pending    []pendingFire
	release    func()
}

// pendingFire is a superseded attachment's callback awaiting the host's
// disappeared event.
type pendingFire struct {
	callback   func()
	tag        string
	generation uint64
}

// EventKind classifies a registry transition.
type EventKind string

const (
	// EventAttached records a new live attachment.
	EventAttached EventKind = "attached"
	// EventShadowed records an inner attachment finding its identity slot
	// already owned by an outer one.
	EventShadowed EventKind = "shadowed"
	// EventFired records a removal callback invocation.
	EventFired EventKind = "fired"
	// EventAdopted records a re-attachment reclaiming the slot of an
	// engine-detached entry whose host confirmation is still in flight.
	EventAdopted EventKind = "adopted"
)

// Event is a registry transition, as exposed to observers and diagnostics.
// Identity is rendered as a string for transport.
type Event struct {
	Kind       EventKind `json:"kind"`
	Identity   string    `json:"identity"`
	Tag        string    `json:"tag,omitempty"`
	Tier       string    `json:"tier"`
	Generation uint64    `json:"generation"`
	Time       time.Time `json:"time"`
}

// EntrySnapshot is a point-in-time view of one live attachment.
type EntrySnapshot struct {
	Identity   string    `json:"identity"`
	Tag        string    `json:"tag,omitempty"`
	Tier       string    `json:"tier"`
	Generation uint64    `json:"generation"`
	AttachedAt time.Time `json:"attachedAt"`
}

// recentEventCap bounds the diagnostic event history.
const recentEventCap = 256

// Registry maps each live identity to its attachment and dispatches marker
// teardown to the stored callback.
//
// The tree itself is mutated by a single thread, but the registry is also
// read by the inspection server and written by transition events arriving
// off the host bridge, so access is guarded by a mutex.
type Registry struct {
	mu         sync.Mutex
	entries    map[any]*entry
	byMarker   map[*removalMarker]*entry
	generation uint64
	observers  []*registryObserver
	recent     []Event
}

type registryObserver struct {
	fn       func(Event)
	canceled bool
}

// sharedRegistry is the process-wide registry used by OnRemove.
var sharedRegistry = NewRegistry()

// NewRegistry creates an empty registry. Most callers want Shared; separate
// registries exist for subtree scoping and tests.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[any]*entry),
		byMarker: make(map[*removalMarker]*entry),
	}
}

// Shared returns the process-wide registry.
func Shared() *Registry {
	return sharedRegistry
}

// register claims the identity slot for a new attachment. It returns nil if
// a live entry already owns the identity: the caller is an inner, shadowed
// attachment and must stay inert.
//
// A fired entry cannot be present (firing evicts), so reinsertion of a
// previously removed identity creates a fresh, independent entry. The one
// exception is a live entry whose element the engine already unmounted: its
// removal is certain and only the host confirmation is outstanding, so the
// new attachment adopts the slot instead of being shadowed.
func (r *Registry) register(identity any, callback func(), tag string, tier platform.Tier, marker *removalMarker) *entry {
	r.mu.Lock()
	if existing, ok := r.entries[identity]; ok && existing.state == stateAttached {
		if !existing.detached {
			gen := existing.generation
			r.mu.Unlock()
			r.notify(Event{
				Kind:       EventShadowed,
				Identity:   identityString(identity),
				Tag:        tag,
				Tier:       tier.String(),
				Generation: gen,
				Time:       time.Now(),
			})
			return nil
		}
		existing.pending = append(existing.pending, pendingFire{
			callback:   existing.callback,
			tag:        existing.tag,
			generation: existing.generation,
		})
		release := existing.release
		existing.release = nil
		r.generation++
		existing.callback = callback
		existing.tag = tag
		existing.tier = tier
		existing.generation = r.generation
		existing.attachedAt = time.Now()
		existing.detached = false
		gen := existing.generation
		r.mu.Unlock()

		// Drop the superseded tracker's watch before anything else can
		// deliver to it.
		if release != nil {
			release()
		}
		r.notify(Event{
			Kind:       EventAdopted,
			Identity:   identityString(identity),
			Tag:        tag,
			Tier:       tier.String(),
			Generation: gen,
			Time:       time.Now(),
		})
		return existing
	}

	r.generation++
	e := &entry{
		identity:   identity,
		callback:   callback,
		tag:        tag,
		tier:       tier,
		generation: r.generation,
		marker:     marker,
		attachedAt: time.Now(),
	}
	r.entries[identity] = e
	if marker != nil {
		r.byMarker[marker] = e
	}
	r.mu.Unlock()

	r.notify(Event{
		Kind:       EventAttached,
		Identity:   identityString(identity),
		Tag:        tag,
		Tier:       tier.String(),
		Generation: e.generation,
		Time:       time.Now(),
	})
	return e
}

// update replaces the callback and tag of a live entry. Called when the
// hosting element is updated in place with a new widget configuration; the
// identity cannot change on that path, so the slot stays claimed.
func (r *Registry) update(e *entry, callback func(), tag string) {
	r.mu.Lock()
	if e.state == stateAttached {
		e.callback = callback
		if tag != "" {
			e.tag = tag
		}
	}
	r.mu.Unlock()
}

// markerTeardown is the teardown-tier removal signal: the marker owned by an
// unmounted element dispatches here. Lookup is by marker, not identity, so a
// shadowed inner marker (never registered) or a marker whose entry already
// fired resolves to nothing and is a no-op.
func (r *Registry) markerTeardown(marker *removalMarker) {
	r.mu.Lock()
	e, ok := r.byMarker[marker]
	r.mu.Unlock()
	if !ok {
		return
	}
	r.fire(e)
}

// markDetached records that the entry's hosting element was unmounted while
// the removal signal itself belongs to the host. The entry stays live until
// a disappeared event settles it, but a re-attachment of the same identity
// may adopt the slot in the meantime.
func (r *Registry) markDetached(e *entry) {
	r.mu.Lock()
	if e.state == stateAttached {
		e.detached = true
	}
	r.mu.Unlock()
}

// setRelease stores the hook that cancels the entry's host watch. Adoption
// uses it to drop the watch of the tracker being superseded.
func (r *Registry) setRelease(e *entry, release func()) {
	r.mu.Lock()
	e.release = release
	r.mu.Unlock()
}

// hostDisappeared settles one disappeared event from the host against the
// entry. Superseded attachments settle first, oldest first; the entry itself
// fires and is evicted only once none are outstanding. The return value
// reports whether the entry is finished and its watch can be dropped.
func (r *Registry) hostDisappeared(e *entry) bool {
	r.mu.Lock()
	if e.state != stateAttached {
		r.mu.Unlock()
		return true
	}
	if len(e.pending) > 0 {
		p := e.pending[0]
		e.pending = e.pending[1:]
		tier := e.tier.String()
		r.mu.Unlock()

		r.notify(Event{
			Kind:       EventFired,
			Identity:   identityString(e.identity),
			Tag:        p.tag,
			Tier:       tier,
			Generation: p.generation,
			Time:       time.Now(),
		})
		if p.callback != nil {
			defer errors.RecoverDetail("lifecycle.fire", identityString(e.identity))
			p.callback()
		}
		return false
	}
	r.mu.Unlock()
	r.fire(e)
	return true
}

// fire runs the entry's callback exactly once and evicts the entry. The
// eviction happens before the callback runs so a callback that re-attaches
// the same identity sees a free slot.
func (r *Registry) fire(e *entry) {
	r.mu.Lock()
	if e.state != stateAttached {
		r.mu.Unlock()
		return
	}
	e.state = stateFired
	if current, ok := r.entries[e.identity]; ok && current == e {
		delete(r.entries, e.identity)
	}
	if e.marker != nil {
		delete(r.byMarker, e.marker)
	}
	callback := e.callback
	r.mu.Unlock()

	r.notify(Event{
		Kind:       EventFired,
		Identity:   identityString(e.identity),
		Tag:        e.tag,
		Tier:       e.tier.String(),
		Generation: e.generation,
		Time:       time.Now(),
	})

	if callback != nil {
		// A panicking callback surfaces through the framework error
		// channel; it must not take the rebuild pass down with it.
		defer errors.RecoverDetail("lifecycle.fire", identityString(e.identity))
		callback()
	}
}

// Subscribe registers an observer for registry transitions. The returned
// cancel function removes it.
func (r *Registry) Subscribe(fn func(Event)) func() {
	obs := &registryObserver{fn: fn}
	r.mu.Lock()
	r.observers = append(r.observers, obs)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if obs.canceled {
			return
		}
		obs.canceled = true
		for i, o := range r.observers {
			if o == obs {
				r.observers = append(r.observers[:i], r.observers[i+1:]...)
				break
			}
		}
	}
}

// notify appends the event to the diagnostic history and fans it out.
func (r *Registry) notify(event Event) {
	r.mu.Lock()
	r.recent = append(r.recent, event)
	if len(r.recent) > recentEventCap {
		r.recent = r.recent[len(r.recent)-recentEventCap:]
	}
	observers := make([]*registryObserver, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, obs := range observers {
		r.mu.Lock()
		canceled := obs.canceled
		r.mu.Unlock()
		if !canceled {
			obs.fn(event)
		}
	}
}

// Len returns the number of live attachments.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a point-in-time view of all live attachments.
func (r *Registry) Snapshot() []EntrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EntrySnapshot, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, EntrySnapshot{
			Identity:   identityString(e.identity),
			Tag:        e.tag,
			Tier:       e.tier.String(),
			Generation: e.generation,
			AttachedAt: e.attachedAt,
		})
	}
	return out
}

// Recent returns the buffered registry transition history, oldest first.
func (r *Registry) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.recent))
	copy(out, r.recent)
	return out
}

// ResetForTest drops all entries, observers and history. This should only
// be called from tests.
func (r *Registry) ResetForTest() {
	r.mu.Lock()
	r.entries = make(map[any]*entry)
	r.byMarker = make(map[*removalMarker]*entry)
	r.observers = nil
	r.recent = nil
	r.generation = 0
	r.mu.Unlock()
}

// identityString renders an identity for diagnostics and bridge transport.
func identityString(identity any) string {
	return fmt.Sprint(identity)
}
