package statecore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Version is the statecore library version
const Version = "2.2.0"

// Event identifies a dispatch. Built-in events are reserved and can only be
// emitted by the Statecore itself.
type Event string

// Reserved events
const (
	// EventStateChange is dispatched by SetState with (newState, oldState).
	EventStateChange Event = "STATECORE_EVENT__STATE_CHANGE"

	// EventDestroy is dispatched by Destroy with no extra arguments.
	EventDestroy Event = "STATECORE_EVENT__DESTROY"

	// EventObserverError is dispatched with (err, originalArgs) when an observer fails.
	EventObserverError Event = "STATECORE_EVENT__OBSERVER_ERROR"
)

// Reserved returns true for the built-in events
func (e Event) Reserved() bool {
	switch e {
	case EventStateChange, EventDestroy, EventObserverError:
		return true
	}
	return false
}

// Observer is called synchronously for every dispatch it matches.
// A returned error or a panic marks the observer as failed for that dispatch.
type Observer func(event Event, args ...any) (any, error)

// Result is the outcome of one observer for one dispatch.
// Exactly one of Value and Err is meaningful: Err is non-nil when the observer failed.
type Result struct {
	Value any
	Err   error
}

// Failed returns true if the observer returned an error or panicked
func (r Result) Failed() bool {
	return r.Err != nil
}

// observerEntry wraps an observer with the filters it was registered with
type observerEntry struct {
	observer Observer
	filters  []any
	fnID     uintptr
}

// Statecore holds a single value and notifies observers when it changes.
//
// The observer list is copy-on-write: every add or remove installs a new slice,
// so a dispatch iterates the slice it captured at the start and is not affected
// by observers that add or remove observers while it runs. The lock is never
// held while observers execute, so observers may call back into the instance.
type Statecore[S any] struct {
	cfg        *config
	mu         sync.RWMutex
	state      S
	observers  []*observerEntry
	destroying bool
	destroyed  bool
}

// New creates a Statecore holding initial
func New[S any](initial S, opts ...Option) *Statecore[S] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	return &Statecore[S]{
		cfg:       cfg,
		state:     initial,
		observers: make([]*observerEntry, 0),
	}
}

// ID returns the instance identifier used in logs and telemetry
func (sc *Statecore[S]) ID() string {
	return sc.cfg.id
}

// State returns the current state. After Destroy it returns the zero value of S.
func (sc *Statecore[S]) State() S {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.state
}

// SetState replaces the state and dispatches EventStateChange with
// (newState, oldState) to every observer before returning newState.
func (sc *Statecore[S]) SetState(newState S) (S, error) {
	return sc.SetStateContext(context.Background(), newState)
}

// SetStateContext is SetState with a context for the observability hooks
func (sc *Statecore[S]) SetStateContext(ctx context.Context, newState S) (S, error) {
	sc.mu.Lock()
	if sc.destroyed {
		sc.mu.Unlock()
		var zero S
		return zero, fmt.Errorf("set state: %w", ErrDestroyed)
	}
	oldState := sc.state
	sc.state = newState
	sc.mu.Unlock()

	sc.dispatch(ctx, []any{EventStateChange, newState, oldState}, true)
	return newState, nil
}

// AddObserver registers fn for every dispatch and returns a function that
// removes exactly this registration. Registering the same function twice
// creates two entries.
func (sc *Statecore[S]) AddObserver(fn Observer) (func(), error) {
	return sc.AddFilteredObserver(nil, fn)
}

// AddFilteredObserver registers fn for dispatches whose leading arguments,
// event first, equal filters. For example, filters []any{EventStateChange}
// only receives state changes, and []any{Event("move"), "left"} only receives
// Notify("move", "left", ...).
func (sc *Statecore[S]) AddFilteredObserver(filters []any, fn Observer) (func(), error) {
	if fn == nil {
		return nil, ErrInvalidObserver
	}

	entry := &observerEntry{
		observer: fn,
		filters:  append([]any(nil), filters...),
		fnID:     funcID(fn),
	}
	// The first dispatched argument is always an Event
	if len(entry.filters) > 0 {
		if name, ok := entry.filters[0].(string); ok {
			entry.filters[0] = Event(name)
		}
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.destroyed {
		return nil, fmt.Errorf("add observer: %w", ErrDestroyed)
	}

	next := make([]*observerEntry, len(sc.observers), len(sc.observers)+1)
	copy(next, sc.observers)
	sc.observers = append(next, entry)

	var once sync.Once
	return func() {
		once.Do(func() {
			sc.removeFirst(func(e *observerEntry) bool { return e == entry })
		})
	}, nil
}

// RemoveObserver removes the oldest registration of fn, ignoring its filters.
// It is a no-op if fn is not registered or the instance is destroyed.
//
// Functions are identified by code pointer, so closures created by the same
// function literal are indistinguishable. Use the function returned by
// AddObserver to remove one specific registration.
func (sc *Statecore[S]) RemoveObserver(fn Observer) {
	if fn == nil {
		return
	}
	id := funcID(fn)
	sc.removeFirst(func(e *observerEntry) bool { return e.fnID == id })
}

// removeFirst installs a new observer slice without the first entry matching match
func (sc *Statecore[S]) removeFirst(match func(*observerEntry) bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.destroyed {
		return
	}

	for i, e := range sc.observers {
		if match(e) {
			next := make([]*observerEntry, 0, len(sc.observers)-1)
			next = append(next, sc.observers[:i]...)
			sc.observers = append(next, sc.observers[i+1:]...)
			return
		}
	}
}

// Observers returns the registered observers in dispatch order, or nil once destroyed
func (sc *Statecore[S]) Observers() []Observer {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if sc.destroyed {
		return nil
	}

	out := make([]Observer, len(sc.observers))
	for i, e := range sc.observers {
		out[i] = e.observer
	}
	return out
}

// Notify dispatches a custom event to every matching observer and returns one
// Result per matched observer in registration order. Observer failures are
// reported in the results and through EventObserverError, never as the error
// return.
func (sc *Statecore[S]) Notify(event Event, args ...any) ([]Result, error) {
	return sc.NotifyContext(context.Background(), event, args...)
}

// NotifyContext is Notify with a context for the observability hooks
func (sc *Statecore[S]) NotifyContext(ctx context.Context, event Event, args ...any) ([]Result, error) {
	if event == "" {
		return nil, ErrInvalidEvent
	}
	if event.Reserved() {
		return nil, fmt.Errorf("notify %s: %w", event, ErrReservedEvent)
	}
	if sc.IsDestroyed() {
		return nil, fmt.Errorf("notify %s: %w", event, ErrDestroyed)
	}

	return sc.dispatch(ctx, append([]any{event}, args...), true), nil
}

// Destroy dispatches EventDestroy, then clears the state and all observers.
// The instance cannot be used afterwards; a second Destroy returns ErrDestroyed.
func (sc *Statecore[S]) Destroy() error {
	return sc.DestroyContext(context.Background())
}

// DestroyContext is Destroy with a context for the observability hooks
func (sc *Statecore[S]) DestroyContext(ctx context.Context) error {
	sc.mu.Lock()
	if sc.destroyed || sc.destroying {
		sc.mu.Unlock()
		return fmt.Errorf("destroy: %w", ErrDestroyed)
	}
	sc.destroying = true
	sc.mu.Unlock()

	sc.dispatch(ctx, []any{EventDestroy}, true)

	sc.mu.Lock()
	var zero S
	sc.state = zero
	sc.observers = nil
	sc.destroyed = true
	sc.mu.Unlock()

	sc.cfg.logger.Debug("statecore destroyed", "instance", sc.cfg.id)
	return nil
}

// IsDestroyed returns true once Destroy has completed
func (sc *Statecore[S]) IsDestroyed() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.destroyed
}

// dispatch runs every observer matching args against the current snapshot.
// args[0] is always the Event.
func (sc *Statecore[S]) dispatch(ctx context.Context, args []any, reportErrors bool) []Result {
	// Observer slices are never modified in place, so holding the header is a snapshot
	sc.mu.RLock()
	snapshot := sc.observers
	sc.mu.RUnlock()

	event := args[0].(Event)
	obs := sc.cfg.observability
	if obs != nil {
		ctx = obs.OnNotifyStart(ctx, sc.cfg.id, event, len(snapshot))
	}

	results := make([]Result, 0, len(snapshot))
	failed := 0
	for _, entry := range snapshot {
		if !matches(entry.filters, args) {
			continue
		}

		value, oerr := sc.callObserver(ctx, entry, event, args)
		if oerr != nil {
			failed++
			results = append(results, Result{Err: oerr})
			if reportErrors {
				sc.reportError(ctx, oerr)
			}
			continue
		}
		results = append(results, Result{Value: value})
	}

	if obs != nil {
		obs.OnNotifyComplete(ctx, event, len(results), failed)
	}
	return results
}

// callObserver executes one observer, converting a panic into an ObserverError
func (sc *Statecore[S]) callObserver(ctx context.Context, entry *observerEntry, event Event, args []any) (value any, oerr *ObserverError) {
	obs := sc.cfg.observability
	var start time.Time
	if obs != nil {
		ctx = obs.OnObserverStart(ctx, event)
		start = time.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			value = nil
			oerr = newPanicError(event, args, r)
		}
		if obs != nil {
			var err error
			if oerr != nil {
				err = oerr
			}
			obs.OnObserverComplete(ctx, time.Since(start), err)
		}
	}()

	// Each observer gets its own copy so writes to args stay local to that call
	v, err := entry.observer(event, append([]any(nil), args[1:]...)...)
	if err != nil {
		return nil, &ObserverError{Event: event, Args: append([]any(nil), args...), Err: err}
	}
	return v, nil
}

// reportError logs a failure and dispatches EventObserverError to the observers
// registered now. Failures during that pass are not reported again.
func (sc *Statecore[S]) reportError(ctx context.Context, oerr *ObserverError) {
	sc.cfg.logger.Error("statecore observer failed",
		"instance", sc.cfg.id,
		"event", string(oerr.Event),
		"panic", oerr.Panicked(),
		"error", oerr.Err,
	)

	if sc.cfg.errorHandler != nil {
		sc.callErrorHandler(oerr)
	}

	sc.dispatch(ctx, []any{EventObserverError, oerr.Err, oerr.Args}, false)
}

// callErrorHandler runs the configured ErrorHandler, logging instead of
// propagating a panic so the dispatch round continues.
func (sc *Statecore[S]) callErrorHandler(oerr *ObserverError) {
	defer func() {
		if r := recover(); r != nil {
			sc.cfg.logger.Error("statecore error handler panicked",
				"instance", sc.cfg.id,
				"event", string(oerr.Event),
				"panic", r,
			)
		}
	}()
	sc.cfg.errorHandler(oerr)
}
