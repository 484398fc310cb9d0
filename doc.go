// Package statecore provides a minimal observable state container.
//
// A Statecore holds one value of type S and an ordered list of observers.
// Every change and every custom event is dispatched synchronously, on the
// caller's goroutine, to the observers registered when the dispatch started.
//
// # State and observers
//
//	counter := statecore.New(0)
//
//	remove, _ := counter.AddObserver(func(event statecore.Event, args ...any) (any, error) {
//	    if event == statecore.EventStateChange {
//	        fmt.Printf("counter: %v -> %v\n", args[1], args[0])
//	    }
//	    return nil, nil
//	})
//	defer remove()
//
//	counter.SetState(counter.State() + 1) // counter: 0 -> 1
//
// # Custom events and filters
//
// Notify dispatches a custom event and returns one Result per matched
// observer. Observers can be registered with filters that must equal the
// leading dispatched arguments, event first:
//
//	counter.AddFilteredObserver([]any{statecore.Event("reset")}, func(event statecore.Event, args ...any) (any, error) {
//	    _, err := counter.SetState(0)
//	    return nil, err
//	})
//
//	results, err := counter.Notify("reset")
//
// The built-in events EventStateChange, EventDestroy and EventObserverError
// are reserved; Notify rejects them with ErrReservedEvent.
//
// # Observer failures
//
// An observer that returns an error or panics does not stop the dispatch.
// Its Result carries an *ObserverError, the failure is logged, and
// EventObserverError is dispatched with (err, originalArgs) to every observer.
//
// # Destroy
//
// Destroy dispatches EventDestroy, then clears the state and the observers.
// Afterwards SetState, AddObserver, Notify and Destroy return ErrDestroyed.
//
// # Named instances
//
// A Registry hands out one live instance per (kind, name), replacing it
// transparently once destroyed:
//
//	reg := statecore.NewRegistry()
//	sessions := statecore.NewNamespace[Session](reg, "session")
//	sc, _ := sessions.GrabOrCreate("main", Session{})
//
// # Observability
//
// WithObservability installs hooks around every dispatch. The otel and
// prometheus subpackages provide implementations.
package statecore
