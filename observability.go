package statecore

import (
	"context"
	"time"
)

// Observability receives hooks around every dispatch. Implementations live in
// the otel and prometheus subpackages.
//
// Start hooks return a context that is passed to the matching Complete hook,
// so implementations can carry spans through it.
type Observability interface {
	// OnNotifyStart is called before a dispatch round begins.
	OnNotifyStart(ctx context.Context, instanceID string, event Event, observers int) context.Context

	// OnNotifyComplete is called after every matched observer has run.
	OnNotifyComplete(ctx context.Context, event Event, matched, failed int)

	// OnObserverStart is called before a single observer runs.
	OnObserverStart(ctx context.Context, event Event) context.Context

	// OnObserverComplete is called after a single observer returns or panics.
	OnObserverComplete(ctx context.Context, duration time.Duration, err error)
}
