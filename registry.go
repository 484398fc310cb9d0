package statecore

import (
	"fmt"
	"reflect"
	"sync"
)

// Kinded is implemented by state types that name their own registry namespace.
// Implement it on a value receiver so the zero value can report the kind.
type Kinded interface {
	StatecoreKind() string
}

// KindOf returns the default registry kind for state type S: the result of
// StatecoreKind if S implements Kinded, otherwise the Go type name.
func KindOf[S any]() string {
	t := reflect.TypeOf((*S)(nil)).Elem()
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		var zero S
		if k, ok := any(zero).(Kinded); ok {
			if kind := k.StatecoreKind(); kind != "" {
				return kind
			}
		}
	}
	return t.String()
}

// registryKey scopes an instance name to the kind that owns it
type registryKey struct {
	kind string
	name string
}

// liveness is the part of Statecore the registry needs without knowing S
type liveness interface {
	IsDestroyed() bool
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// Registry maps (kind, name) pairs to live Statecore instances. Each kind is
// an independent namespace, so two kinds can reuse a name without colliding.
// Destroyed instances are evicted the next time their key is looked up.
type Registry struct {
	instances    map[registryKey]liveness
	instanceOpts []Option
	logger       Logger
	mu           sync.Mutex
}

// NewRegistry creates an empty Registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		instances: make(map[registryKey]liveness),
		logger:    defaultConfig().logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithRegistryLogger sets the logger used for registry events
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInstanceOptions sets options applied to every instance the registry creates.
// The instance ID is always "kind/name".
func WithInstanceOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.instanceOpts = append(r.instanceOpts, opts...)
	}
}

// GrabOrCreate returns the live instance registered under (kind, name),
// creating one holding initial if none exists or the previous one was destroyed.
func GrabOrCreate[S any](r *Registry, kind, name string, initial S) (*Statecore[S], error) {
	return grab(r, kind, name, func() *Statecore[S] {
		opts := append(append([]Option(nil), r.instanceOpts...), WithID(kind+"/"+name))
		return New(initial, opts...)
	})
}

// GrabIfExists returns the live instance registered under (kind, name),
// or nil if there is none.
func GrabIfExists[S any](r *Registry, kind, name string) (*Statecore[S], error) {
	return grab[S](r, kind, name, nil)
}

func grab[S any](r *Registry, kind, name string, create func() *Statecore[S]) (*Statecore[S], error) {
	if kind == "" {
		return nil, ErrMissingKind
	}
	if name == "" {
		return nil, ErrMissingName
	}

	key := registryKey{kind: kind, name: name}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.instances[key]; ok {
		if !existing.IsDestroyed() {
			sc, ok := existing.(*Statecore[S])
			if !ok {
				return nil, fmt.Errorf("grab %s/%s: %w", kind, name, ErrKindMismatch)
			}
			return sc, nil
		}
		delete(r.instances, key)
		r.logger.Debug("statecore registry evicted destroyed instance", "kind", kind, "name", name)
	}

	if create == nil {
		return nil, nil
	}

	sc := create()
	r.instances[key] = sc
	r.logger.Debug("statecore registry created instance", "kind", kind, "name", name)
	return sc, nil
}

// Len returns the number of registered instances that are not destroyed
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, sc := range r.instances {
		if !sc.IsDestroyed() {
			n++
		}
	}
	return n
}

// Prune evicts every destroyed instance and returns how many were removed
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, sc := range r.instances {
		if sc.IsDestroyed() {
			delete(r.instances, key)
			removed++
		}
	}
	return removed
}

// Namespace is a typed view of a Registry bound to one kind
type Namespace[S any] struct {
	registry *Registry
	kind     string
}

// NewNamespace binds kind to r. An empty kind uses KindOf[S]().
func NewNamespace[S any](r *Registry, kind string) *Namespace[S] {
	if kind == "" {
		kind = KindOf[S]()
	}
	return &Namespace[S]{registry: r, kind: kind}
}

// Kind returns the namespace kind
func (n *Namespace[S]) Kind() string {
	return n.kind
}

// GrabOrCreate returns the live instance named name, creating it with initial if needed
func (n *Namespace[S]) GrabOrCreate(name string, initial S) (*Statecore[S], error) {
	return GrabOrCreate(n.registry, n.kind, name, initial)
}

// GrabIfExists returns the live instance named name, or nil
func (n *Namespace[S]) GrabIfExists(name string) (*Statecore[S], error) {
	return GrabIfExists[S](n.registry, n.kind, name)
}
