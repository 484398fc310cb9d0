package statecore

import (
	"errors"
	"testing"
)

type session struct {
	User string
}

type labeled struct{}

func (labeled) StatecoreKind() string { return "labeled" }

func TestGrabOrCreate(t *testing.T) {
	reg := NewRegistry()

	a1, err := GrabOrCreate(reg, "counter", "instanceA", 1)
	if err != nil {
		t.Fatalf("GrabOrCreate() failed: %v", err)
	}
	if a1.State() != 1 {
		t.Errorf("State() = %d, want 1", a1.State())
	}
	if a1.ID() != "counter/instanceA" {
		t.Errorf("ID() = %q, want counter/instanceA", a1.ID())
	}

	a2, err := GrabOrCreate(reg, "counter", "instanceA", 99)
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 {
		t.Error("second grab returned a different instance")
	}
	if a2.State() != 1 {
		t.Errorf("existing instance was reseeded: %d", a2.State())
	}

	b1, err := GrabOrCreate(reg, "counter", "instanceB", 2)
	if err != nil {
		t.Fatal(err)
	}
	if b1 == a1 {
		t.Error("different names returned the same instance")
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}

func TestGrabAfterDestroy(t *testing.T) {
	reg := NewRegistry()

	a1, _ := GrabOrCreate(reg, "counter", "instanceA", 1)
	if err := a1.Destroy(); err != nil {
		t.Fatal(err)
	}

	if got, err := GrabIfExists[int](reg, "counter", "instanceA"); err != nil || got != nil {
		t.Fatalf("GrabIfExists() after destroy = %v, %v; want nil, nil", got, err)
	}

	a3, err := GrabOrCreate(reg, "counter", "instanceA", 3)
	if err != nil {
		t.Fatal(err)
	}
	if a3 == a1 {
		t.Error("destroyed instance was returned")
	}
	if a3.State() != 3 {
		t.Errorf("State() = %d, want 3", a3.State())
	}

	a4, _ := GrabIfExists[int](reg, "counter", "instanceA")
	if a4 != a3 {
		t.Error("GrabIfExists() did not return the live instance")
	}
}

func TestGrabIfExistsMissing(t *testing.T) {
	reg := NewRegistry()

	got, err := GrabIfExists[int](reg, "counter", "instanceC")
	if err != nil {
		t.Fatalf("GrabIfExists() failed: %v", err)
	}
	if got != nil {
		t.Errorf("GrabIfExists() = %v, want nil", got)
	}
	if reg.Len() != 0 {
		t.Errorf("GrabIfExists() created an entry")
	}
}

func TestGrabValidation(t *testing.T) {
	reg := NewRegistry()

	if _, err := GrabOrCreate(reg, "counter", "", 0); !errors.Is(err, ErrMissingName) {
		t.Errorf("GrabOrCreate(\"\") error = %v, want ErrMissingName", err)
	}
	if _, err := GrabIfExists[int](reg, "counter", ""); !errors.Is(err, ErrMissingName) {
		t.Errorf("GrabIfExists(\"\") error = %v, want ErrMissingName", err)
	}
	if _, err := GrabOrCreate(reg, "", "x", 0); !errors.Is(err, ErrMissingKind) {
		t.Errorf("GrabOrCreate() without kind error = %v, want ErrMissingKind", err)
	}
}

func TestGrabKindMismatch(t *testing.T) {
	reg := NewRegistry()

	if _, err := GrabOrCreate(reg, "shared", "x", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := GrabOrCreate(reg, "shared", "x", "one"); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("GrabOrCreate() with another type error = %v, want ErrKindMismatch", err)
	}
	if _, err := GrabIfExists[string](reg, "shared", "x"); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("GrabIfExists() with another type error = %v, want ErrKindMismatch", err)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	reg := NewRegistry()
	base := NewNamespace[session](reg, "session")
	sub := NewNamespace[session](reg, "admin-session")

	subInstance, err := sub.GrabOrCreate("shared", session{User: "root"})
	if err != nil {
		t.Fatal(err)
	}
	var subObserved bool
	subInstance.AddObserver(func(event Event, args ...any) (any, error) {
		subObserved = true
		return nil, nil
	})

	baseInstance, err := base.GrabOrCreate("shared", session{User: "root"})
	if err != nil {
		t.Fatal(err)
	}
	if baseInstance == subInstance {
		t.Fatal("namespaces share an instance")
	}
	if baseInstance.State() != subInstance.State() {
		t.Error("instances were not seeded with the same value")
	}

	baseInstance.SetState(session{User: "guest"})
	if subInstance.State().User != "root" {
		t.Error("changing one namespace affected the other")
	}
	if subObserved {
		t.Error("observer on the other namespace was notified")
	}
}

func TestNamespaceKind(t *testing.T) {
	reg := NewRegistry()

	if got := NewNamespace[session](reg, "custom").Kind(); got != "custom" {
		t.Errorf("Kind() = %q, want custom", got)
	}
	if got := NewNamespace[session](reg, "").Kind(); got != "statecore.session" {
		t.Errorf("Kind() = %q, want statecore.session", got)
	}
	if got := NewNamespace[labeled](reg, "").Kind(); got != "labeled" {
		t.Errorf("Kind() = %q, want labeled", got)
	}
	if got := KindOf[*session](); got != "*statecore.session" {
		t.Errorf("KindOf[*session]() = %q", got)
	}

	ns := NewNamespace[labeled](reg, "")
	sc, err := ns.GrabOrCreate("one", labeled{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := ns.GrabIfExists("one")
	if err != nil || got != sc {
		t.Errorf("GrabIfExists() = %v, %v", got, err)
	}
}

func TestRegistryPrune(t *testing.T) {
	reg := NewRegistry()

	a, _ := GrabOrCreate(reg, "k", "a", 1)
	GrabOrCreate(reg, "k", "b", 2)
	a.Destroy()

	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if removed := reg.Prune(); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if removed := reg.Prune(); removed != 0 {
		t.Errorf("second Prune() = %d, want 0", removed)
	}
}

func TestRegistryInstanceOptions(t *testing.T) {
	var handled int
	reg := NewRegistry(
		WithRegistryLogger(nil),
		WithInstanceOptions(WithErrorHandler(func(*ObserverError) { handled++ })),
	)

	sc, err := GrabOrCreate(reg, "k", "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	sc.AddObserver(func(Event, ...any) (any, error) {
		return nil, errors.New("fail")
	})
	sc.SetState(1)

	if handled != 1 {
		t.Errorf("error handler called %d times, want 1", handled)
	}
}
