package statecore

import (
	"fmt"
	"testing"
)

func noopObserver(event Event, args ...any) (any, error) {
	return nil, nil
}

// Benchmark state changes with a growing number of observers
func BenchmarkSetState(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("observers_%d", n), func(b *testing.B) {
			sc := New(0)
			for i := 0; i < n; i++ {
				sc.AddObserver(noopObserver)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				sc.SetState(i)
			}
		})
	}
}

// Benchmark custom events where only one observer in ten matches
func BenchmarkNotifyFiltered(b *testing.B) {
	sc := New(0)
	for i := 0; i < 100; i++ {
		sc.AddFilteredObserver([]any{Event(fmt.Sprintf("event-%d", i%10))}, noopObserver)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc.Notify("event-3", i)
	}
}

// Benchmark add/remove churn, which copies the observer slice each time
func BenchmarkAddRemoveObserver(b *testing.B) {
	sc := New(0)
	for i := 0; i < 50; i++ {
		sc.AddObserver(noopObserver)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		remove, _ := sc.AddObserver(noopObserver)
		remove()
	}
}

// Benchmark concurrent state changes
func BenchmarkConcurrentSetState(b *testing.B) {
	sc := New(0)
	sc.AddObserver(noopObserver)

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			sc.SetState(i)
			i++
		}
	})
}

// Benchmark registry lookups of an existing instance
func BenchmarkGrabOrCreate(b *testing.B) {
	reg := NewRegistry()
	ns := NewNamespace[int](reg, "bench")
	ns.GrabOrCreate("hot", 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ns.GrabOrCreate("hot", 0)
	}
}
