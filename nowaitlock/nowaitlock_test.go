package nowaitlock

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWordTryAcquireIsExclusive(t *testing.T) {
	var word uint64
	w := On(&word)

	if !w.TryAcquire(0, 1) {
		t.Fatalf("first acquire should succeed on an unowned word")
	}
	if w.TryAcquire(0, 2) {
		t.Fatalf("second acquire must fail, no retry, no back-off")
	}
	if got := w.Load(); got != 1 {
		t.Fatalf("word should still hold the winner's value, got %d", got)
	}

	w.Release(42)
	if got := w.Load(); got != 42 {
		t.Fatalf("release should publish the new value, got %d", got)
	}
}

// TestOnlyOneGoroutineEverWins exercises the no-retry CAS race that orec
// eager-acquire relies on: across many concurrent single-shot attempts on
// the same word, exactly one attempt per round succeeds, never zero, never
// more than one.
func TestOnlyOneGoroutineEverWins(t *testing.T) {
	var word uint64
	w := On(&word)

	const n = 64
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(owner uint64) {
			defer wg.Done()
			if w.TryAcquire(0, owner) {
				atomic.AddInt32(&wins, 1)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
