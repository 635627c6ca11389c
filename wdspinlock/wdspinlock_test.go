package wdspinlock

import (
	"sync"
	"testing"
)

func TestGatekeeperRaiseIsExclusive(t *testing.T) {
	var g Gatekeeper
	if !g.Raise() {
		t.Fatalf("first raise should succeed")
	}
	if g.Raise() {
		t.Fatalf("second raise should fail while already raised")
	}
	if !g.Raised() {
		t.Fatalf("gate should report raised")
	}
	g.Clear()
	if g.Raised() {
		t.Fatalf("gate should report clear after Clear")
	}
	if !g.Raise() {
		t.Fatalf("raise should succeed again once cleared")
	}
}

func TestGatekeeperConcurrentRaiseHasOneWinner(t *testing.T) {
	var g Gatekeeper
	const n = 32
	var wg sync.WaitGroup
	wins := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if g.Raise() {
				wins <- id
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one raiser to win, got %d", count)
	}
}
