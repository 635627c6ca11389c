package spinlockopt

import "testing"

func TestSpinSucceedsBeforeBound(t *testing.T) {
	calls := 0
	ok := Spin(AcquireTimeout, func() bool {
		calls++
		return calls == 5
	})
	if !ok {
		t.Fatalf("expected Spin to observe the condition before the bound")
	}
	if calls != 5 {
		t.Fatalf("expected exactly 5 calls, got %d", calls)
	}
}

func TestSpinTimesOut(t *testing.T) {
	calls := 0
	ok := Spin(ReadTimeout, func() bool {
		calls++
		return false
	})
	if ok {
		t.Fatalf("expected Spin to time out")
	}
	if calls != ReadTimeout {
		t.Fatalf("expected %d calls, got %d", ReadTimeout, calls)
	}
}
