package stop

import (
	"sync"
	"testing"
	"time"
)

func TestRaiseIsObservedAndIdempotent(t *testing.T) {
	signal := New()
	if signal.IsRaised() {
		t.Fatalf("expected new signal to not be raised")
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			signal.Raise()
		}()
	}
	wg.Wait()

	if !signal.IsRaised() {
		t.Fatalf("expected signal to be raised")
	}

	select {
	case <-signal.Done():
	default:
		t.Fatalf("expected done channel to be closed")
	}
}

func TestSleepReturnsEarlyWhenRaised(t *testing.T) {
	signal := New()
	go func() {
		time.Sleep(20 * time.Millisecond)
		signal.Raise()
	}()

	start := time.Now()
	if completed := signal.Sleep(5 * time.Second); completed {
		t.Fatalf("expected sleep to be interrupted")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected sleep to return shortly after raise, took %s", elapsed)
	}
}

func TestSleepCompletesWhenNotRaised(t *testing.T) {
	signal := New()
	if completed := signal.Sleep(10 * time.Millisecond); !completed {
		t.Fatalf("expected sleep to complete")
	}
}

func TestNilSignalIsNeverRaised(t *testing.T) {
	var signal *Signal
	signal.Raise()
	if signal.IsRaised() {
		t.Fatalf("expected nil signal to never be raised")
	}
	if completed := signal.Sleep(time.Millisecond); !completed {
		t.Fatalf("expected nil signal sleep to complete")
	}
}
