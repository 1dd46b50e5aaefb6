package lifecycle

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimers_FiresOnce(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()

	fired := make(chan struct{})
	timers.Schedule("a1", KindRemind1h, time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	waitNotPending(t, timers, "a1")
}

func TestTimers_NegativeDelayFiresImmediately(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()

	fired := make(chan struct{})
	timers.Schedule("a1", KindRemind24h, -time.Hour, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimers_RescheduleReplaces(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()

	var first, second atomic.Int32
	timers.Schedule("a1", KindRemind1h, time.Hour, func() { first.Add(1) })
	fired := make(chan struct{})
	timers.Schedule("a1", KindRemind1h, time.Millisecond, func() {
		second.Add(1)
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}
	if first.Load() != 0 {
		t.Fatal("replaced timer fired")
	}
}

func TestTimers_Cancel(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()

	var fired atomic.Int32
	timers.Schedule("a1", KindRemind1h, 10*time.Millisecond, func() { fired.Add(1) })
	timers.Schedule("a1", KindAutoComplete, 10*time.Millisecond, func() { fired.Add(1) })
	timers.Cancel("a1", KindRemind1h, KindAutoComplete)

	if timers.Pending("a1") {
		t.Fatal("expected nothing pending after cancel")
	}
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("cancelled timers fired %d times", fired.Load())
	}
}

func TestTimers_CancelUnknownIsNoop(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()
	timers.Cancel("missing", KindRemind24h)
}

func TestTimers_CloseStopsEverything(t *testing.T) {
	timers := NewTimers()

	var fired atomic.Int32
	timers.Schedule("a1", KindRemind1h, 10*time.Millisecond, func() { fired.Add(1) })
	timers.Close()

	timers.Schedule("a2", KindRemind1h, time.Millisecond, func() { fired.Add(1) })
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("timers fired %d times after Close", fired.Load())
	}
	if timers.Pending("a2") {
		t.Fatal("Schedule after Close must be ignored")
	}
}

func waitNotPending(t *testing.T, timers *Timers, apptID string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !timers.Pending(apptID) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timer for %s still pending", apptID)
}
