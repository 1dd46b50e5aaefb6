package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"
)

type memReviews struct {
	mu      sync.Mutex
	created []string // customerID
}

func (r *memReviews) CreateDefault(_ context.Context, customerID, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, customerID)
	return nil
}

func (r *memReviews) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

func TestAutoComplete_CompletesPastAppointment(t *testing.T) {
	store := newMemStore(scheduledAppt("a1"))
	notifier := newMemNotifier()
	reviews := &memReviews{}
	timers := NewTimers()
	defer timers.Close()
	ac := NewAutoComplete(store, reviews, notifier, timers, testLogger(), time.Millisecond)

	if err := ac.Arm("a1", "2020-01-06", "10:00", 60); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	select {
	case <-notifier.operator:
	case <-time.After(time.Second):
		t.Fatal("auto-completion did not notify operators")
	}
	a, err := store.AppointmentByID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a.Status != "completed" {
		t.Fatalf("status = %q, want completed", a.Status)
	}
	if reviews.count() != 1 {
		t.Fatalf("expected 1 default review, got %d", reviews.count())
	}
}

func TestAutoComplete_SkipsTerminal(t *testing.T) {
	appt := scheduledAppt("a1")
	appt.Status = "cancelled"
	store := newMemStore(appt)
	notifier := newMemNotifier()
	reviews := &memReviews{}
	timers := NewTimers()
	defer timers.Close()
	ac := NewAutoComplete(store, reviews, notifier, timers, testLogger(), time.Millisecond)

	if err := ac.Arm("a1", "2020-01-06", "10:00", 60); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	select {
	case msg := <-notifier.operator:
		t.Fatalf("cancelled appointment auto-completed: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
	if reviews.count() != 0 {
		t.Fatal("review created for cancelled appointment")
	}
}

func TestAutoComplete_SkipsMissing(t *testing.T) {
	store := newMemStore()
	notifier := newMemNotifier()
	timers := NewTimers()
	defer timers.Close()
	ac := NewAutoComplete(store, &memReviews{}, notifier, timers, testLogger(), time.Millisecond)

	if err := ac.Arm("ghost", "2020-01-06", "10:00", 60); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	select {
	case msg := <-notifier.operator:
		t.Fatalf("missing appointment auto-completed: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAutoComplete_CancelDisarms(t *testing.T) {
	store := newMemStore(scheduledAppt("a1"))
	timers := NewTimers()
	defer timers.Close()
	ac := NewAutoComplete(store, &memReviews{}, newMemNotifier(), timers, testLogger(), time.Minute)

	if err := ac.Arm("a1", "2099-01-06", "10:00", 60); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if !timers.Pending("a1") {
		t.Fatal("expected pending auto-completion")
	}
	ac.Cancel("a1")
	if timers.Pending("a1") {
		t.Fatal("expected auto-completion disarmed")
	}
}

func TestAutoComplete_DefaultGrace(t *testing.T) {
	ac := NewAutoComplete(newMemStore(), &memReviews{}, newMemNotifier(), NewTimers(), testLogger(), 0)
	if ac.grace != DefaultGracePeriod {
		t.Fatalf("grace = %v, want %v", ac.grace, DefaultGracePeriod)
	}
}
