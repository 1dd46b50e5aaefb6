package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
)

type memStore struct {
	mu        sync.Mutex
	appts     map[string]*model.Appointment
	completed []string
}

func newMemStore(appts ...*model.Appointment) *memStore {
	s := &memStore{appts: map[string]*model.Appointment{}}
	for _, a := range appts {
		s.appts[a.ID] = a
	}
	return s
}

func (s *memStore) AppointmentByID(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) SetReminderSent(_ context.Context, id string, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return storage.ErrNotFound
	}
	switch kind {
	case "24h":
		a.Reminded24h = true
	case "1h":
		a.Reminded1h = true
	}
	return nil
}

func (s *memStore) CompleteIfScheduled(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok || a.Status != model.StatusScheduled {
		return false, nil
	}
	a.Status = model.StatusCompleted
	s.completed = append(s.completed, id)
	return true, nil
}

type notification struct {
	customerID string
	message    string
}

type memNotifier struct {
	customer chan notification
	operator chan string
}

func newMemNotifier() *memNotifier {
	return &memNotifier{
		customer: make(chan notification, 16),
		operator: make(chan string, 16),
	}
}

func (n *memNotifier) NotifyCustomer(_ context.Context, customerID, message string) error {
	n.customer <- notification{customerID, message}
	return nil
}

func (n *memNotifier) NotifyOperators(_ context.Context, message string) error {
	n.operator <- message
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scheduledAppt(id string) *model.Appointment {
	return &model.Appointment{
		ID:         id,
		CustomerID: "cust1",
		ServiceID:  "svc1",
		StaffID:    "staff1",
		Date:       "2020-01-06",
		StartClock: "10:00",
		Status:     model.StatusScheduled,
	}
}

func TestReminders_PastInstantFiresBoth(t *testing.T) {
	store := newMemStore(scheduledAppt("a1"))
	notifier := newMemNotifier()
	timers := NewTimers()
	defer timers.Close()
	r := NewReminders(store, notifier, timers, testLogger())

	if err := r.Arm("a1", "2020-01-06", "10:00"); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case n := <-notifier.customer:
			if n.customerID != "cust1" {
				t.Fatalf("reminder for wrong customer %q", n.customerID)
			}
		case <-time.After(time.Second):
			t.Fatal("reminder did not fire")
		}
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		a, _ := store.AppointmentByID(context.Background(), "a1")
		if a.Reminded24h && a.Reminded1h {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("reminder flags not set")
}

func TestReminders_SkipsNonScheduled(t *testing.T) {
	appt := scheduledAppt("a1")
	appt.Status = model.StatusCancelled
	store := newMemStore(appt)
	notifier := newMemNotifier()
	timers := NewTimers()
	defer timers.Close()
	r := NewReminders(store, notifier, timers, testLogger())

	if err := r.Arm("a1", appt.Date, appt.StartClock); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	select {
	case n := <-notifier.customer:
		t.Fatalf("cancelled appointment got reminder %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReminders_SkipsAlreadySent(t *testing.T) {
	appt := scheduledAppt("a1")
	appt.Reminded24h = true
	appt.Reminded1h = true
	store := newMemStore(appt)
	notifier := newMemNotifier()
	timers := NewTimers()
	defer timers.Close()
	r := NewReminders(store, notifier, timers, testLogger())

	if err := r.Arm("a1", appt.Date, appt.StartClock); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	select {
	case n := <-notifier.customer:
		t.Fatalf("duplicate reminder %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReminders_SkipsMissingAppointment(t *testing.T) {
	store := newMemStore()
	notifier := newMemNotifier()
	timers := NewTimers()
	defer timers.Close()
	r := NewReminders(store, notifier, timers, testLogger())

	if err := r.Arm("ghost", "2020-01-06", "10:00"); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	select {
	case n := <-notifier.customer:
		t.Fatalf("missing appointment got reminder %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReminders_CancelDisarms(t *testing.T) {
	store := newMemStore(scheduledAppt("a1"))
	notifier := newMemNotifier()
	timers := NewTimers()
	defer timers.Close()
	r := NewReminders(store, notifier, timers, testLogger())

	if err := r.Arm("a1", "2099-01-06", "10:00"); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if !timers.Pending("a1") {
		t.Fatal("expected pending reminders")
	}
	r.Cancel("a1")
	if timers.Pending("a1") {
		t.Fatal("expected reminders disarmed")
	}
}

func TestReminders_ArmRejectsBadInput(t *testing.T) {
	store := newMemStore()
	timers := NewTimers()
	defer timers.Close()
	r := NewReminders(store, newMemNotifier(), timers, testLogger())

	if err := r.Arm("a1", "bad-date", "10:00"); err == nil {
		t.Fatal("expected error for bad date")
	}
	if err := r.Arm("a1", "2020-01-06", "99:99"); err == nil {
		t.Fatal("expected error for bad clock")
	}
}
