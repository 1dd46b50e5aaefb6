package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

type slotKey struct {
	staffID string
	date    string
	clock   string
}

// fakeStore mimics the store's booking guarantees in memory: one scheduled
// appointment per slot, one active appointment per customer. contendFirst
// makes the first N creates fail with ErrContended to exercise the retry
// loop.
type fakeStore struct {
	mu           sync.Mutex
	slots        map[slotKey]string
	activeByCust map[string]bool
	services     map[string]*model.ServiceOffering
	staff        []model.StaffMember
	contendFirst int
	creates      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots:        make(map[slotKey]string),
		activeByCust: make(map[string]bool),
		services: map[string]*model.ServiceOffering{
			"svc1": {ID: "svc1", Name: "Haircut", DurationMinutes: 60},
		},
		staff: []model.StaffMember{
			{ID: "staff1", Name: "Anna", IsActive: true},
			{ID: "staff2", Name: "Boris", IsActive: true},
		},
	}
}

func (s *fakeStore) CreateScheduled(_ context.Context, appt *model.Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.contendFirst > 0 {
		s.contendFirst--
		return "", storage.ErrContended
	}
	if s.activeByCust[appt.CustomerID] {
		return "", storage.ErrActiveBooking
	}
	key := slotKey{appt.StaffID, appt.Date, appt.StartClock}
	if _, taken := s.slots[key]; taken {
		return "", storage.ErrConflict
	}
	id := uuid.NewString()
	s.slots[key] = id
	s.activeByCust[appt.CustomerID] = true
	return id, nil
}

func (s *fakeStore) ServiceByID(_ context.Context, id string) (*model.ServiceOffering, error) {
	if svc, ok := s.services[id]; ok {
		return svc, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) StaffByID(_ context.Context, id string) (*model.StaffMember, error) {
	for i := range s.staff {
		if s.staff[i].ID == id {
			return &s.staff[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) ListActiveStaff(_ context.Context) ([]model.StaffMember, error) {
	return s.staff, nil
}

// fakeSlots reports the same free slots for every staff member.
type fakeSlots struct {
	free map[string][]string // staffID -> clocks
}

func (f *fakeSlots) GenerateSlots(_ context.Context, staffID, _ string, _, _ int) ([]string, error) {
	return f.free[staffID], nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRequest(customerID string) Request {
	return Request{
		CustomerID:   customerID,
		ServiceID:    "svc1",
		StaffID:      "staff1",
		Date:         "2026-03-09",
		StartClock:   "10:00",
		ContactName:  "Ivan",
		ContactPhone: "+79990001122",
	}
}

func TestBook_Success(t *testing.T) {
	store := newFakeStore()
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{})

	id, err := tx.Book(context.Background(), validRequest("cust1"))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if id == "" {
		t.Fatal("expected appointment id")
	}
}

func TestBook_SameSlotConcurrently(t *testing.T) {
	store := newFakeStore()
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{})

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest(uuid.NewString())
			_, errs[i] = tx.Book(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotTaken):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winner, got %d", won)
	}
	if lost != attempts-1 {
		t.Fatalf("expected %d losers, got %d", attempts-1, lost)
	}
}

func TestBook_SecondActiveBookingRejected(t *testing.T) {
	store := newFakeStore()
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{})

	if _, err := tx.Book(context.Background(), validRequest("cust1")); err != nil {
		t.Fatalf("first Book: %v", err)
	}
	req := validRequest("cust1")
	req.StartClock = "12:00"
	if _, err := tx.Book(context.Background(), req); !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("expected ErrDoubleBooking, got %v", err)
	}
}

func TestBook_RetriesContentionThenSucceeds(t *testing.T) {
	store := newFakeStore()
	store.contendFirst = 2
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{BackoffBase: time.Millisecond})

	id, err := tx.Book(context.Background(), validRequest("cust1"))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if id == "" {
		t.Fatal("expected appointment id")
	}
	if store.creates != 3 {
		t.Fatalf("expected 3 attempts, got %d", store.creates)
	}
}

func TestBook_ContentionExhaustion(t *testing.T) {
	store := newFakeStore()
	store.contendFirst = 100
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{MaxAttempts: 3, BackoffBase: time.Millisecond})

	if _, err := tx.Book(context.Background(), validRequest("cust1")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken after exhaustion, got %v", err)
	}
	if store.creates != 3 {
		t.Fatalf("expected 3 attempts, got %d", store.creates)
	}
}

func TestBook_ValidatesInput(t *testing.T) {
	store := newFakeStore()
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{})

	req := validRequest("cust1")
	req.Date = "03/09/2026"
	if _, err := tx.Book(context.Background(), req); !errors.Is(err, timeutil.ErrFormat) {
		t.Fatalf("bad date: expected ErrFormat, got %v", err)
	}

	req = validRequest("cust1")
	req.StartClock = "25:00"
	if _, err := tx.Book(context.Background(), req); !errors.Is(err, timeutil.ErrFormat) {
		t.Fatalf("bad clock: expected ErrFormat, got %v", err)
	}

	for _, phone := range []string{"", "12345", "phone", "+7 999 000 11 22", "+123456789012345678"} {
		req = validRequest("cust1")
		req.ContactPhone = phone
		if _, err := tx.Book(context.Background(), req); !errors.Is(err, timeutil.ErrFormat) {
			t.Fatalf("phone %q: expected ErrFormat, got %v", phone, err)
		}
	}
	if store.creates != 0 {
		t.Fatalf("validation failures must not reach the store, got %d creates", store.creates)
	}
}

func TestBook_UnknownService(t *testing.T) {
	store := newFakeStore()
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{})

	req := validRequest("cust1")
	req.ServiceID = "nope"
	if _, err := tx.Book(context.Background(), req); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBook_NoPreferencePicksFirstFreeStaff(t *testing.T) {
	store := newFakeStore()
	slots := &fakeSlots{free: map[string][]string{
		"staff1": {"09:00"},
		"staff2": {"09:00", "10:00"},
	}}
	tx := NewTransaction(store, slots, discard(), Config{})

	req := validRequest("cust1")
	req.StaffID = ""
	if _, err := tx.Book(context.Background(), req); err != nil {
		t.Fatalf("Book: %v", err)
	}
	key := slotKey{"staff2", req.Date, "10:00"}
	if _, ok := store.slots[key]; !ok {
		t.Fatalf("expected booking with staff2 at 10:00, slots: %v", store.slots)
	}
}

func TestBook_NoPreferenceNoFreeStaff(t *testing.T) {
	store := newFakeStore()
	tx := NewTransaction(store, &fakeSlots{}, discard(), Config{})

	req := validRequest("cust1")
	req.StaffID = ""
	if _, err := tx.Book(context.Background(), req); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}
