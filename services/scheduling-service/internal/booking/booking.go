// Package booking is the concurrency-critical write path. The slot list a
// caller saw may be minutes stale by the time they confirm; the store's
// uniqueness constraint plus the bounded retry policy here is the actual
// defense against double-booking, not the generator.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

var (
	// ErrDoubleBooking: the customer already holds a scheduled appointment
	// on or after today. Never retried.
	ErrDoubleBooking = errors.New("customer already has an active appointment")
	// ErrSlotTaken: the slot is booked, or contention retries ran out. The
	// caller should re-query the slot list.
	ErrSlotTaken = errors.New("time slot already taken")
)

var phoneRE = regexp.MustCompile(`^\+?\d{7,15}$`)

// Store is the write surface of the persistent store. CreateScheduled must
// run the customer active-booking check and the insert as one atomic unit
// and report storage.ErrActiveBooking / ErrConflict / ErrContended.
type Store interface {
	CreateScheduled(ctx context.Context, appt *model.Appointment) (string, error)
	ServiceByID(ctx context.Context, id string) (*model.ServiceOffering, error)
	StaffByID(ctx context.Context, id string) (*model.StaffMember, error)
	ListActiveStaff(ctx context.Context) ([]model.StaffMember, error)
}

// SlotSource answers "is this slot currently free" for staff resolution when
// the customer expressed no preference.
type SlotSource interface {
	GenerateSlots(ctx context.Context, staffID, date string, serviceDurationMinutes, bufferMinutes int) ([]string, error)
}

type Request struct {
	CustomerID   string
	ServiceID    string
	StaffID      string // empty means no preference
	Date         string // YYYY-MM-DD
	StartClock   string // HH:MM
	ContactName  string
	ContactPhone string
}

type Config struct {
	MaxAttempts int
	BackoffBase time.Duration
}

type Transaction struct {
	store  Store
	slots  SlotSource
	logger *slog.Logger
	cfg    Config
}

func NewTransaction(store Store, slots SlotSource, logger *slog.Logger, cfg Config) *Transaction {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 50 * time.Millisecond
	}
	return &Transaction{store: store, slots: slots, logger: logger, cfg: cfg}
}

// Book validates the request, resolves a staff member when none was chosen,
// and commits the appointment. Exactly one of any set of concurrent attempts
// on the same (staff, date, clock) succeeds; the rest get ErrSlotTaken.
func (t *Transaction) Book(ctx context.Context, req Request) (string, error) {
	if _, err := timeutil.ParseDate(req.Date); err != nil {
		return "", err
	}
	if _, err := timeutil.ToMinutes(req.StartClock); err != nil {
		return "", err
	}
	if !phoneRE.MatchString(req.ContactPhone) {
		return "", fmt.Errorf("phone %q: %w", req.ContactPhone, timeutil.ErrFormat)
	}

	svc, err := t.store.ServiceByID(ctx, req.ServiceID)
	if err != nil {
		return "", err
	}

	staffID := req.StaffID
	if staffID == "" {
		staffID, err = t.pickStaff(ctx, req.Date, req.StartClock, svc.DurationMinutes)
		if err != nil {
			return "", err
		}
	} else if _, err := t.store.StaffByID(ctx, staffID); err != nil {
		return "", err
	}

	appt := &model.Appointment{
		CustomerID:   req.CustomerID,
		ServiceID:    req.ServiceID,
		StaffID:      staffID,
		Date:         req.Date,
		StartClock:   req.StartClock,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	}

	for attempt := 0; ; attempt++ {
		id, err := t.store.CreateScheduled(ctx, appt)
		switch {
		case err == nil:
			return id, nil
		case errors.Is(err, storage.ErrActiveBooking):
			return "", ErrDoubleBooking
		case errors.Is(err, storage.ErrConflict):
			return "", ErrSlotTaken
		case errors.Is(err, storage.ErrContended):
			if attempt+1 >= t.cfg.MaxAttempts {
				// The caller cannot distinguish "truly taken" from
				// "contended", and backoff already gave it a fair chance.
				t.logger.Warn("booking retries exhausted",
					"staff_id", staffID, "date", req.Date, "clock", req.StartClock,
					"attempts", t.cfg.MaxAttempts)
				return "", ErrSlotTaken
			}
			backoff := t.cfg.BackoffBase << attempt
			t.logger.Debug("booking contended, retrying",
				"attempt", attempt+1, "backoff", backoff.String())
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		default:
			return "", err
		}
	}
}

// pickStaff resolves "no preference": the first active staff member, in name
// order, with the requested slot currently free.
func (t *Transaction) pickStaff(ctx context.Context, date, clock string, serviceDuration int) (string, error) {
	staff, err := t.store.ListActiveStaff(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range staff {
		slots, err := t.slots.GenerateSlots(ctx, s.ID, date, serviceDuration, 0)
		if err != nil {
			return "", err
		}
		for _, free := range slots {
			if free == clock {
				return s.ID, nil
			}
		}
	}
	return "", ErrSlotTaken
}
