package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

// Reminders arms the 24h and 1h customer reminders for an appointment.
type Reminders struct {
	store    Store
	notifier Notifier
	timers   *Timers
	logger   *slog.Logger
	now      func() time.Time
}

func NewReminders(store Store, notifier Notifier, timers *Timers, logger *slog.Logger) *Reminders {
	return &Reminders{
		store:    store,
		notifier: notifier,
		timers:   timers,
		logger:   logger,
		now:      time.Now,
	}
}

const (
	remind24hBefore = 24 * time.Hour
	remind1hBefore  = time.Hour
)

// Arm schedules both reminders relative to the appointment instant. An
// instant already closer than an offset fires that reminder immediately; the
// status and flag guards in fire keep that harmless.
func (r *Reminders) Arm(apptID, date, clock string) error {
	at, err := timeutil.At(date, clock)
	if err != nil {
		return err
	}
	now := r.now()
	r.timers.Schedule(apptID, KindRemind24h, at.Add(-remind24hBefore).Sub(now), func() {
		r.fire(apptID, KindRemind24h)
	})
	r.timers.Schedule(apptID, KindRemind1h, at.Add(-remind1hBefore).Sub(now), func() {
		r.fire(apptID, KindRemind1h)
	})
	return nil
}

// Cancel drops any still-pending reminders. Unknown ids are a no-op.
func (r *Reminders) Cancel(apptID string) {
	r.timers.Cancel(apptID, KindRemind24h, KindRemind1h)
}

// fire re-checks everything against fresh store state before sending. Each
// flag sends at most once, even if the reminder was re-armed.
func (r *Reminders) fire(apptID string, kind Kind) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	appt, err := r.store.AppointmentByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Info("reminder_skip", "appointment_id", apptID, "reason", "not_found")
			return
		}
		r.logger.Error("reminder reload failed", "appointment_id", apptID, "err", err)
		return
	}
	if appt.Status != model.StatusScheduled {
		r.logger.Info("reminder_skip", "appointment_id", apptID, "reason", "not_scheduled", "status", appt.Status)
		return
	}
	sent := appt.Reminded24h
	if kind == KindRemind1h {
		sent = appt.Reminded1h
	}
	if sent {
		r.logger.Info("reminder_skip", "appointment_id", apptID, "reason", "already_sent", "kind", string(kind))
		return
	}

	var message string
	if kind == KindRemind24h {
		message = fmt.Sprintf("Reminder: you have an appointment tomorrow, %s at %s.", appt.Date, appt.StartClock)
	} else {
		message = fmt.Sprintf("Reminder: your appointment today is at %s. See you soon!", appt.StartClock)
	}
	if err := r.notifier.NotifyCustomer(ctx, appt.CustomerID, message); err != nil {
		r.logger.Error("reminder notify failed", "appointment_id", apptID, "kind", string(kind), "err", err)
		return
	}
	if err := r.store.SetReminderSent(ctx, apptID, string(kind)); err != nil {
		r.logger.Error("reminder flag update failed", "appointment_id", apptID, "kind", string(kind), "err", err)
		return
	}
	r.logger.Info("reminder_sent", "appointment_id", apptID, "kind", string(kind))
}
