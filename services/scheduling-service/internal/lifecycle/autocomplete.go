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

// DefaultGracePeriod is the delay past an appointment's nominal end before
// it is considered finished.
const DefaultGracePeriod = 15 * time.Minute

// AutoComplete transitions appointments to completed once their end time
// plus a grace period has passed, then triggers the downstream review and
// operator-notification side effects.
type AutoComplete struct {
	store    Store
	reviews  ReviewCreator
	notifier Notifier
	timers   *Timers
	logger   *slog.Logger
	grace    time.Duration
	now      func() time.Time
}

func NewAutoComplete(store Store, reviews ReviewCreator, notifier Notifier, timers *Timers, logger *slog.Logger, grace time.Duration) *AutoComplete {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &AutoComplete{
		store:    store,
		reviews:  reviews,
		notifier: notifier,
		timers:   timers,
		logger:   logger,
		grace:    grace,
		now:      time.Now,
	}
}

// Arm schedules auto-completion at start + duration + grace. Appointments
// already past that instant complete immediately.
func (a *AutoComplete) Arm(apptID, date, clock string, serviceDurationMinutes int) error {
	at, err := timeutil.At(date, clock)
	if err != nil {
		return err
	}
	fireAt := at.Add(time.Duration(serviceDurationMinutes)*time.Minute + a.grace)
	a.timers.Schedule(apptID, KindAutoComplete, fireAt.Sub(a.now()), func() {
		a.fire(apptID)
	})
	return nil
}

// Cancel drops a still-pending auto-completion. Unknown ids are a no-op.
func (a *AutoComplete) Cancel(apptID string) {
	a.timers.Cancel(apptID, KindAutoComplete)
}

// fire performs the guarded scheduled→completed transition. Terminal states
// are sinks: an appointment manually completed or cancelled in the meantime
// is left untouched. The review and notification that follow are
// best-effort and never undo the committed transition.
func (a *AutoComplete) fire(apptID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	appt, err := a.store.AppointmentByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.logger.Info("auto_complete_skip", "appointment_id", apptID, "reason", "not_found")
			return
		}
		a.logger.Error("auto-complete reload failed", "appointment_id", apptID, "err", err)
		return
	}
	if appt.Status != model.StatusScheduled {
		a.logger.Info("auto_complete_skip", "appointment_id", apptID, "reason", appt.Status)
		return
	}

	ok, err := a.store.CompleteIfScheduled(ctx, apptID)
	if err != nil {
		a.logger.Error("auto-complete transition failed", "appointment_id", apptID, "err", err)
		return
	}
	if !ok {
		// Lost the race with a manual transition between reload and update.
		a.logger.Info("auto_complete_skip", "appointment_id", apptID, "reason", "preempted")
		return
	}
	a.logger.Info("auto_complete", "appointment_id", apptID, "status_change", "scheduled->completed")

	if err := a.FollowUp(ctx, appt); err != nil {
		a.logger.Error("completion follow-up failed", "appointment_id", apptID, "err", err)
	}
}

// FollowUp records the default review entry and tells the operators. Shared
// by the timer path and manual completion; both effects are attempted even
// when the first fails.
func (a *AutoComplete) FollowUp(ctx context.Context, appt *model.Appointment) error {
	var errs []error
	if err := a.reviews.CreateDefault(ctx, appt.CustomerID, appt.ServiceID, appt.StaffID); err != nil {
		errs = append(errs, fmt.Errorf("default review: %w", err))
	}
	msg := fmt.Sprintf("Appointment %s (%s %s) completed.", appt.ID, appt.Date, appt.StartClock)
	if err := a.notifier.NotifyOperators(ctx, msg); err != nil {
		errs = append(errs, fmt.Errorf("operator notify: %w", err))
	}
	return errors.Join(errs...)
}
