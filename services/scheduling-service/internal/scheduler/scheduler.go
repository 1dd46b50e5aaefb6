// Package scheduler ties availability resolution, slot generation, the
// booking write path and the deferred lifecycle actions into one façade the
// HTTP handlers call.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/availability"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/booking"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/lifecycle"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

type Config struct {
	BufferMinutes int
	GracePeriod   time.Duration
	Booking       booking.Config
}

type Scheduler struct {
	store        Store
	resolver     *availability.Resolver
	generator    *availability.Generator
	tx           *booking.Transaction
	reminders    *lifecycle.Reminders
	autoComplete *lifecycle.AutoComplete
	timers       *lifecycle.Timers
	notifier     lifecycle.Notifier
	logger       *slog.Logger
	buffer       int
}

func New(store Store, defaults availability.Defaults, notifier lifecycle.Notifier, reviews lifecycle.ReviewCreator, timers *lifecycle.Timers, logger *slog.Logger, cfg Config) *Scheduler {
	resolver := availability.NewResolver(store, defaults)
	generator := availability.NewGenerator(resolver, store)
	return &Scheduler{
		store:        store,
		resolver:     resolver,
		generator:    generator,
		tx:           booking.NewTransaction(store, generator, logger, cfg.Booking),
		reminders:    lifecycle.NewReminders(store, notifier, timers, logger),
		autoComplete: lifecycle.NewAutoComplete(store, reviews, notifier, timers, logger, cfg.GracePeriod),
		timers:       timers,
		notifier:     notifier,
		logger:       logger,
		buffer:       cfg.BufferMinutes,
	}
}

// Resolve reports the effective working window for (staff, date).
func (s *Scheduler) Resolve(ctx context.Context, staffID, date string) (availability.Window, bool, error) {
	return s.resolver.Resolve(ctx, staffID, date)
}

// Slots lists free "HH:MM" start times for the service on (staff, date).
func (s *Scheduler) Slots(ctx context.Context, staffID, serviceID, date string) ([]string, error) {
	svc, err := s.store.ServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return s.generator.GenerateSlots(ctx, staffID, date, svc.DurationMinutes, s.buffer)
}

// Book commits the appointment and, post-commit, arms its reminders and
// auto-completion and tells the operators. The timer arming and the
// notification never fail the booking: the row is already committed. The
// stored row is returned so callers see the staff member actually assigned
// when the request named none.
func (s *Scheduler) Book(ctx context.Context, req booking.Request) (*model.Appointment, error) {
	id, err := s.tx.Book(ctx, req)
	if err != nil {
		return nil, err
	}

	appt, err := s.store.AppointmentByID(ctx, id)
	if err != nil {
		s.logger.Error("post-book reload failed", "appointment_id", id, "err", err)
		return &model.Appointment{
			ID:           id,
			CustomerID:   req.CustomerID,
			ServiceID:    req.ServiceID,
			StaffID:      req.StaffID,
			Date:         req.Date,
			StartClock:   req.StartClock,
			Status:       model.StatusScheduled,
			ContactName:  req.ContactName,
			ContactPhone: req.ContactPhone,
		}, nil
	}
	s.armLifecycle(ctx, appt)

	msg := fmt.Sprintf("New appointment %s on %s at %s (%s, %s).",
		id, appt.Date, appt.StartClock, appt.ContactName, appt.ContactPhone)
	if err := s.notifier.NotifyOperators(ctx, msg); err != nil {
		s.logger.Error("operator notify failed", "appointment_id", id, "err", err)
	}
	return appt, nil
}

// Cancel moves a scheduled appointment to cancelled and disarms its timers.
// Cancelling an already-terminal appointment is a no-op, not an error.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	appt, err := s.store.AppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != model.StatusScheduled {
		return nil
	}
	ok, err := s.store.CancelIfScheduled(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent transition won; the appointment is terminal either way.
		return nil
	}
	s.CancelReminders(id)
	s.CancelAutoCompletion(id)
	s.logger.Info("appointment_cancelled", "appointment_id", id)

	msg := fmt.Sprintf("Appointment %s on %s at %s was cancelled.", id, appt.Date, appt.StartClock)
	if err := s.notifier.NotifyOperators(ctx, msg); err != nil {
		s.logger.Error("operator notify failed", "appointment_id", id, "err", err)
	}
	return nil
}

// Complete marks a scheduled appointment completed ahead of (or instead of)
// its auto-completion, then runs the same follow-ups: review entry and
// operator notification.
func (s *Scheduler) Complete(ctx context.Context, id string) error {
	appt, err := s.store.AppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != model.StatusScheduled {
		return nil
	}
	ok, err := s.store.CompleteIfScheduled(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.CancelReminders(id)
	s.CancelAutoCompletion(id)
	s.logger.Info("appointment_completed", "appointment_id", id)

	if err := s.autoComplete.FollowUp(ctx, appt); err != nil {
		s.logger.Error("completion follow-up failed", "appointment_id", id, "err", err)
	}
	return nil
}

// Appointments lists a staff member's appointments on a date, optionally
// filtered by status.
func (s *Scheduler) Appointments(ctx context.Context, staffID, date, status string) ([]model.Appointment, error) {
	if _, err := timeutil.ParseDate(date); err != nil {
		return nil, err
	}
	return s.store.ListByStaffDate(ctx, staffID, date, status)
}

// ArmReminders schedules the 24h and 1h reminders for an appointment.
func (s *Scheduler) ArmReminders(apptID, date, clock string) error {
	return s.reminders.Arm(apptID, date, clock)
}

func (s *Scheduler) CancelReminders(apptID string) {
	s.reminders.Cancel(apptID)
}

// ArmAutoCompletion schedules the completion sweep for an appointment.
func (s *Scheduler) ArmAutoCompletion(apptID, date, clock string, serviceDurationMinutes int) error {
	return s.autoComplete.Arm(apptID, date, clock, serviceDurationMinutes)
}

func (s *Scheduler) CancelAutoCompletion(apptID string) {
	s.timers.Cancel(apptID, lifecycle.KindAutoComplete)
}

// Rearm rebuilds the in-process timers for every scheduled appointment from
// today on. Timers do not survive a restart, so this runs once at startup.
func (s *Scheduler) Rearm(ctx context.Context) error {
	today := time.Now().Format(timeutil.DateLayout)
	appts, err := s.store.ListScheduledFrom(ctx, today)
	if err != nil {
		return err
	}
	for i := range appts {
		s.armLifecycle(ctx, &appts[i])
	}
	s.logger.Info("timers_rearmed", "count", len(appts))
	return nil
}

func (s *Scheduler) armLifecycle(ctx context.Context, appt *model.Appointment) {
	if err := s.reminders.Arm(appt.ID, appt.Date, appt.StartClock); err != nil {
		s.logger.Error("reminder arm failed", "appointment_id", appt.ID, "err", err)
	}
	duration := 0
	svc, err := s.store.ServiceByID(ctx, appt.ServiceID)
	switch {
	case err == nil:
		duration = svc.DurationMinutes
	case errors.Is(err, storage.ErrNotFound):
		// Service deleted after booking; auto-complete from the start time.
	default:
		s.logger.Error("service lookup failed", "appointment_id", appt.ID, "err", err)
	}
	if err := s.autoComplete.Arm(appt.ID, appt.Date, appt.StartClock, duration); err != nil {
		s.logger.Error("auto-complete arm failed", "appointment_id", appt.ID, "err", err)
	}
}
