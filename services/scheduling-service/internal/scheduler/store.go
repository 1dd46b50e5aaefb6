package scheduler

import (
	"context"

	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/storage"
)

// Store is everything the scheduler touches in the persistent store. The
// postgres implementation below delegates to the storage repositories; tests
// substitute an in-memory one.
type Store interface {
	// schedule reads
	Exception(ctx context.Context, staffID, date string) (*model.DateException, error)
	WeeklyRule(ctx context.Context, staffID string, weekday int) (*model.WeeklyScheduleRule, error)

	// appointments
	CreateScheduled(ctx context.Context, appt *model.Appointment) (string, error)
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	ScheduledIntervals(ctx context.Context, staffID, date string) ([]model.BookedInterval, error)
	ListScheduledFrom(ctx context.Context, date string) ([]model.Appointment, error)
	ListByStaffDate(ctx context.Context, staffID, date, status string) ([]model.Appointment, error)
	CancelIfScheduled(ctx context.Context, id string) (bool, error)
	CompleteIfScheduled(ctx context.Context, id string) (bool, error)
	SetReminderSent(ctx context.Context, id string, kind string) error

	// catalog
	ServiceByID(ctx context.Context, id string) (*model.ServiceOffering, error)
	StaffByID(ctx context.Context, id string) (*model.StaffMember, error)
	ListActiveStaff(ctx context.Context) ([]model.StaffMember, error)
}

type pgStore struct {
	appointments *storage.AppointmentRepository
	services     *storage.ServiceRepository
	staff        *storage.StaffRepository
	schedule     *storage.ScheduleRepository
}

func NewPGStore(pool *db.Pool) Store {
	return &pgStore{
		appointments: storage.NewAppointmentRepository(pool),
		services:     storage.NewServiceRepository(pool),
		staff:        storage.NewStaffRepository(pool),
		schedule:     storage.NewScheduleRepository(pool),
	}
}

func (s *pgStore) Exception(ctx context.Context, staffID, date string) (*model.DateException, error) {
	return s.schedule.Exception(ctx, staffID, date)
}

func (s *pgStore) WeeklyRule(ctx context.Context, staffID string, weekday int) (*model.WeeklyScheduleRule, error) {
	return s.schedule.WeeklyRule(ctx, staffID, weekday)
}

func (s *pgStore) CreateScheduled(ctx context.Context, appt *model.Appointment) (string, error) {
	return s.appointments.CreateScheduled(ctx, appt)
}

func (s *pgStore) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	return s.appointments.ByID(ctx, id)
}

func (s *pgStore) ScheduledIntervals(ctx context.Context, staffID, date string) ([]model.BookedInterval, error) {
	return s.appointments.ScheduledIntervals(ctx, staffID, date)
}

func (s *pgStore) ListScheduledFrom(ctx context.Context, date string) ([]model.Appointment, error) {
	return s.appointments.ListScheduledFrom(ctx, date)
}

func (s *pgStore) ListByStaffDate(ctx context.Context, staffID, date, status string) ([]model.Appointment, error) {
	return s.appointments.ListByStaffDate(ctx, staffID, date, status)
}

func (s *pgStore) CancelIfScheduled(ctx context.Context, id string) (bool, error) {
	return s.appointments.CancelIfScheduled(ctx, id)
}

func (s *pgStore) CompleteIfScheduled(ctx context.Context, id string) (bool, error) {
	return s.appointments.CompleteIfScheduled(ctx, id)
}

func (s *pgStore) SetReminderSent(ctx context.Context, id string, kind string) error {
	return s.appointments.SetReminderSent(ctx, id, kind)
}

func (s *pgStore) ServiceByID(ctx context.Context, id string) (*model.ServiceOffering, error) {
	return s.services.ByID(ctx, id)
}

func (s *pgStore) StaffByID(ctx context.Context, id string) (*model.StaffMember, error) {
	return s.staff.ByID(ctx, id)
}

func (s *pgStore) ListActiveStaff(ctx context.Context) ([]model.StaffMember, error) {
	return s.staff.ListActive(ctx)
}
