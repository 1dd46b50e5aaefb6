package storage

import (
	"context"
	"fmt"

	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `
	id::text, customer_id::text, service_id::text, staff_id::text,
	date::text, start_clock, status, reminded_24h, reminded_1h,
	contact_name, contact_phone, created_at`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.ServiceID, &a.StaffID,
		&a.Date, &a.StartClock, &a.Status, &a.Reminded24h, &a.Reminded1h,
		&a.ContactName, &a.ContactPhone, &a.CreatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

// CreateScheduled runs the whole booking write as one transaction: lock the
// customer row (serializes the active-booking check between concurrent
// bookings by the same customer), verify no scheduled appointment exists on
// or after today, then insert. The partial unique index on
// (staff_id, date, start_clock) rejects slot races with ErrConflict.
func (r *AppointmentRepository) CreateScheduled(ctx context.Context, appt *model.Appointment) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var customerID string
	err = tx.QueryRow(ctx, `
		SELECT id::text FROM customers WHERE id = $1 FOR UPDATE
	`, appt.CustomerID).Scan(&customerID)
	if err != nil {
		if classify(err) == ErrNotFound {
			return "", fmt.Errorf("customer %s: %w", appt.CustomerID, ErrNotFound)
		}
		return "", classify(err)
	}

	var active int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE customer_id = $1 AND status = 'scheduled' AND date >= CURRENT_DATE
	`, appt.CustomerID).Scan(&active)
	if err != nil {
		return "", classify(err)
	}
	if active > 0 {
		return "", ErrActiveBooking
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(customer_id, service_id, staff_id, date, start_clock, status, contact_name, contact_phone)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6, $7)
		RETURNING id::text
	`, appt.CustomerID, appt.ServiceID, appt.StaffID, appt.Date, appt.StartClock,
		appt.ContactName, appt.ContactPhone).Scan(&id)
	if err != nil {
		return "", classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (r *AppointmentRepository) ByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// ScheduledIntervals returns the booked intervals for (staff, date), with
// each appointment's own service duration where the service still exists.
func (r *AppointmentRepository) ScheduledIntervals(ctx context.Context, staffID, date string) ([]model.BookedInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.start_clock, COALESCE(s.duration_minutes, 0)
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.staff_id = $1 AND a.date = $2 AND a.status = 'scheduled'
		ORDER BY a.start_clock
	`, staffID, date)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.BookedInterval
	for rows.Next() {
		var clock string
		var duration int
		if err := rows.Scan(&clock, &duration); err != nil {
			return nil, err
		}
		start, err := timeutil.ToMinutes(clock)
		if err != nil {
			return nil, err
		}
		out = append(out, model.BookedInterval{StartMinute: start, DurationMinutes: duration})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *AppointmentRepository) ListByStaffDate(ctx context.Context, staffID, date, status string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1 AND date = $2 AND ($3 = '' OR status = $3)
		ORDER BY start_clock
	`, staffID, date, status)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListScheduledFrom returns all scheduled appointments on or after the given
// date. Used on startup to re-arm deferred actions lost with the process.
func (r *AppointmentRepository) ListScheduledFrom(ctx context.Context, date string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled' AND date >= $1
		ORDER BY date, start_clock
	`, date)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// CancelIfScheduled performs the guarded scheduled→cancelled transition.
// Returns false when the appointment was not in scheduled state (or does not
// exist); the caller decides whether that matters.
func (r *AppointmentRepository) CancelIfScheduled(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'scheduled'
	`, id)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteIfScheduled performs the guarded scheduled→completed transition.
func (r *AppointmentRepository) CompleteIfScheduled(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed'
		WHERE id = $1 AND status = 'scheduled'
	`, id)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetReminderSent flips one reminder flag. The column is chosen here, never
// interpolated from caller input.
func (r *AppointmentRepository) SetReminderSent(ctx context.Context, id string, kind string) error {
	var query string
	switch kind {
	case "24h":
		query = `UPDATE appointments SET reminded_24h = TRUE WHERE id = $1`
	case "1h":
		query = `UPDATE appointments SET reminded_1h = TRUE WHERE id = $1`
	default:
		return fmt.Errorf("unknown reminder kind %q", kind)
	}
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
