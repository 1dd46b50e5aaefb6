package storage

import (
	"context"
	"database/sql"

	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
)

// ScheduleRepository persists weekly schedule rules and date exceptions.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// ReplaceWeeklyRule sets the single rule for (staff, weekday), atomically
// replacing any prior one. slotIntervalMinutes <= 0 stores NULL.
func (r *ScheduleRepository) ReplaceWeeklyRule(ctx context.Context, rule model.WeeklyScheduleRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM weekly_schedule_rules
		WHERE staff_id = $1 AND weekday = $2
	`, rule.StaffID, rule.Weekday); err != nil {
		return classify(err)
	}

	var interval sql.NullInt32
	if rule.SlotIntervalMinutes > 0 {
		interval = sql.NullInt32{Int32: int32(rule.SlotIntervalMinutes), Valid: true}
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO weekly_schedule_rules (staff_id, weekday, start_clock, end_clock, slot_interval_minutes)
		VALUES ($1, $2, $3, $4, $5)
	`, rule.StaffID, rule.Weekday, rule.StartClock, rule.EndClock, interval); err != nil {
		return classify(err)
	}

	return classify(tx.Commit(ctx))
}

// WeeklyRule returns the rule for (staff, weekday), or nil when none exists.
func (r *ScheduleRepository) WeeklyRule(ctx context.Context, staffID string, weekday int) (*model.WeeklyScheduleRule, error) {
	var rule model.WeeklyScheduleRule
	var interval sql.NullInt32
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, staff_id::text, weekday, start_clock, end_clock, slot_interval_minutes
		FROM weekly_schedule_rules
		WHERE staff_id = $1 AND weekday = $2
	`, staffID, weekday).Scan(&rule.ID, &rule.StaffID, &rule.Weekday, &rule.StartClock, &rule.EndClock, &interval)
	if err != nil {
		if classify(err) == ErrNotFound {
			return nil, nil
		}
		return nil, classify(err)
	}
	if interval.Valid {
		rule.SlotIntervalMinutes = int(interval.Int32)
	}
	return &rule, nil
}

// UpsertException writes the single exception row for (staff, date).
func (r *ScheduleRepository) UpsertException(ctx context.Context, exc model.DateException) error {
	start := sql.NullString{String: exc.StartClock, Valid: exc.StartClock != ""}
	end := sql.NullString{String: exc.EndClock, Valid: exc.EndClock != ""}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO date_exceptions (staff_id, date, available, start_clock, end_clock, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (staff_id, date) DO UPDATE
		SET available = EXCLUDED.available,
			start_clock = EXCLUDED.start_clock,
			end_clock = EXCLUDED.end_clock,
			note = EXCLUDED.note
	`, exc.StaffID, exc.Date, exc.Available, start, end, exc.Note)
	return classify(err)
}

// Exception returns the date exception for (staff, date), or nil when none
// exists.
func (r *ScheduleRepository) Exception(ctx context.Context, staffID, date string) (*model.DateException, error) {
	var exc model.DateException
	var start, end sql.NullString
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, staff_id::text, date::text, available, start_clock, end_clock, note
		FROM date_exceptions
		WHERE staff_id = $1 AND date = $2
	`, staffID, date).Scan(&exc.ID, &exc.StaffID, &exc.Date, &exc.Available, &start, &end, &exc.Note)
	if err != nil {
		if classify(err) == ErrNotFound {
			return nil, nil
		}
		return nil, classify(err)
	}
	exc.StartClock = start.String
	exc.EndClock = end.String
	return &exc, nil
}

func (r *ScheduleRepository) ListExceptions(ctx context.Context, staffID string) ([]model.DateException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, staff_id::text, date::text, available, start_clock, end_clock, note
		FROM date_exceptions
		WHERE staff_id = $1
		ORDER BY date DESC
	`, staffID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.DateException
	for rows.Next() {
		var exc model.DateException
		var start, end sql.NullString
		if err := rows.Scan(&exc.ID, &exc.StaffID, &exc.Date, &exc.Available, &start, &end, &exc.Note); err != nil {
			return nil, err
		}
		exc.StartClock = start.String
		exc.EndClock = end.String
		out = append(out, exc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
