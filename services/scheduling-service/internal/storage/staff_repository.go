package storage

import (
	"context"

	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
)

type StaffRepository struct {
	pool *db.Pool
}

func NewStaffRepository(pool *db.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

func (r *StaffRepository) Create(ctx context.Context, name, bio, contact string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO staff (name, bio, contact)
		VALUES ($1, $2, $3)
		RETURNING id::text
	`, name, bio, contact).Scan(&id)
	if err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (r *StaffRepository) ByID(ctx context.Context, id string) (*model.StaffMember, error) {
	var s model.StaffMember
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, bio, contact, is_active, created_at
		FROM staff
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Bio, &s.Contact, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *StaffRepository) ListActive(ctx context.Context) ([]model.StaffMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, bio, contact, is_active, created_at
		FROM staff
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.StaffMember
	for rows.Next() {
		var s model.StaffMember
		if err := rows.Scan(&s.ID, &s.Name, &s.Bio, &s.Contact, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Delete removes the staff record. Schedule rules and exceptions cascade;
// historical appointments keep their denormalized staff reference.
func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
