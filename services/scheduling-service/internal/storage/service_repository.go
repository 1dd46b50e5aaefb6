package storage

import (
	"context"

	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

func (r *ServiceRepository) Create(ctx context.Context, name, description, price string, durationMinutes int) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (name, description, price, duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, name, description, price, durationMinutes).Scan(&id)
	if err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (r *ServiceRepository) ByID(ctx context.Context, id string) (*model.ServiceOffering, error) {
	var s model.ServiceOffering
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, description, price::text, duration_minutes, created_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *ServiceRepository) List(ctx context.Context) ([]model.ServiceOffering, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, description, price::text, duration_minutes, created_at
		FROM services
		ORDER BY name
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.ServiceOffering
	for rows.Next() {
		var s model.ServiceOffering
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Update edits an existing offering. Empty strings / zero duration leave the
// corresponding column untouched.
func (r *ServiceRepository) Update(ctx context.Context, id string, name, description, price string, durationMinutes int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = COALESCE(NULLIF($2, ''), name),
			description = COALESCE(NULLIF($3, ''), description),
			price = CASE WHEN $4 = '' THEN price ELSE $4::numeric END,
			duration_minutes = CASE WHEN $5 <= 0 THEN duration_minutes ELSE $5 END
		WHERE id = $1
	`, id, name, description, price, durationMinutes)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
