package storage

import (
	"context"

	"github.com/mkrylova/slotserve/libs/db"
)

type ReviewRepository struct {
	pool *db.Pool
}

func NewReviewRepository(pool *db.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// CreateDefault records the default satisfaction entry written after a
// completion. Policy is upsert: a repeat completion for the same
// (customer, service, staff) triple refreshes the row instead of failing.
func (r *ReviewRepository) CreateDefault(ctx context.Context, customerID, serviceID, staffID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (customer_id, service_id, staff_id, rating)
		VALUES ($1, $2, $3, 5)
		ON CONFLICT (customer_id, service_id, staff_id) DO UPDATE
		SET rating = EXCLUDED.rating,
			created_at = now()
	`, customerID, serviceID, staffID)
	return classify(err)
}

func (r *ReviewRepository) AverageForStaff(ctx context.Context, staffID string) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE staff_id = $1
	`, staffID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, classify(err)
	}
	return avg, count, nil
}

func (r *ReviewRepository) AverageForService(ctx context.Context, serviceID string) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE service_id = $1
	`, serviceID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, classify(err)
	}
	return avg, count, nil
}
