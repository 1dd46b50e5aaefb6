package storage

import (
	"context"

	"github.com/mkrylova/slotserve/libs/db"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
)

type CustomerRepository struct {
	pool *db.Pool
}

func NewCustomerRepository(pool *db.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetOrCreate resolves a customer by the identity the presentation layer
// validated (e.g. a chat user id), creating the row on first contact.
func (r *CustomerRepository) GetOrCreate(ctx context.Context, externalID, name, phone string) (*model.Customer, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (external_id, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO NOTHING
	`, externalID, name, phone)
	if err != nil {
		return nil, classify(err)
	}

	var c model.Customer
	err = r.pool.QueryRow(ctx, `
		SELECT id::text, external_id, name, phone, created_at
		FROM customers
		WHERE external_id = $1
	`, externalID).Scan(&c.ID, &c.ExternalID, &c.Name, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (r *CustomerRepository) ByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, external_id, name, phone, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.ExternalID, &c.Name, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}
