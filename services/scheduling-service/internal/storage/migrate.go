package storage

import (
	"context"
	_ "embed"

	"github.com/mkrylova/slotserve/libs/db"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the idempotent schema. Every statement is IF NOT EXISTS,
// so running it on each boot is safe.
func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
