package db

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schema string

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
