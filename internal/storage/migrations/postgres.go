package migrations

import (
	"context"
	"fmt"

	"dynamic-pricing/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded PostgreSQL schema. Every file
// uses IF NOT EXISTS, so reruns are no-ops.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := List(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}
	return nil
}
