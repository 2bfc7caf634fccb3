package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NULL,
		expires_at TIMESTAMPTZ NULL,
		name TEXT NOT NULL DEFAULT '',
		first_name TEXT NULL,
		last_name TEXT NULL,
		avatar_url TEXT NULL,
		email TEXT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (provider, provider_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credentials_user_provider ON credentials (user_id, provider)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_credentials_default ON credentials (user_id, provider) WHERE is_default`,
	`CREATE TABLE IF NOT EXISTS publications (
		id BIGSERIAL PRIMARY KEY,
		content_id BIGINT NOT NULL REFERENCES contents(id) ON DELETE CASCADE,
		platform TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		platform_post_id TEXT NULL,
		published_at TIMESTAMPTZ NULL,
		error_message TEXT NULL,
		views BIGINT NOT NULL DEFAULT 0,
		likes BIGINT NOT NULL DEFAULT 0,
		comments BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (content_id, platform)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publications_status ON publications (status)`,
}

// EnsureSchema creates the credential and publication tables and adds columns introduced later.
// The contents table must exist first, see ContentRepository.AutoMigrate.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"publications", "attempt_count", "ALTER TABLE publications ADD COLUMN attempt_count INT NOT NULL DEFAULT 0"},
		{"publications", "social_account_id", "ALTER TABLE publications ADD COLUMN social_account_id BIGINT NULL REFERENCES credentials(id) ON DELETE SET NULL"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
