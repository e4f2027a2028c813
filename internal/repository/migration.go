package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements, applied in order by cmd/migrate. Votes reference
// credentials by id only; the unique index on (poll_id, credential_id) is
// the authoritative one-vote-per-credential arbiter.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,

	`CREATE TABLE IF NOT EXISTS meetings (
		id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_code TEXT NOT NULL UNIQUE,
		start_time   TIMESTAMPTZ NOT NULL,
		end_time     TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE TABLE IF NOT EXISTS polls (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id UUID NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (meeting_id, name)
	);`,

	`CREATE TABLE IF NOT EXISTS credentials (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id UUID NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		lookup_key TEXT NOT NULL UNIQUE,
		hash       TEXT NOT NULL,
		issued_at  TIMESTAMPTZ NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS votes (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		poll_id       UUID NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		credential_id UUID NOT NULL REFERENCES credentials(id) ON DELETE CASCADE,
		choice        CHAR(1) NOT NULL,
		voted_at      TIMESTAMPTZ NOT NULL,
		UNIQUE (poll_id, credential_id)
	);`,

	`CREATE INDEX IF NOT EXISTS idx_polls_meeting ON polls (meeting_id);`,
	`CREATE INDEX IF NOT EXISTS idx_credentials_meeting ON credentials (meeting_id);`,
	`CREATE INDEX IF NOT EXISTS idx_votes_poll ON votes (poll_id);`,
}

// InitSchema creates the tables and indexes if they do not exist. The
// statements run inside one transaction so a partially applied schema never
// survives a failed migration.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return runInTx(ctx, db, func(tx DBTX) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement: %w", err)
			}
		}
		return nil
	})
}
