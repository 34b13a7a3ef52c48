package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		userid     SERIAL PRIMARY KEY,
		name       VARCHAR(100) NOT NULL DEFAULT '',
		email      VARCHAR(150) UNIQUE NOT NULL,
		bookings   INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS emails (
		emailid     SERIAL PRIMARY KEY,
		userid      INTEGER REFERENCES users(userid) ON DELETE CASCADE,
		sender      VARCHAR(150) NOT NULL,
		header      VARCHAR(255),
		body        TEXT,
		received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		sessionid        VARCHAR(64) PRIMARY KEY,
		userid           INTEGER REFERENCES users(userid) ON DELETE CASCADE,
		user_preferences JSONB NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS flights (
		flightid   SERIAL PRIMARY KEY,
		userid     INTEGER REFERENCES users(userid) ON DELETE CASCADE,
		sessionid  VARCHAR(64),
		departure  VARCHAR(10),
		arrival    VARCHAR(10),
		currency   VARCHAR(10),
		price      NUMERIC(10,2),
		airline    VARCHAR(100),
		details    JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_userid ON emails(userid)`,
}

// EnsureSchema creates the tables the assistant needs if they are missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
