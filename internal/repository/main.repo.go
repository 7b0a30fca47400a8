package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	user_type     TEXT NOT NULL DEFAULT 'renter',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS profile (
	user_id         TEXT PRIMARY KEY,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	province        TEXT NOT NULL DEFAULT '',
	postal_code     TEXT NOT NULL DEFAULT '',
	occupation      TEXT NOT NULL DEFAULT '',
	monthly_income  NUMERIC(12,2),
	reference       TEXT NOT NULL DEFAULT '',
	company_name    TEXT NOT NULL DEFAULT '',
	business_number TEXT NOT NULL DEFAULT '',
	property_count  INTEGER,
	experience      TEXT NOT NULL DEFAULT '',
	user_type       TEXT NOT NULL DEFAULT 'renter',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS properties (
	id            TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	price         NUMERIC(10,2) NOT NULL,
	bedrooms      INTEGER NOT NULL,
	bathrooms     INTEGER NOT NULL,
	street        TEXT NOT NULL,
	city          TEXT NOT NULL,
	province      TEXT NOT NULL,
	postal_code   TEXT NOT NULL,
	property_type TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS properties_city_idx ON properties (lower(city));
`

// Migrate creates the tables this service owns when they are missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
