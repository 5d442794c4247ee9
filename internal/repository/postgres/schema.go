package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema creates every table with the uniqueness constraints the domain
// relies on. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('patient', 'guardian', 'pharmacy')),
		name          TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE INDEX IF NOT EXISTS users_phone_idx ON users (phone)`,

	`CREATE TABLE IF NOT EXISTS patients (
		id                 UUID PRIMARY KEY,
		user_id            UUID NOT NULL REFERENCES users (id),
		name               TEXT NOT NULL,
		age                INTEGER NOT NULL CHECK (age BETWEEN 0 AND 150),
		gender             TEXT NOT NULL,
		allergies          TEXT[] NOT NULL DEFAULT '{}',
		medical_conditions TEXT[] NOT NULL DEFAULT '{}',
		guardian_code      TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		CONSTRAINT patients_user_id_key UNIQUE (user_id),
		CONSTRAINT patients_guardian_code_key UNIQUE (guardian_code)
	)`,

	`CREATE TABLE IF NOT EXISTS guardians (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL REFERENCES users (id),
		name         TEXT NOT NULL,
		phone        TEXT NOT NULL,
		relationship TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		CONSTRAINT guardians_user_id_key UNIQUE (user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pharmacies (
		id                 UUID PRIMARY KEY,
		user_id            UUID NOT NULL REFERENCES users (id),
		email              TEXT NOT NULL,
		name               TEXT NOT NULL,
		address            TEXT NOT NULL,
		phone              TEXT NOT NULL,
		license_number     TEXT NOT NULL,
		is_verified        BOOLEAN NOT NULL DEFAULT FALSE,
		delivery_available BOOLEAN NOT NULL DEFAULT FALSE,
		inventory          JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at         TIMESTAMPTZ NOT NULL,
		CONSTRAINT pharmacies_user_id_key UNIQUE (user_id),
		CONSTRAINT pharmacies_email_key UNIQUE (email)
	)`,

	`CREATE TABLE IF NOT EXISTS medications (
		id              UUID PRIMARY KEY,
		patient_id      UUID NOT NULL REFERENCES patients (id),
		medication_name TEXT NOT NULL,
		dosage          TEXT NOT NULL,
		frequency       TEXT NOT NULL,
		times           TEXT[] NOT NULL CHECK (cardinality(times) > 0),
		notes           TEXT NOT NULL DEFAULT '',
		side_effects    TEXT NOT NULL DEFAULT '',
		storage         TEXT NOT NULL DEFAULT '',
		refill_date     DATE,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ,
		deactivated_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS medications_patient_id_idx ON medications (patient_id)`,

	`CREATE TABLE IF NOT EXISTS medication_logs (
		id            UUID PRIMARY KEY,
		patient_id    UUID NOT NULL REFERENCES patients (id),
		medication_id UUID NOT NULL REFERENCES medications (id) ON DELETE CASCADE,
		taken_at      TIMESTAMPTZ NOT NULL,
		date          TEXT NOT NULL,
		status        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medication_logs_patient_date_idx ON medication_logs (patient_id, date DESC)`,

	`CREATE TABLE IF NOT EXISTS symptom_logs (
		id           UUID PRIMARY KEY,
		patient_id   UUID NOT NULL REFERENCES patients (id),
		date         TEXT NOT NULL,
		mood         INTEGER NOT NULL CHECK (mood BETWEEN 1 AND 10),
		energy_level INTEGER NOT NULL CHECK (energy_level BETWEEN 1 AND 10),
		pain_level   INTEGER NOT NULL CHECK (pain_level BETWEEN 1 AND 10),
		side_effects TEXT[] NOT NULL DEFAULT '{}',
		notes        TEXT NOT NULL DEFAULT '',
		logged_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT symptom_logs_patient_date_key UNIQUE (patient_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS guardian_links (
		id          UUID PRIMARY KEY,
		patient_id  UUID NOT NULL REFERENCES patients (id),
		guardian_id UUID NOT NULL REFERENCES guardians (id),
		linked_at   TIMESTAMPTZ NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT guardian_links_pair_key UNIQUE (patient_id, guardian_id)
	)`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	base := NewBaseRepository(db)
	return base.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
