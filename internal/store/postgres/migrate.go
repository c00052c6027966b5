package postgres

import (
	"context"
	"fmt"
)

var migrations = []struct {
	name string
	sql  string
}{
	{"car_brands", `
	CREATE TABLE IF NOT EXISTS car_brands (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		is_popular BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`},
	{"car_models", `
	CREATE TABLE IF NOT EXISTS car_models (
		id BIGSERIAL PRIMARY KEY,
		brand_id BIGINT NOT NULL REFERENCES car_brands(id),
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		year_start INTEGER,
		year_end INTEGER,
		description TEXT NOT NULL DEFAULT '',
		is_popular BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (name, brand_id)
	);`},
	{"spare_parts", `
	CREATE TABLE IF NOT EXISTS spare_parts (
		id BIGSERIAL PRIMARY KEY,
		manufacturer TEXT NOT NULL,
		part_number TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		is_available BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		weight NUMERIC(10, 3),
		dimensions TEXT NOT NULL DEFAULT '',
		category_id BIGINT,
		image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (manufacturer, part_number)
	);`},
	{"catalog_import_runs", `
	CREATE TABLE IF NOT EXISTS catalog_import_runs (
		id UUID PRIMARY KEY,
		entity TEXT NOT NULL,
		file_name TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		update_existing BOOLEAN NOT NULL,
		backup_path TEXT,
		status TEXT NOT NULL CHECK (status IN ('running', 'completed', 'failed')),
		processed INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		brands_created INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	);`},
	{"catalog_import_runs_started_at_idx", `
	CREATE INDEX IF NOT EXISTS catalog_import_runs_started_at_idx
		ON catalog_import_runs (started_at DESC);`},
}

// Migrate creates the catalog tables when they do not exist. It is safe to
// run on every start.
func Migrate(ctx context.Context, db DBTX) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}
