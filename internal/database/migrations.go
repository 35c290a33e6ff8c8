package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migrations lists the schema versions in order. Version n is migrations[n-1].
// Applied versions are never edited; schema changes append a new entry.
var migrations = [][]string{
	// Migration 1: catalog, properties and offers
	{
		`CREATE TABLE property_types (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			sequence INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT property_types_name_unique UNIQUE (name)
		)`,

		`CREATE TABLE property_tags (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			color INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT property_tags_name_unique UNIQUE (name)
		)`,

		`CREATE TABLE properties (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			postcode TEXT NOT NULL DEFAULT '',
			date_availability DATE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			owner_id BIGINT,
			bedrooms INTEGER NOT NULL DEFAULT 2,
			facades INTEGER NOT NULL DEFAULT 0,
			garage BOOLEAN NOT NULL DEFAULT FALSE,
			property_type_id BIGINT REFERENCES property_types (id) ON DELETE SET NULL,
			salesperson_id BIGINT,
			buyer_id BIGINT,
			living_area INTEGER NOT NULL DEFAULT 0,
			total_area DOUBLE PRECISION NOT NULL DEFAULT 0,
			best_offer DOUBLE PRECISION NOT NULL DEFAULT 0,
			garden BOOLEAN NOT NULL DEFAULT FALSE,
			garden_area DOUBLE PRECISION NOT NULL DEFAULT 0,
			garden_orientation TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'new',
			selling_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			expected_price DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT check_expected_price CHECK (expected_price > 0),
			CONSTRAINT check_selling_price CHECK (selling_price >= 0),
			CONSTRAINT check_state CHECK (state IN ('new', 'offer_received', 'offer_accepted', 'sold', 'cancelled')),
			CONSTRAINT check_garden_orientation CHECK (garden_orientation IN ('', 'north', 'south', 'east', 'west'))
		)`,

		`CREATE TABLE property_tag_rel (
			property_id BIGINT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
			tag_id BIGINT NOT NULL REFERENCES property_tags (id) ON DELETE CASCADE,
			PRIMARY KEY (property_id, tag_id)
		)`,

		`CREATE TABLE offers (
			id BIGSERIAL PRIMARY KEY,
			price DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			partner_id BIGINT NOT NULL,
			property_id BIGINT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
			property_type_id BIGINT REFERENCES property_types (id) ON DELETE SET NULL,
			validity INTEGER NOT NULL DEFAULT 7,
			date_deadline DATE NOT NULL,
			create_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT check_price CHECK (price > 0),
			CONSTRAINT check_validity CHECK (validity >= 0),
			CONSTRAINT check_status CHECK (status IN ('', 'accepted', 'refused'))
		)`,

		`CREATE INDEX idx_offers_property ON offers (property_id)`,
		`CREATE INDEX idx_offers_property_type ON offers (property_type_id)`,
		`CREATE INDEX idx_properties_salesperson ON properties (salesperson_id)`,
		`CREATE INDEX idx_properties_state ON properties (state)`,
	},
}

// SchemaVersion is the version reached once every migration is applied.
func SchemaVersion() int {
	return len(migrations)
}

// Migrate runs all pending schema migrations, each inside its own
// transaction. Applied versions are tracked in the schema_migrations table.
func Migrate(ctx context.Context, db *Database) error {
	if _, err := db.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmts := range migrations {
		version := i + 1

		var exists bool
		err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists {
			continue
		}

		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d: %w", version, err)
				}
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration, or 0 when none is applied.
func CurrentVersion(ctx context.Context, db *Database) (int, error) {
	var version int
	err := db.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}
