// Package admin provides destructive maintenance operations on the catalog
// tables.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// ResetTimeout is the maximum duration for a reset.
const ResetTimeout = 30 * time.Second

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// resetStatements empties one entity. Brands go with their models because
// a brand only exists through a car-model import.
var resetStatements = map[catalog.Entity]string{
	catalog.EntitySpareParts: "TRUNCATE spare_parts RESTART IDENTITY",
	catalog.EntityCarModels:  "TRUNCATE car_models, car_brands RESTART IDENTITY CASCADE",
}

const resetHistory = "TRUNCATE catalog_import_runs"

// Reset truncates catalog tables.
type Reset struct {
	DB Execer
}

// Entities empties the tables of each entity in order. The import history
// is kept.
func (r *Reset) Entities(ctx context.Context, entities ...catalog.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	for _, e := range entities {
		stmt, ok := resetStatements[e]
		if !ok {
			return fmt.Errorf("%w: %q", catalog.ErrUnknownEntity, e)
		}
		if _, err := r.DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("reset %s: %w", e, err)
		}
		slog.Info("catalog table reset", "entity", e)
	}
	return nil
}

// All empties every catalog table and the import history.
// This is a destructive operation - use with caution.
func (r *Reset) All(ctx context.Context) error {
	if err := r.Entities(ctx, catalog.Entities...); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()
	if _, err := r.DB.Exec(ctx, resetHistory); err != nil {
		return fmt.Errorf("reset import history: %w", err)
	}
	return nil
}
