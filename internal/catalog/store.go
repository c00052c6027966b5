package catalog

import "context"

// Queries is the record-level storage contract. Lookups return ErrNotFound
// (possibly wrapped) when no row matches.
type Queries interface {
	FindSparePart(ctx context.Context, manufacturer, partNumber string) (SparePart, error)
	CreateSparePart(ctx context.Context, p *SparePart) error
	UpdateSparePart(ctx context.Context, p SparePart) error

	FindBrandByName(ctx context.Context, name string) (CarBrand, error)
	CreateBrand(ctx context.Context, b *CarBrand) error

	FindCarModel(ctx context.Context, brandID int64, name string) (CarModel, error)
	CreateCarModel(ctx context.Context, m *CarModel) error
	UpdateCarModel(ctx context.Context, m CarModel) error

	// List methods return rows ordered by id for stable chunked reads.
	ListSpareParts(ctx context.Context, f ExportFilter, limit, offset int) ([]SparePart, error)
	ListCarModels(ctx context.Context, f ExportFilter, limit, offset int) ([]CarModel, error)
}

// Tx is an open unit of work. Begin on a Tx opens a nested unit (a
// savepoint) whose rollback discards only its own writes.
type Tx interface {
	Queries
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the root storage handle.
type Store interface {
	Queries
	Begin(ctx context.Context) (Tx, error)
}

// RunRecorder persists import history. It is optional; the importer works
// without one.
type RunRecorder interface {
	StartRun(ctx context.Context, run *ImportRun) error
	FinishRun(ctx context.Context, run ImportRun) error
	ListRuns(ctx context.Context, limit int) ([]ImportRun, error)
}
