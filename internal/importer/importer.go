// Package importer loads catalog CSV files into the store.
//
// An import resolves the file's header against the entity schema, takes a
// backup snapshot when asked to, then streams rows through the mapper and
// the upsert engine inside fixed-size transaction batches. Rows are never
// processed in parallel; the call returns when the whole file is done.
//
// Counting: every data row increments Processed exactly once and then
// exactly one of Created, Updated, Skipped or Errors. BrandsCreated is
// counted on top of that for car-model imports.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/csvio"
	"github.com/JonMunkholm/partscatalog/internal/logging"
)

// Options are the caller's per-run choices.
type Options struct {
	// UpdateExisting overwrites records whose key already exists; when
	// false they are skipped.
	UpdateExisting bool

	// CreateBackup snapshots the target table before the first write.
	CreateBackup bool
}

// Snapshotter takes a pre-import backup of one entity.
type Snapshotter interface {
	Snapshot(ctx context.Context, entity catalog.Entity) (catalog.BackupArtifact, error)
}

// Importer is the single entry point for catalog imports.
type Importer struct {
	store   catalog.Store
	backups Snapshotter
	runs    catalog.RunRecorder
	limiter *Limiter
	batch   BatchConfig
	now     func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithBatchConfig overrides the default 100-row transactional batches.
func WithBatchConfig(cfg BatchConfig) Option {
	return func(im *Importer) { im.batch = cfg }
}

// WithRunRecorder records every run in the import history.
func WithRunRecorder(r catalog.RunRecorder) Option {
	return func(im *Importer) { im.runs = r }
}

// WithLimiter makes imports wait for a slot before starting.
func WithLimiter(l *Limiter) Option {
	return func(im *Importer) { im.limiter = l }
}

// New creates an Importer. backups may be nil when no caller ever asks for
// a backup.
func New(store catalog.Store, backups Snapshotter, opts ...Option) *Importer {
	im := &Importer{
		store:   store,
		backups: backups,
		batch:   DefaultBatchConfig(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportSpareParts imports a semicolon-delimited spare-parts file.
func (im *Importer) ImportSpareParts(ctx context.Context, src Source, opts Options) (catalog.ImportStats, error) {
	return im.Import(ctx, catalog.EntitySpareParts, src, opts)
}

// ImportCarModels imports a comma-delimited brand/model file.
func (im *Importer) ImportCarModels(ctx context.Context, src Source, opts Options) (catalog.ImportStats, error) {
	return im.Import(ctx, catalog.EntityCarModels, src, opts)
}

// Import runs one import of entity from src.
//
// Open, header and backup failures return before any row is written and
// with zero stats. A batch failure returns the stats gathered so far along
// with an error wrapping catalog.ErrTransactionBatch; batches committed
// before it stay in the store.
func (im *Importer) Import(ctx context.Context, entity catalog.Entity, src Source, opts Options) (stats catalog.ImportStats, err error) {
	schema, err := SchemaFor(entity)
	if err != nil {
		return stats, err
	}

	if im.limiter != nil {
		if err := im.limiter.Acquire(ctx); err != nil {
			return stats, fmt.Errorf("import %s: %w", entity, err)
		}
		defer im.limiter.Release()
	}

	run := catalog.ImportRun{
		ID:             uuid.New(),
		Entity:         entity,
		FileName:       src.Name(),
		UpdateExisting: opts.UpdateExisting,
		Status:         catalog.RunRunning,
		StartedAt:      im.now(),
	}
	log := logging.WithFields(ctx, "run_id", run.ID, "entity", entity, "source", src.Name())

	rc, err := src.Open()
	if err != nil {
		return stats, err
	}
	defer rc.Close()

	rd := csvio.NewReader(rc, schema.Comma)
	header, err := rd.ReadHeader()
	switch {
	case errors.Is(err, io.EOF):
		return stats, fmt.Errorf("%s: %w: %w", src.Name(), catalog.ErrFormatMismatch, catalog.ErrEmptyFile)
	case err != nil:
		return stats, fmt.Errorf("%w: %s: %v", catalog.ErrFileUnreadable, src.Name(), err)
	}

	layout, err := schema.Resolve(header)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", src.Name(), err)
	}
	log = log.With("layout", layout.Name)

	if im.runs != nil {
		if serr := im.runs.StartRun(ctx, &run); serr != nil {
			log.Warn("import history unavailable", "error", serr)
		} else {
			defer func() {
				im.finishRun(ctx, log, run, rd.Checksum(), stats, err)
			}()
		}
	}

	if opts.CreateBackup {
		artifact, berr := im.snapshot(ctx, entity)
		if berr != nil {
			return stats, berr
		}
		run.BackupPath = artifact.Path
		log.Info("backup created", "path", artifact.Path, "bytes", artifact.Size)
	}

	log.Info("import started", "update_existing", opts.UpdateExisting,
		"batch_size", im.batch.Size, "transactional", im.batch.Transactional)

	var handle rowHandler
	switch entity {
	case catalog.EntitySpareParts:
		handle = sparePartRows(layout, opts.UpdateExisting, log)
	case catalog.EntityCarModels:
		handle = carModelRows(layout, opts.UpdateExisting, newBrandCache(), log)
	}

	b := newBatcher(im.store, im.batch, log)
	if err := b.start(ctx); err != nil {
		return stats, err
	}

	for {
		if cerr := ctx.Err(); cerr != nil {
			b.abort(context.WithoutCancel(ctx))
			return stats, fmt.Errorf("import %s interrupted: %w", entity, cerr)
		}

		row, rerr := rd.Read()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil && !csvio.IsParseError(rerr) {
			b.abort(context.WithoutCancel(ctx))
			return stats, fmt.Errorf("%w: %s: %v", catalog.ErrFileUnreadable, src.Name(), rerr)
		}
		stats.Processed++

		if rerr != nil {
			stats.Errors++
			log.Warn("unparseable row", "error", rerr)
		} else if fatal := handle(ctx, b, rd.Line(), row, &stats); fatal != nil {
			b.abort(context.WithoutCancel(ctx))
			return stats, fatal
		}

		if err := b.rowDone(ctx); err != nil {
			b.abort(context.WithoutCancel(ctx))
			return stats, err
		}
	}

	if err := b.finish(ctx); err != nil {
		return stats, err
	}

	log.Info("import finished",
		"processed", stats.Processed, "created", stats.Created, "updated", stats.Updated,
		"skipped", stats.Skipped, "brands_created", stats.BrandsCreated, "errors", stats.Errors,
		"batches", b.commits)
	return stats, nil
}

func (im *Importer) snapshot(ctx context.Context, entity catalog.Entity) (catalog.BackupArtifact, error) {
	if im.backups == nil {
		return catalog.BackupArtifact{}, fmt.Errorf("%w: no backup coordinator configured", catalog.ErrBackupFailed)
	}
	artifact, err := im.backups.Snapshot(ctx, entity)
	if err != nil {
		if !errors.Is(err, catalog.ErrBackupFailed) {
			err = fmt.Errorf("%w: %w", catalog.ErrBackupFailed, err)
		}
		return catalog.BackupArtifact{}, err
	}
	return artifact, nil
}

func (im *Importer) finishRun(ctx context.Context, log *slog.Logger, run catalog.ImportRun, checksum string, stats catalog.ImportStats, runErr error) {
	finished := im.now()
	run.FinishedAt = &finished
	run.Checksum = checksum
	run.Stats = stats
	run.Status = catalog.RunCompleted
	if runErr != nil {
		run.Status = catalog.RunFailed
		run.Error = runErr.Error()
	}
	if err := im.runs.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record import run", "error", err)
	}
}

// rowHandler maps and writes one data row. It returns only fatal errors;
// skips and record failures are counted in stats.
type rowHandler func(ctx context.Context, b *batcher, line int, row []string, stats *catalog.ImportStats) error

func sparePartRows(layout Layout, update bool, log *slog.Logger) rowHandler {
	return func(ctx context.Context, b *batcher, line int, row []string, stats *catalog.ImportStats) error {
		rec, class, reason := MapSparePart(layout, row)
		switch class {
		case RowSkip:
			stats.Skipped++
			log.Warn("row skipped", "line", line, "error", fmt.Errorf("%w: %s", catalog.ErrRowSkipped, reason))
			return nil
		case RowMalformed:
			stats.Errors++
			log.Warn("malformed row", "line", line, "error", fmt.Errorf("%w: %s", catalog.ErrMalformedRow, reason),
				"manufacturer", rec.Manufacturer, "part_number", rec.PartNumber)
			return nil
		}

		var outcome Outcome
		recErr, fatal := b.unit(ctx, func(q catalog.Queries) error {
			var err error
			outcome, err = UpsertSparePart(ctx, q, rec, update)
			return err
		})
		if fatal != nil {
			return fatal
		}
		if recErr != nil {
			stats.Errors++
			log.Error("record write failed", "line", line,
				"manufacturer", rec.Manufacturer, "part_number", rec.PartNumber,
				"error", fmt.Errorf("%w: %v", catalog.ErrRecordWrite, recErr))
			return nil
		}
		count(stats, outcome)
		return nil
	}
}

func carModelRows(layout Layout, update bool, brands *brandCache, log *slog.Logger) rowHandler {
	return func(ctx context.Context, b *batcher, line int, row []string, stats *catalog.ImportStats) error {
		rec, class, reason := MapCarModel(layout, row)
		switch class {
		case RowSkip:
			stats.Skipped++
			log.Warn("row skipped", "line", line, "error", fmt.Errorf("%w: %s", catalog.ErrRowSkipped, reason))
			return nil
		case RowMalformed:
			stats.Errors++
			log.Warn("malformed row", "line", line, "error", fmt.Errorf("%w: %s", catalog.ErrMalformedRow, reason), "brand", rec.Brand, "model", rec.Model)
			return nil
		}

		// The brand gets its own unit so a failed model write cannot roll
		// back a brand id that is already cached.
		brandID, ok := brands.cached(rec.Brand)
		if !ok {
			var created bool
			recErr, fatal := b.unit(ctx, func(q catalog.Queries) error {
				var err error
				brandID, created, err = brands.resolve(ctx, q, rec)
				return err
			})
			if fatal != nil {
				return fatal
			}
			if recErr != nil {
				stats.Errors++
				log.Error("record write failed", "line", line, "brand", rec.Brand,
					"error", fmt.Errorf("%w: %v", catalog.ErrRecordWrite, recErr))
				return nil
			}
			brands.remember(rec.Brand, brandID)
			if created {
				stats.BrandsCreated++
			}
		}

		var outcome Outcome
		recErr, fatal := b.unit(ctx, func(q catalog.Queries) error {
			var err error
			outcome, err = UpsertCarModel(ctx, q, brandID, rec, update)
			return err
		})
		if fatal != nil {
			return fatal
		}
		if recErr != nil {
			stats.Errors++
			log.Error("record write failed", "line", line, "brand", rec.Brand, "model", rec.Model,
				"error", fmt.Errorf("%w: %v", catalog.ErrRecordWrite, recErr))
			return nil
		}
		count(stats, outcome)
		return nil
	}
}

func count(stats *catalog.ImportStats, o Outcome) {
	switch o {
	case OutcomeCreated:
		stats.Created++
	case OutcomeUpdated:
		stats.Updated++
	case OutcomeSkipped:
		stats.Skipped++
	}
}
