package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// DefaultBatchSize is the number of rows per committed transaction.
const DefaultBatchSize = 100

// BatchConfig controls how rows are grouped into transactions. It applies
// to every entity.
type BatchConfig struct {
	// Size is the number of processed rows, successful or not, per commit.
	Size int

	// Transactional wraps rows in batch transactions with one savepoint
	// per record. When false rows are written straight to the store.
	Transactional bool
}

// DefaultBatchConfig returns 100-row transactional batches.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Size: DefaultBatchSize, Transactional: true}
}

// batcher owns the open transaction of a run. Record failures are confined
// to their savepoint; failures of begin, savepoint or commit are fatal and
// reported wrapped in catalog.ErrTransactionBatch.
type batcher struct {
	store   catalog.Store
	cfg     BatchConfig
	log     *slog.Logger
	tx      catalog.Tx
	pending int
	commits int
}

func newBatcher(store catalog.Store, cfg BatchConfig, log *slog.Logger) *batcher {
	if cfg.Size <= 0 {
		cfg.Size = DefaultBatchSize
	}
	return &batcher{store: store, cfg: cfg, log: log}
}

// start opens the first transaction.
func (b *batcher) start(ctx context.Context) error {
	if !b.cfg.Transactional {
		return nil
	}
	tx, err := b.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", catalog.ErrTransactionBatch, err)
	}
	b.tx = tx
	return nil
}

// unit runs fn as one isolated record write. A non-nil fatal error means
// the batch machinery failed and the run must stop; recordErr is fn's own
// failure, already rolled back.
func (b *batcher) unit(ctx context.Context, fn func(q catalog.Queries) error) (recordErr, fatal error) {
	if !b.cfg.Transactional {
		return fn(b.store), nil
	}

	sp, err := b.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: savepoint: %v", catalog.ErrTransactionBatch, err)
	}

	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return err, fmt.Errorf("%w: rollback to savepoint: %v", catalog.ErrTransactionBatch, rbErr)
		}
		return err, nil
	}

	if err := sp.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: release savepoint: %v", catalog.ErrTransactionBatch, err)
	}
	return nil, nil
}

// rowDone counts one processed row and rolls the transaction over when the
// batch is full.
func (b *batcher) rowDone(ctx context.Context) error {
	b.pending++
	if !b.cfg.Transactional || b.pending < b.cfg.Size {
		return nil
	}
	if err := b.commit(ctx); err != nil {
		return err
	}
	return b.start(ctx)
}

// finish commits the open transaction at end of input.
func (b *batcher) finish(ctx context.Context) error {
	if !b.cfg.Transactional || b.tx == nil {
		return nil
	}
	return b.commit(ctx)
}

// abort rolls back whatever has not been committed yet.
func (b *batcher) abort(ctx context.Context) {
	if b.tx == nil {
		return
	}
	if err := b.tx.Rollback(ctx); err != nil {
		b.log.Error("rollback of open batch failed", "error", err, "uncommitted_rows", b.pending)
	} else if b.pending > 0 {
		b.log.Warn("rolled back open batch", "uncommitted_rows", b.pending)
	}
	b.tx = nil
	b.pending = 0
}

func (b *batcher) commit(ctx context.Context) error {
	tx := b.tx
	b.tx = nil
	if err := tx.Commit(ctx); err != nil {
		// No-op for pgx, which ends the transaction on a failed commit.
		_ = tx.Rollback(ctx)
		return fmt.Errorf("%w: commit: %v", catalog.ErrTransactionBatch, err)
	}
	b.commits++
	b.log.Debug("batch committed", "rows", b.pending, "batch", b.commits)
	b.pending = 0
	return nil
}
