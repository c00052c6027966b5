// Package application wires the catalog components together. The HTTP
// server and the command-line tool share it so both run imports with the
// same batching, limits and backup settings.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/partscatalog/internal/backup"
	"github.com/JonMunkholm/partscatalog/internal/config"
	"github.com/JonMunkholm/partscatalog/internal/export"
	"github.com/JonMunkholm/partscatalog/internal/importer"
	"github.com/JonMunkholm/partscatalog/internal/store/postgres"
	"github.com/JonMunkholm/partscatalog/internal/web"
)

// App holds the long-lived catalog components.
type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Store    *postgres.Store
	Runs     *postgres.RunRecorder
	Exporter *export.Exporter
	Backups  *backup.Coordinator
	Importer *importer.Importer
	Limiter  *importer.Limiter
}

// New connects to the database and builds every component from cfg.
// The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		Pool:   pool,
		Store:  postgres.New(pool),
		Runs:   postgres.NewRunRecorder(pool),
	}
	app.Exporter = export.New(app.Store, cfg.Import.ExportChunkSize)

	var opts []backup.Option
	if cfg.Backup.S3Bucket != "" {
		client, err := backup.NewS3Client(ctx, cfg.Backup.S3Endpoint)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		opts = append(opts, backup.WithMirror(backup.NewS3Mirror(client, cfg.Backup.S3Bucket, cfg.Backup.S3Prefix)))
		slog.Info("backup mirror enabled", "bucket", cfg.Backup.S3Bucket, "prefix", cfg.Backup.S3Prefix)
	}
	app.Backups = backup.New(cfg.Storage.BackupDir(), app.Exporter, opts...)

	app.Limiter = importer.NewLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	app.Importer = importer.New(app.Store, app.Backups,
		importer.WithBatchConfig(importer.BatchConfig{
			Size:          cfg.Import.BatchSize,
			Transactional: cfg.Import.Transactional,
		}),
		importer.WithRunRecorder(app.Runs),
		importer.WithLimiter(app.Limiter),
	)
	return app, nil
}

// Server builds the HTTP server on top of the app's components.
func (a *App) Server() *web.Server {
	return web.NewServer(web.Deps{
		Importer: a.Importer,
		Exporter: a.Exporter,
		Backups:  a.Backups,
		Runs:     a.Runs,
		Health:   a.Store,
		Queue:    a.Limiter,
	}, a.Config)
}

// Close releases the database pool.
func (a *App) Close() {
	a.Pool.Close()
}
