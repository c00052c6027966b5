// Package backup snapshots catalog tables to dated CSV files before an
// import overwrites them, and optionally mirrors each snapshot to S3.
//
// Snapshots live at <root>/<YYYY-MM-DD>/<entity>_<YYYY-MM-DD_HH-MM-SS>.csv
// and are never deleted by this package.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/logging"
)

const (
	dayLayout   = "2006-01-02"
	stampLayout = "2006-01-02_15-04-05"

	// maxSuffix bounds the _N suffixes tried when a snapshot name is taken.
	maxSuffix = 100
)

// Exporter writes a full table as CSV.
type Exporter interface {
	Export(ctx context.Context, entity catalog.Entity, f catalog.ExportFilter, w io.Writer) (int, error)
}

// Coordinator creates and lists snapshots.
type Coordinator struct {
	root     string
	exporter Exporter
	mirror   *S3Mirror
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMirror uploads every snapshot through m after it is written locally.
func WithMirror(m *S3Mirror) Option {
	return func(c *Coordinator) { c.mirror = m }
}

// WithClock replaces time.Now for naming snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New returns a Coordinator writing under root.
func New(root string, exporter Exporter, opts ...Option) *Coordinator {
	c := &Coordinator{root: root, exporter: exporter, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the snapshot directory.
func (c *Coordinator) Root() string { return c.root }

// Snapshot exports every row of entity to a new file. Any failure, including
// a failed mirror upload, is returned wrapped in catalog.ErrBackupFailed and
// leaves no file behind, so List only ever shows complete backups.
func (c *Coordinator) Snapshot(ctx context.Context, entity catalog.Entity) (catalog.BackupArtifact, error) {
	now := c.now()
	day := now.Format(dayLayout)
	dir := filepath.Join(c.root, day)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return catalog.BackupArtifact{}, fmt.Errorf("%w: create directory: %w", catalog.ErrBackupFailed, err)
	}

	f, path, err := createExclusive(dir, fmt.Sprintf("%s_%s", entity, now.Format(stampLayout)))
	if err != nil {
		return catalog.BackupArtifact{}, fmt.Errorf("%w: %w", catalog.ErrBackupFailed, err)
	}

	rows, err := c.exporter.Export(ctx, entity, catalog.ExportFilter{}, f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return catalog.BackupArtifact{}, fmt.Errorf("%w: export %s: %w", catalog.ErrBackupFailed, entity, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return catalog.BackupArtifact{}, fmt.Errorf("%w: close %s: %w", catalog.ErrBackupFailed, path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return catalog.BackupArtifact{}, fmt.Errorf("%w: %w", catalog.ErrBackupFailed, err)
	}

	artifact := catalog.BackupArtifact{
		Entity:    entity,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: now,
	}

	if c.mirror != nil {
		key, err := c.mirror.Upload(ctx, day, path)
		if err != nil {
			os.Remove(path)
			return catalog.BackupArtifact{}, fmt.Errorf("%w: %w", catalog.ErrBackupFailed, err)
		}
		artifact.RemoteKey = key
	}

	logging.FromContext(ctx).Info("snapshot written",
		"entity", entity, "path", path, "rows", rows, "bytes", artifact.Size, "remote_key", artifact.RemoteKey)
	return artifact, nil
}

// createExclusive creates base.csv in dir, falling back to base_1.csv,
// base_2.csv and so on when the name is taken.
func createExclusive(dir, base string) (*os.File, string, error) {
	for i := 0; i < maxSuffix; i++ {
		name := base + ".csv"
		if i > 0 {
			name = base + "_" + strconv.Itoa(i) + ".csv"
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("create %s: %d names already taken", filepath.Join(dir, base), maxSuffix)
}

// List returns every snapshot under the root, newest first. A missing root
// yields an empty list.
func (c *Coordinator) List(ctx context.Context) ([]catalog.BackupArtifact, error) {
	days, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	var out []catalog.BackupArtifact
	for _, day := range days {
		if !day.IsDir() {
			continue
		}
		if _, err := time.Parse(dayLayout, day.Name()); err != nil {
			continue
		}
		files, err := os.ReadDir(filepath.Join(c.root, day.Name()))
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, f := range files {
			a, ok := parseArtifact(filepath.Join(c.root, day.Name()), f)
			if ok {
				out = append(out, a)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

func parseArtifact(dir string, f fs.DirEntry) (catalog.BackupArtifact, bool) {
	name := f.Name()
	if f.IsDir() || !strings.HasSuffix(name, ".csv") {
		return catalog.BackupArtifact{}, false
	}
	info, err := f.Info()
	if err != nil {
		return catalog.BackupArtifact{}, false
	}

	for _, entity := range catalog.Entities {
		prefix := string(entity) + "_"
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		a := catalog.BackupArtifact{
			Entity:    entity,
			Path:      filepath.Join(dir, name),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		rest := strings.TrimPrefix(name, prefix)
		if len(rest) >= len(stampLayout) {
			if t, err := time.ParseInLocation(stampLayout, rest[:len(stampLayout)], time.Local); err == nil {
				a.CreatedAt = t
			}
		}
		return a, true
	}
	return catalog.BackupArtifact{}, false
}
