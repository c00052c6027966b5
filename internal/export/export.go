// Package export writes catalog tables as semicolon-delimited, BOM-prefixed
// CSV. Rows are read in fixed windows so memory stays flat regardless of
// table size; exports take no locks and open no transactions.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/csvio"
	"github.com/JonMunkholm/partscatalog/internal/logging"
)

// DefaultChunkSize is the number of rows fetched per read.
const DefaultChunkSize = 100

// Column order of exported files. The spare-parts header is accepted by the
// importer's short layout.
var (
	SparePartColumns = []string{
		"part_number", "name", "description", "price", "stock_quantity",
		"manufacturer", "weight", "dimensions", "category_id", "image",
	}
	CarModelColumns = []string{
		"brand", "model", "year_from", "year_to", "description", "is_popular", "country",
	}
)

// Exporter streams catalog rows into CSV.
type Exporter struct {
	store catalog.Queries
	chunk int
}

// New returns an Exporter reading chunkSize rows at a time.
func New(store catalog.Queries, chunkSize int) *Exporter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Exporter{store: store, chunk: chunkSize}
}

// Export writes every row of entity matching f to w and returns the number
// of data rows written.
func (e *Exporter) Export(ctx context.Context, entity catalog.Entity, f catalog.ExportFilter, w io.Writer) (int, error) {
	switch entity {
	case catalog.EntitySpareParts:
		return e.SpareParts(ctx, f, w)
	case catalog.EntityCarModels:
		return e.CarModels(ctx, f, w)
	}
	return 0, fmt.Errorf("export: %w: %q", catalog.ErrUnknownEntity, entity)
}

// SpareParts writes spare parts matching f to w.
func (e *Exporter) SpareParts(ctx context.Context, f catalog.ExportFilter, w io.Writer) (int, error) {
	cw := csvio.NewWriter(w, csvio.Semicolon)
	if err := cw.Write(SparePartColumns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n, err := chunked(ctx, e.chunk,
		func(ctx context.Context, limit, offset int) ([]catalog.SparePart, error) {
			return e.store.ListSpareParts(ctx, f, limit, offset)
		},
		func(p catalog.SparePart) error { return cw.Write(sparePartRecord(p)) },
		cw.Flush,
	)
	if err != nil {
		return n, fmt.Errorf("export spare parts: %w", err)
	}
	if err := cw.Close(); err != nil {
		return n, fmt.Errorf("export spare parts: %w", err)
	}
	logging.FromContext(ctx).Debug("export finished", "entity", catalog.EntitySpareParts, "rows", n)
	return n, nil
}

// CarModels writes car models matching f to w, with brand name and country
// joined in.
func (e *Exporter) CarModels(ctx context.Context, f catalog.ExportFilter, w io.Writer) (int, error) {
	cw := csvio.NewWriter(w, csvio.Semicolon)
	if err := cw.Write(CarModelColumns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n, err := chunked(ctx, e.chunk,
		func(ctx context.Context, limit, offset int) ([]catalog.CarModel, error) {
			return e.store.ListCarModels(ctx, f, limit, offset)
		},
		func(m catalog.CarModel) error { return cw.Write(carModelRecord(m)) },
		cw.Flush,
	)
	if err != nil {
		return n, fmt.Errorf("export car models: %w", err)
	}
	if err := cw.Close(); err != nil {
		return n, fmt.Errorf("export car models: %w", err)
	}
	logging.FromContext(ctx).Debug("export finished", "entity", catalog.EntityCarModels, "rows", n)
	return n, nil
}

// ToFile exports entity to path, creating parent directories, and returns
// the path written. A failed export removes the partial file.
func (e *Exporter) ToFile(ctx context.Context, entity catalog.Entity, f catalog.ExportFilter, path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if _, err := e.Export(ctx, entity, f, file); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

// chunked pages through fetch until a short page, emitting each row and
// flushing after every page.
func chunked[T any](
	ctx context.Context,
	size int,
	fetch func(ctx context.Context, limit, offset int) ([]T, error),
	emit func(T) error,
	flush func() error,
) (int, error) {
	written := 0
	for offset := 0; ; offset += size {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		page, err := fetch(ctx, size, offset)
		if err != nil {
			return written, err
		}
		for _, row := range page {
			if err := emit(row); err != nil {
				return written, err
			}
			written++
		}
		if err := flush(); err != nil {
			return written, err
		}
		if len(page) < size {
			return written, nil
		}
	}
}

func sparePartRecord(p catalog.SparePart) []string {
	weight := ""
	if p.Weight.Valid {
		weight = p.Weight.Decimal.String()
	}
	category := ""
	if p.CategoryID != nil {
		category = strconv.FormatInt(*p.CategoryID, 10)
	}
	return []string{
		p.PartNumber,
		p.Name,
		p.Description,
		p.Price.StringFixed(2),
		strconv.Itoa(p.StockQuantity),
		p.Manufacturer,
		weight,
		p.Dimensions,
		category,
		p.Image,
	}
}

func carModelRecord(m catalog.CarModel) []string {
	return []string{
		m.BrandName,
		m.Name,
		year(m.YearStart),
		year(m.YearEnd),
		m.Description,
		flag(m.Popular),
		m.BrandCountry,
	}
}

func year(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
