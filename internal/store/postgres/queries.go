package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// queries implements catalog.Queries against any DBTX, so the same code
// serves the pool, a transaction and a savepoint.
type queries struct {
	db DBTX
}

const sparePartColumns = `id, manufacturer, part_number, name, description, price, stock_quantity,
	is_available, is_active, weight, dimensions, category_id, image`

func scanSparePart(row pgx.Row) (catalog.SparePart, error) {
	var (
		p          catalog.SparePart
		price      pgtype.Numeric
		weight     pgtype.Numeric
		categoryID pgtype.Int8
	)
	err := row.Scan(
		&p.ID, &p.Manufacturer, &p.PartNumber, &p.Name, &p.Description, &price, &p.StockQuantity,
		&p.Available, &p.Active, &weight, &p.Dimensions, &categoryID, &p.Image,
	)
	if err != nil {
		return catalog.SparePart{}, err
	}
	p.Price = fromPgNumeric(price)
	p.Weight = fromPgNullNumeric(weight)
	p.CategoryID = fromPgInt8(categoryID)
	return p, nil
}

func (q queries) FindSparePart(ctx context.Context, manufacturer, partNumber string) (catalog.SparePart, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE manufacturer = $1 AND part_number = $2`,
		manufacturer, partNumber)
	p, err := scanSparePart(row)
	if err != nil {
		return catalog.SparePart{}, fmt.Errorf("find spare part %s/%s: %w", manufacturer, partNumber, notFound(err))
	}
	return p, nil
}

func (q queries) CreateSparePart(ctx context.Context, p *catalog.SparePart) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO spare_parts (manufacturer, part_number, name, description, price, stock_quantity,
			is_available, is_active, weight, dimensions, category_id, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Manufacturer, p.PartNumber, p.Name, p.Description, toPgNumeric(p.Price), p.StockQuantity,
		p.Available, p.Active, toPgNullNumeric(p.Weight), p.Dimensions, toPgInt8(p.CategoryID), p.Image,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create spare part %s/%s: %w", p.Manufacturer, p.PartNumber, err)
	}
	return nil
}

func (q queries) UpdateSparePart(ctx context.Context, p catalog.SparePart) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE spare_parts SET name = $3, description = $4, price = $5, stock_quantity = $6,
			is_available = $7, is_active = $8, weight = $9, dimensions = $10, category_id = $11,
			image = $12, updated_at = now()
		WHERE manufacturer = $1 AND part_number = $2`,
		p.Manufacturer, p.PartNumber, p.Name, p.Description, toPgNumeric(p.Price), p.StockQuantity,
		p.Available, p.Active, toPgNullNumeric(p.Weight), p.Dimensions, toPgInt8(p.CategoryID), p.Image,
	)
	if err != nil {
		return fmt.Errorf("update spare part %s/%s: %w", p.Manufacturer, p.PartNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update spare part %s/%s: %w", p.Manufacturer, p.PartNumber, catalog.ErrNotFound)
	}
	return nil
}

func (q queries) FindBrandByName(ctx context.Context, name string) (catalog.CarBrand, error) {
	var b catalog.CarBrand
	err := q.db.QueryRow(ctx,
		`SELECT id, name, slug, country, is_popular FROM car_brands WHERE name = $1`, name,
	).Scan(&b.ID, &b.Name, &b.Slug, &b.Country, &b.Popular)
	if err != nil {
		return catalog.CarBrand{}, fmt.Errorf("find brand %q: %w", name, notFound(err))
	}
	return b, nil
}

func (q queries) CreateBrand(ctx context.Context, b *catalog.CarBrand) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO car_brands (name, slug, country, is_popular) VALUES ($1, $2, $3, $4) RETURNING id`,
		b.Name, b.Slug, b.Country, b.Popular,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("create brand %q: %w", b.Name, err)
	}
	return nil
}

const carModelColumns = `m.id, m.brand_id, m.name, m.slug, m.year_start, m.year_end, m.description, m.is_popular`

func scanCarModel(row pgx.Row, extra ...any) (catalog.CarModel, error) {
	var (
		m         catalog.CarModel
		yearStart pgtype.Int4
		yearEnd   pgtype.Int4
	)
	dest := append([]any{
		&m.ID, &m.BrandID, &m.Name, &m.Slug, &yearStart, &yearEnd, &m.Description, &m.Popular,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return catalog.CarModel{}, err
	}
	m.YearStart = int(yearStart.Int32)
	m.YearEnd = int(yearEnd.Int32)
	return m, nil
}

func (q queries) FindCarModel(ctx context.Context, brandID int64, name string) (catalog.CarModel, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+carModelColumns+` FROM car_models m WHERE m.brand_id = $1 AND m.name = $2`,
		brandID, name)
	m, err := scanCarModel(row)
	if err != nil {
		return catalog.CarModel{}, fmt.Errorf("find car model %d/%q: %w", brandID, name, notFound(err))
	}
	return m, nil
}

func (q queries) CreateCarModel(ctx context.Context, m *catalog.CarModel) error {
	start, end, err := yearRange(*m)
	if err != nil {
		return fmt.Errorf("create car model %d/%q: %w", m.BrandID, m.Name, err)
	}
	err = q.db.QueryRow(ctx, `
		INSERT INTO car_models (brand_id, name, slug, year_start, year_end, description, is_popular)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		m.BrandID, m.Name, m.Slug, start, end, m.Description, m.Popular,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create car model %d/%q: %w", m.BrandID, m.Name, err)
	}
	return nil
}

func (q queries) UpdateCarModel(ctx context.Context, m catalog.CarModel) error {
	start, end, err := yearRange(m)
	if err != nil {
		return fmt.Errorf("update car model %d/%q: %w", m.BrandID, m.Name, err)
	}
	tag, err := q.db.Exec(ctx, `
		UPDATE car_models SET slug = $3, year_start = $4, year_end = $5, description = $6,
			is_popular = $7, updated_at = now()
		WHERE brand_id = $1 AND name = $2`,
		m.BrandID, m.Name, m.Slug, start, end, m.Description, m.Popular,
	)
	if err != nil {
		return fmt.Errorf("update car model %d/%q: %w", m.BrandID, m.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update car model %d/%q: %w", m.BrandID, m.Name, catalog.ErrNotFound)
	}
	return nil
}

func (q queries) ListSpareParts(ctx context.Context, f catalog.ExportFilter, limit, offset int) ([]catalog.SparePart, error) {
	sql, args := sparePartFilter(f).page(`SELECT `+sparePartColumns+` FROM spare_parts`, "id", limit, offset)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list spare parts: %w", err)
	}
	defer rows.Close()

	parts := make([]catalog.SparePart, 0, limit)
	for rows.Next() {
		p, err := scanSparePart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spare part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (q queries) ListCarModels(ctx context.Context, f catalog.ExportFilter, limit, offset int) ([]catalog.CarModel, error) {
	base := `SELECT ` + carModelColumns + `, b.name, b.country
		FROM car_models m JOIN car_brands b ON b.id = m.brand_id`
	sql, args := carModelFilter(f).page(base, "m.id", limit, offset)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list car models: %w", err)
	}
	defer rows.Close()

	models := make([]catalog.CarModel, 0, limit)
	for rows.Next() {
		var brandName, brandCountry string
		m, err := scanCarModel(rows, &brandName, &brandCountry)
		if err != nil {
			return nil, fmt.Errorf("scan car model: %w", err)
		}
		m.BrandName = brandName
		m.BrandCountry = brandCountry
		models = append(models, m)
	}
	return models, rows.Err()
}
