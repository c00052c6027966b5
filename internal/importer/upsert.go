package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// Outcome is what the upsert engine did with a record.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

// UpsertSparePart applies rec under its (manufacturer, part_number) key.
// An existing part is updated only when update is true.
func UpsertSparePart(ctx context.Context, q catalog.Queries, rec PartRecord, update bool) (Outcome, error) {
	existing, err := q.FindSparePart(ctx, rec.Manufacturer, rec.PartNumber)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		part := catalog.SparePart{
			Manufacturer: rec.Manufacturer,
			PartNumber:   rec.PartNumber,
			Name:         rec.Name,
			Price:        rec.Price,
			Active:       true,
		}
		part.SetStock(rec.Quantity)
		applyOptional(&part, rec)
		if err := q.CreateSparePart(ctx, &part); err != nil {
			return 0, fmt.Errorf("create spare part: %w", err)
		}
		return OutcomeCreated, nil

	case err != nil:
		return 0, fmt.Errorf("find spare part: %w", err)
	}

	if !update {
		return OutcomeSkipped, nil
	}

	existing.Name = rec.Name
	existing.Price = rec.Price
	existing.SetStock(rec.Quantity)
	applyOptional(&existing, rec)
	if err := q.UpdateSparePart(ctx, existing); err != nil {
		return 0, fmt.Errorf("update spare part: %w", err)
	}
	return OutcomeUpdated, nil
}

func applyOptional(p *catalog.SparePart, rec PartRecord) {
	if rec.Description != nil {
		p.Description = *rec.Description
	}
	if rec.Weight != nil {
		p.Weight = decimal.NewNullDecimal(*rec.Weight)
	}
	if rec.Dimensions != nil {
		p.Dimensions = *rec.Dimensions
	}
	if rec.CategoryID != nil {
		id := *rec.CategoryID
		p.CategoryID = &id
	}
	if rec.Image != nil {
		p.Image = *rec.Image
	}
}

// brandCache maps brand names to ids for the lifetime of one import run.
type brandCache struct {
	ids map[string]int64
}

func newBrandCache() *brandCache {
	return &brandCache{ids: make(map[string]int64)}
}

// resolve returns the id of the brand named rec.Brand, creating it on
// first sight. created reports whether this call inserted the brand.
func (c *brandCache) resolve(ctx context.Context, q catalog.Queries, rec ModelRecord) (id int64, created bool, err error) {
	if id, ok := c.ids[rec.Brand]; ok {
		return id, false, nil
	}

	brand, err := q.FindBrandByName(ctx, rec.Brand)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrNotFound):
		brand = catalog.CarBrand{
			Name:    rec.Brand,
			Slug:    catalog.Slugify(rec.Brand),
			Country: rec.Country,
		}
		if err := q.CreateBrand(ctx, &brand); err != nil {
			return 0, false, fmt.Errorf("create brand: %w", err)
		}
		created = true
	default:
		return 0, false, fmt.Errorf("find brand: %w", err)
	}

	return brand.ID, created, nil
}

func (c *brandCache) cached(name string) (int64, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// remember caches id once the unit that produced it has been kept.
func (c *brandCache) remember(name string, id int64) {
	c.ids[name] = id
}

// UpsertCarModel applies rec under its (name, brand_id) key.
func UpsertCarModel(ctx context.Context, q catalog.Queries, brandID int64, rec ModelRecord, update bool) (Outcome, error) {
	existing, err := q.FindCarModel(ctx, brandID, rec.Model)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		m := catalog.CarModel{
			BrandID:   brandID,
			Name:      rec.Model,
			Slug:      catalog.ModelSlug(rec.Brand, rec.Model),
			YearStart: rec.YearFrom,
			YearEnd:   rec.YearTo,
			Popular:   rec.Popular,
		}
		if rec.Description != nil {
			m.Description = *rec.Description
		}
		if err := q.CreateCarModel(ctx, &m); err != nil {
			return 0, fmt.Errorf("create car model: %w", err)
		}
		return OutcomeCreated, nil

	case err != nil:
		return 0, fmt.Errorf("find car model: %w", err)
	}

	if !update {
		return OutcomeSkipped, nil
	}

	existing.Slug = catalog.ModelSlug(rec.Brand, rec.Model)
	existing.YearStart = rec.YearFrom
	existing.YearEnd = rec.YearTo
	existing.Popular = rec.Popular
	if rec.Description != nil {
		existing.Description = *rec.Description
	}
	if err := q.UpdateCarModel(ctx, existing); err != nil {
		return 0, fmt.Errorf("update car model: %w", err)
	}
	return OutcomeUpdated, nil
}
