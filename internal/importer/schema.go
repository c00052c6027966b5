package importer

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/csvio"
)

// Field names shared by the schemas, the mapper and the exporter.
const (
	FieldManufacturer = "manufacturer"
	FieldPartNumber   = "part_number"
	FieldName         = "name"
	FieldQuantity     = "stock_quantity"
	FieldPrice        = "price"
	FieldDescription  = "description"
	FieldWeight       = "weight"
	FieldDimensions   = "dimensions"
	FieldCategoryID   = "category_id"
	FieldImage        = "image"

	FieldBrand     = "brand"
	FieldModel     = "model"
	FieldYearFrom  = "year_from"
	FieldYearTo    = "year_to"
	FieldCountry   = "country"
	FieldIsPopular = "is_popular"
)

// LayoutColumn binds a header name to a record field.
type LayoutColumn struct {
	Field    string
	Header   string
	Required bool
}

// HeaderLayout is a named set of expected header names. A file matches a
// layout when every required header is present; order does not matter and
// extra columns are ignored. Matching is exact and case-sensitive.
type HeaderLayout struct {
	Name    string
	Columns []LayoutColumn
}

func (h HeaderLayout) required() []string {
	var out []string
	for _, c := range h.Columns {
		if c.Required {
			out = append(out, c.Header)
		}
	}
	return out
}

// Schema describes one importable entity: its delimiter, the header layouts
// it accepts and, optionally, a positional fallback used when no layout
// matches.
type Schema struct {
	Entity  catalog.Entity
	Comma   rune
	Layouts []HeaderLayout

	// Positional lists fields by column index. When set, a header row that
	// matches no layout is read as a plain title row.
	Positional []string

	// MinFields is the shortest row the positional fallback accepts.
	MinFields int
}

// SparePartSchema accepts the short export-style header or the verbose
// spreadsheet header, semicolon delimited.
var SparePartSchema = Schema{
	Entity: catalog.EntitySpareParts,
	Comma:  csvio.Semicolon,
	Layouts: []HeaderLayout{
		{
			Name: "short",
			Columns: []LayoutColumn{
				{FieldManufacturer, "manufacturer", true},
				{FieldPartNumber, "part_number", true},
				{FieldName, "name", true},
				{FieldQuantity, "stock_quantity", true},
				{FieldPrice, "price", true},
				{FieldDescription, "description", false},
				{FieldWeight, "weight", false},
				{FieldDimensions, "dimensions", false},
				{FieldCategoryID, "category_id", false},
				{FieldImage, "image", false},
			},
		},
		{
			Name: "verbose",
			Columns: []LayoutColumn{
				{FieldManufacturer, "Manufacturer", true},
				{FieldPartNumber, "Part Number", true},
				{FieldName, "Name", true},
				{FieldQuantity, "Quantity", true},
				{FieldPrice, "Price", true},
				{FieldDescription, "Description", false},
				{FieldWeight, "Weight", false},
				{FieldDimensions, "Dimensions", false},
				{FieldCategoryID, "Category ID", false},
				{FieldImage, "Image", false},
			},
		},
	},
}

// CarModelSchema reads brand/model rows, comma delimited. Files that name
// their columns are mapped by header; anything else falls back to the
// fixed column order.
var CarModelSchema = Schema{
	Entity: catalog.EntityCarModels,
	Comma:  csvio.Comma,
	Layouts: []HeaderLayout{
		{
			Name: "named",
			Columns: []LayoutColumn{
				{FieldBrand, "brand", true},
				{FieldModel, "model", true},
				{FieldYearFrom, "year_from", true},
				{FieldYearTo, "year_to", true},
				{FieldCountry, "country", false},
				{FieldIsPopular, "is_popular", false},
				{FieldDescription, "description", false},
			},
		},
	},
	Positional: []string{FieldBrand, FieldModel, FieldYearFrom, FieldYearTo, FieldCountry, FieldIsPopular},
	MinFields:  4,
}

// SchemaFor returns the import schema of an entity.
func SchemaFor(e catalog.Entity) (Schema, error) {
	switch e {
	case catalog.EntitySpareParts:
		return SparePartSchema, nil
	case catalog.EntityCarModels:
		return CarModelSchema, nil
	}
	return Schema{}, fmt.Errorf("%w: %q", catalog.ErrUnknownEntity, e)
}

// Layout is a schema resolved against one file's header row.
type Layout struct {
	Name      string
	index     map[string]int
	minFields int
}

// Resolve picks the first layout whose required headers are all present.
func (s Schema) Resolve(header []string) (Layout, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	for _, hl := range s.Layouts {
		matched := 0
		for _, h := range hl.required() {
			if _, ok := pos[h]; ok {
				matched++
			}
		}
		if matched != len(hl.required()) {
			continue
		}

		l := Layout{Name: hl.Name, index: make(map[string]int, len(hl.Columns))}
		for _, c := range hl.Columns {
			i, ok := pos[c.Header]
			if !ok {
				continue
			}
			l.index[c.Field] = i
			if c.Required && i+1 > l.minFields {
				l.minFields = i + 1
			}
		}
		return l, nil
	}

	if len(s.Positional) > 0 {
		l := Layout{Name: "positional", index: make(map[string]int, len(s.Positional)), minFields: s.MinFields}
		for i, f := range s.Positional {
			l.index[f] = i
		}
		return l, nil
	}

	expected := make([]string, 0, len(s.Layouts))
	for _, hl := range s.Layouts {
		expected = append(expected, hl.Name+"=["+strings.Join(hl.required(), ", ")+"]")
	}
	return Layout{}, fmt.Errorf("%w: got [%s], expected one of %s",
		catalog.ErrFormatMismatch, strings.Join(header, ", "), strings.Join(expected, " or "))
}

// Has reports whether the layout maps field to a column.
func (l Layout) Has(field string) bool {
	_, ok := l.index[field]
	return ok
}

// Value returns the trimmed cell for field. ok is false when the layout has
// no such column or the row is too short to contain it.
func (l Layout) Value(row []string, field string) (string, bool) {
	i, ok := l.index[field]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

// Short reports whether row has fewer fields than the layout requires.
func (l Layout) Short(row []string) bool {
	return len(row) < l.minFields
}
