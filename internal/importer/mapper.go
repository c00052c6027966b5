package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxYear is the latest production year the mapper accepts.
const MaxYear = 9999

// RowClass is the mapper's verdict on one row.
type RowClass int

const (
	RowValid RowClass = iota
	RowSkip
	RowMalformed
)

func (c RowClass) String() string {
	switch c {
	case RowValid:
		return "valid"
	case RowSkip:
		return "skip"
	case RowMalformed:
		return "malformed"
	}
	return "unknown"
}

// PartRecord is a spare-part row after mapping. Optional columns are nil
// when the file does not carry them, so updates leave stored values alone.
type PartRecord struct {
	Manufacturer string
	PartNumber   string
	Name         string
	Quantity     int
	Price        decimal.Decimal

	Description *string
	Weight      *decimal.Decimal
	Dimensions  *string
	CategoryID  *int64
	Image       *string
}

// ModelRecord is a car-model row after mapping.
type ModelRecord struct {
	Brand       string
	Model       string
	YearFrom    int
	YearTo      int
	Country     string
	Popular     bool
	Description *string
}

// MapSparePart maps one row. The reason is set for skip and malformed rows.
func MapSparePart(l Layout, row []string) (PartRecord, RowClass, string) {
	if l.Short(row) {
		return PartRecord{}, RowSkip, "insufficient columns"
	}

	var rec PartRecord
	rec.Manufacturer, _ = l.Value(row, FieldManufacturer)
	rec.PartNumber, _ = l.Value(row, FieldPartNumber)
	rec.Name, _ = l.Value(row, FieldName)
	if rec.Manufacturer == "" || rec.PartNumber == "" || rec.Name == "" {
		return rec, RowSkip, "empty manufacturer, part number or name"
	}

	qty, _ := l.Value(row, FieldQuantity)
	var qtyErr error
	rec.Quantity, qtyErr = parseLeadingInt(qty)
	price, _ := l.Value(row, FieldPrice)
	rec.Price = ParsePrice(price)

	if v, ok := l.Value(row, FieldDescription); ok {
		rec.Description = &v
	}
	if v, ok := l.Value(row, FieldWeight); ok && v != "" {
		w := ParsePrice(v)
		rec.Weight = &w
	}
	if v, ok := l.Value(row, FieldDimensions); ok {
		rec.Dimensions = &v
	}
	if v, ok := l.Value(row, FieldCategoryID); ok && v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			rec.CategoryID = &id
		}
	}
	if v, ok := l.Value(row, FieldImage); ok {
		rec.Image = &v
	}

	if qtyErr != nil || rec.Quantity > math.MaxInt32 {
		return rec, RowMalformed, "stock quantity out of range"
	}
	if rec.Quantity < 0 {
		return rec, RowMalformed, "negative stock quantity"
	}
	if rec.Price.IsNegative() {
		return rec, RowMalformed, "negative price"
	}
	if rec.Weight != nil && rec.Weight.IsNegative() {
		return rec, RowMalformed, "negative weight"
	}
	return rec, RowValid, ""
}

// MapCarModel maps one row.
func MapCarModel(l Layout, row []string) (ModelRecord, RowClass, string) {
	if l.Short(row) {
		return ModelRecord{}, RowSkip, "insufficient columns"
	}

	var rec ModelRecord
	rec.Brand, _ = l.Value(row, FieldBrand)
	rec.Model, _ = l.Value(row, FieldModel)
	if rec.Brand == "" || rec.Model == "" {
		return rec, RowSkip, "empty brand or model"
	}

	var fromErr, toErr error
	from, _ := l.Value(row, FieldYearFrom)
	rec.YearFrom, fromErr = parseLeadingInt(from)
	to, _ := l.Value(row, FieldYearTo)
	rec.YearTo, toErr = parseLeadingInt(to)
	rec.Country, _ = l.Value(row, FieldCountry)
	popular, _ := l.Value(row, FieldIsPopular)
	rec.Popular = ParseFlag(popular)
	if v, ok := l.Value(row, FieldDescription); ok {
		rec.Description = &v
	}

	if fromErr != nil || toErr != nil || rec.YearFrom > MaxYear || rec.YearTo > MaxYear {
		return rec, RowMalformed, "year out of range"
	}
	if rec.YearFrom < 0 || rec.YearTo < 0 {
		return rec, RowMalformed, "negative year"
	}
	return rec, RowValid, ""
}

// ParseQuantity reads the leading integer of s: "12" and "12 pcs" give 12,
// anything without leading digits gives 0. Use parseLeadingInt where an
// out-of-range number must be told apart from zero.
func ParseQuantity(s string) int {
	n, err := parseLeadingInt(s)
	if err != nil {
		return 0
	}
	return n
}

// parseLeadingInt is ParseQuantity that reports strconv.ErrRange when the
// digits do not fit in an int.
func parseLeadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, nil
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		return 0, strconv.ErrRange
	}
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// ParsePrice reads a decimal written with spaces as thousands separators
// and a comma or dot as the decimal mark: "1 234,50" gives 1234.50. Only
// the leading numeric prefix is used; no digits gives zero.
func ParsePrice(s string) decimal.Decimal {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)

	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}
	intPart := leadingDigits(s)
	fracPart := ""
	if rest := s[len(intPart):]; strings.HasPrefix(rest, ".") {
		fracPart = leadingDigits(rest[1:])
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero
	}
	if intPart == "" {
		intPart = "0"
	}

	num := sign + intPart
	if fracPart != "" {
		num += "." + fracPart
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

// ParseFlag reads a popularity flag. Empty, 0, false, no, n and f are
// false; every other value is true.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n", "f", "off":
		return false
	}
	return true
}
