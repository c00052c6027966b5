package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

func TestSchemaResolve_SpareParts(t *testing.T) {
	tests := []struct {
		name       string
		header     []string
		wantLayout string
		wantErr    bool
	}{
		{
			name:       "short layout",
			header:     []string{"manufacturer", "part_number", "name", "stock_quantity", "price"},
			wantLayout: "short",
		},
		{
			name:       "short layout any order with extras",
			header:     []string{"price", "notes", "name", "stock_quantity", "part_number", "manufacturer"},
			wantLayout: "short",
		},
		{
			name:       "verbose layout",
			header:     []string{"Manufacturer", "Part Number", "Name", "Quantity", "Price"},
			wantLayout: "verbose",
		},
		{
			name:    "missing price",
			header:  []string{"manufacturer", "part_number", "name", "stock_quantity"},
			wantErr: true,
		},
		{
			name:    "case differs from both layouts",
			header:  []string{"MANUFACTURER", "PART_NUMBER", "NAME", "STOCK_QUANTITY", "PRICE"},
			wantErr: true,
		},
		{
			name:    "mixed layouts",
			header:  []string{"manufacturer", "Part Number", "name", "Quantity", "price"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := SparePartSchema.Resolve(tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, catalog.ErrFormatMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLayout, l.Name)
		})
	}
}

func TestSchemaResolve_CarModels(t *testing.T) {
	named, err := CarModelSchema.Resolve([]string{"model", "brand", "is_popular", "year_to", "year_from", "country"})
	require.NoError(t, err)
	assert.Equal(t, "named", named.Name)

	v, ok := named.Value([]string{"Camry", "Toyota", "1", "2023", "2018", "Japan"}, FieldBrand)
	assert.True(t, ok)
	assert.Equal(t, "Toyota", v)

	positional, err := CarModelSchema.Resolve([]string{"Marke", "Modell", "Von", "Bis"})
	require.NoError(t, err)
	assert.Equal(t, "positional", positional.Name)
	v, _ = positional.Value([]string{"BMW", "X5", "1999", ""}, FieldModel)
	assert.Equal(t, "X5", v)
}

func TestMapSparePart(t *testing.T) {
	short, err := SparePartSchema.Resolve([]string{"manufacturer", "part_number", "name", "price", "stock_quantity"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		row       []string
		wantClass RowClass
		check     func(t *testing.T, rec PartRecord)
	}{
		{
			name:      "valid row mapped by header",
			row:       []string{" Bosch ", "0041", "Air Filter", "10", "500"},
			wantClass: RowValid,
			check: func(t *testing.T, rec PartRecord) {
				assert.Equal(t, "Bosch", rec.Manufacturer)
				assert.Equal(t, "0041", rec.PartNumber)
				assert.Equal(t, "Air Filter", rec.Name)
				assert.Equal(t, 500, rec.Quantity)
				assert.True(t, decimal.NewFromInt(10).Equal(rec.Price))
				assert.Nil(t, rec.Description)
			},
		},
		{
			name:      "price with comma and spaces",
			row:       []string{"Mann", "W 712", "Oil filter", "1 234,50", "3"},
			wantClass: RowValid,
			check: func(t *testing.T, rec PartRecord) {
				assert.Equal(t, "1234.5", rec.Price.String())
			},
		},
		{
			name:      "non numeric quantity coerces to zero",
			row:       []string{"Mann", "W 712", "Oil filter", "9", "many"},
			wantClass: RowValid,
			check: func(t *testing.T, rec PartRecord) {
				assert.Equal(t, 0, rec.Quantity)
			},
		},
		{
			name:      "empty manufacturer",
			row:       []string{"  ", "0041", "Air Filter", "10", "500"},
			wantClass: RowSkip,
		},
		{
			name:      "empty name",
			row:       []string{"Bosch", "0041", "", "10", "500"},
			wantClass: RowSkip,
		},
		{
			name:      "too few fields",
			row:       []string{"Bosch", "0041", "Air Filter"},
			wantClass: RowSkip,
		},
		{
			name:      "negative quantity",
			row:       []string{"Bosch", "0041", "Air Filter", "10", "-2"},
			wantClass: RowMalformed,
		},
		{
			name:      "quantity too large for an int",
			row:       []string{"Bosch", "0041", "Air Filter", "10", "99999999999999999999"},
			wantClass: RowMalformed,
		},
		{
			name:      "quantity beyond the stock column",
			row:       []string{"Bosch", "0041", "Air Filter", "10", "4294967296"},
			wantClass: RowMalformed,
		},
		{
			name:      "negative price",
			row:       []string{"Bosch", "0041", "Air Filter", "-10", "2"},
			wantClass: RowMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, class, reason := MapSparePart(short, tt.row)
			assert.Equal(t, tt.wantClass, class, "reason: %s", reason)
			if tt.wantClass != RowValid {
				assert.NotEmpty(t, reason)
			}
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestMapSparePart_OptionalColumns(t *testing.T) {
	l, err := SparePartSchema.Resolve([]string{
		"part_number", "name", "description", "price", "stock_quantity",
		"manufacturer", "weight", "dimensions", "category_id", "image",
	})
	require.NoError(t, err)

	rec, class, _ := MapSparePart(l, []string{
		"0041", "Air Filter", "Fits E90", "12.50", "4", "Bosch", "0,35", "20x10x5", "7", "filters/0041.jpg",
	})
	require.Equal(t, RowValid, class)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "Fits E90", *rec.Description)
	require.NotNil(t, rec.Weight)
	assert.Equal(t, "0.35", rec.Weight.String())
	require.NotNil(t, rec.CategoryID)
	assert.Equal(t, int64(7), *rec.CategoryID)
	assert.Equal(t, "filters/0041.jpg", *rec.Image)

	rec, _, _ = MapSparePart(l, []string{"0041", "Air Filter", "", "12.50", "4", "Bosch", "", "", "", ""})
	assert.Nil(t, rec.Weight)
	assert.Nil(t, rec.CategoryID)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "", *rec.Description)
}

func TestMapCarModel(t *testing.T) {
	l, err := CarModelSchema.Resolve([]string{"brand", "model", "year_from", "year_to", "country", "is_popular"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		row       []string
		wantClass RowClass
		want      ModelRecord
	}{
		{
			name:      "full row",
			row:       []string{"Toyota", "Camry", "2018", "2023", "Japan", "1"},
			wantClass: RowValid,
			want:      ModelRecord{Brand: "Toyota", Model: "Camry", YearFrom: 2018, YearTo: 2023, Country: "Japan", Popular: true},
		},
		{
			name:      "four columns",
			row:       []string{"Lada", "Niva", "1977", ""},
			wantClass: RowValid,
			want:      ModelRecord{Brand: "Lada", Model: "Niva", YearFrom: 1977},
		},
		{
			name:      "three columns",
			row:       []string{"Lada", "Niva", "1977"},
			wantClass: RowSkip,
		},
		{
			name:      "empty model",
			row:       []string{"Lada", " ", "1977", "1990"},
			wantClass: RowSkip,
		},
		{
			name:      "year wrapping around int32",
			row:       []string{"Toyota", "Camry", "4294969314", "2023"},
			wantClass: RowMalformed,
		},
		{
			name:      "year beyond int range",
			row:       []string{"Toyota", "Camry", "2018", "99999999999999999999"},
			wantClass: RowMalformed,
		},
		{
			name:      "year past the last accepted year",
			row:       []string{"Toyota", "Camry", "2018", "10000"},
			wantClass: RowMalformed,
		},
		{
			name:      "negative year",
			row:       []string{"Lada", "Niva", "-1", "1990"},
			wantClass: RowMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, class, _ := MapCarModel(l, tt.row)
			assert.Equal(t, tt.wantClass, class)
			if tt.wantClass == RowValid {
				assert.Equal(t, tt.want, rec)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"12":                   12,
		" 7 ":                  7,
		"12 pcs":               12,
		"3.9":                  3,
		"abc":                  0,
		"":                     0,
		"-4":                   -4,
		"+5":                   5,
		"-":                    0,
		"99999999999999999999": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseQuantity(in), "ParseQuantity(%q)", in)
	}
}

func TestParsePrice(t *testing.T) {
	tests := map[string]string{
		"500":        "500",
		"12.50":      "12.5",
		"12,50":      "12.5",
		"1 234,56":   "1234.56",
		"1\u00a0000": "1000",
		",5":         "0.5",
		"12.":        "12",
		"9.99 EUR":   "9.99",
		"abc":        "0",
		"":           "0",
		"-3,5":       "-3.5",
		"1,234.56":   "1.234",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePrice(in).String(), "ParsePrice(%q)", in)
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "yes", "y", "t", "popular"} {
		assert.True(t, ParseFlag(s), s)
	}
	for _, s := range []string{"", "0", "false", "No", "n", "f", " off "} {
		assert.False(t, ParseFlag(s), s)
	}
}
