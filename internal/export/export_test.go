package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/catalog/catalogtest"
	"github.com/JonMunkholm/partscatalog/internal/importer"
)

const bom = "\xEF\xBB\xBF"

func seedParts(t *testing.T, store *catalogtest.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		p := catalog.SparePart{
			Manufacturer: "Bosch",
			PartNumber:   fmt.Sprintf("P-%03d", i),
			Name:         fmt.Sprintf("Part %d", i),
			Price:        decimal.NewFromInt(int64(i)),
			Active:       true,
		}
		p.SetStock(i % 3)
		require.NoError(t, store.CreateSparePart(ctx, &p))
	}
}

func TestSpareParts_HeaderBOMAndColumns(t *testing.T) {
	store := catalogtest.NewStore()
	cat := int64(4)
	p := catalog.SparePart{
		Manufacturer:  "Bosch",
		PartNumber:    "0041",
		Name:          "Air Filter",
		Description:   "Fits E90; E91",
		Price:         decimal.RequireFromString("12.5"),
		StockQuantity: 3,
		Weight:        decimal.NewNullDecimal(decimal.RequireFromString("0.35")),
		Dimensions:    "20x10x5",
		CategoryID:    &cat,
		Image:         "filters/0041.jpg",
	}
	require.NoError(t, store.CreateSparePart(context.Background(), &p))

	var buf bytes.Buffer
	n, err := New(store, 10).SpareParts(context.Background(), catalog.ExportFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	want := bom +
		"part_number;name;description;price;stock_quantity;manufacturer;weight;dimensions;category_id;image\n" +
		"0041;Air Filter;\"Fits E90; E91\";12.50;3;Bosch;0.35;20x10x5;4;filters/0041.jpg\n"
	assert.Equal(t, want, buf.String())
}

func TestCarModels_Columns(t *testing.T) {
	store := catalogtest.NewStore()
	ctx := context.Background()
	brand := catalog.CarBrand{Name: "Toyota", Slug: "toyota", Country: "Japan"}
	require.NoError(t, store.CreateBrand(ctx, &brand))
	require.NoError(t, store.CreateCarModel(ctx, &catalog.CarModel{BrandID: brand.ID, Name: "Camry", YearStart: 2018, YearEnd: 2023, Popular: true}))
	require.NoError(t, store.CreateCarModel(ctx, &catalog.CarModel{BrandID: brand.ID, Name: "Supra", YearStart: 1993}))

	var buf bytes.Buffer
	n, err := New(store, 0).CarModels(ctx, catalog.ExportFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := bom +
		"brand;model;year_from;year_to;description;is_popular;country\n" +
		"Toyota;Camry;2018;2023;;1;Japan\n" +
		"Toyota;Supra;1993;;;0;Japan\n"
	assert.Equal(t, want, buf.String())
}

func TestSpareParts_Chunked(t *testing.T) {
	tests := []struct {
		rows      int
		chunk     int
		wantReads int
	}{
		{rows: 0, chunk: 100, wantReads: 1},
		{rows: 250, chunk: 100, wantReads: 3},
		{rows: 200, chunk: 100, wantReads: 3},
		{rows: 7, chunk: 2, wantReads: 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d rows by %d", tt.rows, tt.chunk), func(t *testing.T) {
			store := catalogtest.NewStore()
			seedParts(t, store, tt.rows)
			before := store.Calls()

			var buf bytes.Buffer
			n, err := New(store, tt.chunk).SpareParts(context.Background(), catalog.ExportFilter{}, &buf)
			require.NoError(t, err)

			assert.Equal(t, tt.rows, n)
			assert.Equal(t, tt.wantReads, store.Calls()-before)
			assert.Equal(t, tt.rows+1, strings.Count(buf.String(), "\n"))
		})
	}
}

func TestSpareParts_Filter(t *testing.T) {
	store := catalogtest.NewStore()
	ctx := context.Background()
	seedParts(t, store, 3)
	other := catalog.SparePart{Manufacturer: "Mann-Filter", PartNumber: "W712", Name: "Oil filter"}
	require.NoError(t, store.CreateSparePart(ctx, &other))

	var buf bytes.Buffer
	n, err := New(store, 100).SpareParts(ctx, catalog.ExportFilter{Manufacturer: "mann"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "W712;Oil filter")
	assert.NotContains(t, buf.String(), "Bosch")
}

func TestExport_StoreFailure(t *testing.T) {
	store := catalogtest.NewStore()
	seedParts(t, store, 5)
	store.FailOn(catalogtest.OpList, func(string) bool { return true })

	_, err := New(store, 2).Export(context.Background(), catalog.EntitySpareParts, catalog.ExportFilter{}, &bytes.Buffer{})
	require.ErrorIs(t, err, catalogtest.ErrInjected)

	_, err = New(store, 2).Export(context.Background(), catalog.Entity("wheels"), catalog.ExportFilter{}, &bytes.Buffer{})
	require.ErrorIs(t, err, catalog.ErrUnknownEntity)
}

func TestToFile(t *testing.T) {
	store := catalogtest.NewStore()
	seedParts(t, store, 2)
	path := filepath.Join(t.TempDir(), "out", "parts.csv")

	got, err := New(store, 100).ToFile(context.Background(), catalog.EntitySpareParts, catalog.ExportFilter{}, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), bom+"part_number;"))
}

func TestToFile_RemovesPartialFile(t *testing.T) {
	store := catalogtest.NewStore()
	store.FailOn(catalogtest.OpList, func(string) bool { return true })
	path := filepath.Join(t.TempDir(), "parts.csv")

	_, err := New(store, 100).ToFile(context.Background(), catalog.EntitySpareParts, catalog.ExportFilter{}, path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSpareParts_ReimportRoundTrip(t *testing.T) {
	src := catalogtest.NewStore()
	seedParts(t, src, 5)

	var buf bytes.Buffer
	_, err := New(src, 2).SpareParts(context.Background(), catalog.ExportFilter{}, &buf)
	require.NoError(t, err)

	dst := catalogtest.NewStore()
	stats, err := importer.New(dst, nil).ImportSpareParts(context.Background(),
		importer.ReaderSource("export.csv", &buf), importer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Created)

	for _, want := range src.Parts() {
		got, ok := dst.Part(want.Manufacturer, want.PartNumber)
		require.True(t, ok)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.StockQuantity, got.StockQuantity)
		assert.True(t, want.Price.Equal(got.Price))
	}
}
