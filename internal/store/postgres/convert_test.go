package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

func TestToPgInt4(t *testing.T) {
	tests := []struct {
		in   int
		want pgtype.Int4
	}{
		{0, pgtype.Int4{Valid: false}},
		{2018, pgtype.Int4{Int32: 2018, Valid: true}},
	}
	for _, tt := range tests {
		got, err := toPgInt4(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := toPgInt4(4294969314)
	assert.Error(t, err)
	_, err = toPgInt4(-4294967296)
	assert.Error(t, err)
}

func TestYearRange(t *testing.T) {
	start, end, err := yearRange(catalog.CarModel{YearStart: 2018})
	require.NoError(t, err)
	assert.Equal(t, pgtype.Int4{Int32: 2018, Valid: true}, start)
	assert.False(t, end.Valid)

	_, _, err = yearRange(catalog.CarModel{YearStart: 2018, YearEnd: 1 << 40})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year_end")
}

func TestToPgText(t *testing.T) {
	assert.False(t, toPgText("   ").Valid)
	assert.Equal(t, pgtype.Text{String: "x.csv", Valid: true}, toPgText(" x.csv "))
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "12.5", "1299.99", "-3.125", "100000"} {
		d := decimal.RequireFromString(s)
		got := fromPgNumeric(toPgNumeric(d))
		assert.True(t, d.Equal(got), "%s != %s", s, got)
	}
}

func TestFromPgNumeric_Invalid(t *testing.T) {
	assert.True(t, fromPgNumeric(pgtype.Numeric{}).IsZero())
	assert.True(t, fromPgNumeric(pgtype.Numeric{NaN: true, Valid: true}).IsZero())
	assert.False(t, fromPgNullNumeric(pgtype.Numeric{}).Valid)
	assert.False(t, toPgNullNumeric(decimal.NullDecimal{}).Valid)
}

func TestPgInt8(t *testing.T) {
	assert.Nil(t, fromPgInt8(pgtype.Int8{}))
	v := int64(9)
	assert.Equal(t, pgtype.Int8{Int64: 9, Valid: true}, toPgInt8(&v))
	assert.Equal(t, int64(9), *fromPgInt8(toPgInt8(&v)))
}
