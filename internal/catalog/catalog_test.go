package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Toyota", "toyota"},
		{"Mercedes-Benz", "mercedes-benz"},
		{"Škoda", "skoda"},
		{"Citroën  C4 Picasso", "citroen-c4-picasso"},
		{"  --Alfa Romeo--  ", "alfa-romeo"},
		{"Лада", "лада"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestModelSlug(t *testing.T) {
	assert.Equal(t, "toyota-camry", ModelSlug("Toyota", "Camry"))
	assert.Equal(t, "bmw-3-series", ModelSlug("BMW", "3 Series"))
}

func TestParseEntity(t *testing.T) {
	tests := []struct {
		in      string
		want    Entity
		wantErr bool
	}{
		{"parts", EntitySpareParts, false},
		{"spare_parts", EntitySpareParts, false},
		{"Models", EntityCarModels, false},
		{"car-models", EntityCarModels, false},
		{"brands", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntity(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownEntity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSparePartSetStock(t *testing.T) {
	var p SparePart
	p.SetStock(3)
	assert.True(t, p.Available)
	p.SetStock(0)
	assert.False(t, p.Available)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"wrapped format mismatch", fmt.Errorf("parts.csv: %w", ErrFormatMismatch), "VAL001"},
		{"backup wins over driver text", fmt.Errorf("%w: duplicate key", ErrBackupFailed), "BAK001"},
		{"batch failure", fmt.Errorf("%w: commit: conn closed", ErrTransactionBatch), "IMP002"},
		{"busy", ErrImportBusy, "IMP001"},
		{"deadline", fmt.Errorf("import: %w", context.DeadlineExceeded), "IMP004"},
		{"driver unique violation", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"case insensitive pattern", errors.New("dial tcp: CONNECTION REFUSED"), "DB003"},
		{"file too large", errors.New("file too large: 80MB"), "FILE003"},
		{"unknown error", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t, "", FormatUserError(nil))
	assert.Equal(t,
		"Another import is in progress (Code: IMP001). Wait for it to finish and try again",
		FormatUserError(ErrImportBusy))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.False(t, IsUserFacing(errors.New("boom")))
	assert.True(t, IsUserFacing(ErrFileNotFound))
}
