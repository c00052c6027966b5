package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://catalog@localhost:1/catalog")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "import", "export", "backup", "backups", "history", "reset"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"import without file", []string{"import", "parts"}},
		{"export without entity", []string{"export"}},
		{"backup with extra arg", []string{"backup", "parts", "models"}},
		{"history with arg", []string{"history", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestUnknownEntityRejectedBeforeConnecting(t *testing.T) {
	_, err := execute(t, "import", "wheels", "wheels.csv")
	require.ErrorIs(t, err, catalog.ErrUnknownEntity)

	_, err = execute(t, "export", "wheels")
	require.ErrorIs(t, err, catalog.ErrUnknownEntity)
}

func TestResetRequiresConfirmation(t *testing.T) {
	_, err := execute(t, "reset", "parts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestExportFilterFlags(t *testing.T) {
	f, err := exportOptions{categoryID: "7", manufacturer: "bosch", brandID: "3", popular: "yes"}.filter()
	require.NoError(t, err)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, int64(7), *f.CategoryID)
	assert.Equal(t, "bosch", f.Manufacturer)
	require.NotNil(t, f.BrandID)
	assert.Equal(t, int64(3), *f.BrandID)
	require.NotNil(t, f.Popular)
	assert.True(t, *f.Popular)

	f, err = exportOptions{}.filter()
	require.NoError(t, err)
	assert.Nil(t, f.CategoryID)
	assert.Nil(t, f.Popular)

	_, err = exportOptions{brandID: "toyota"}.filter()
	assert.ErrorIs(t, err, catalog.ErrInvalidFilter)

	_, err = execute(t, "export", "parts", "--category-id", "x")
	assert.ErrorIs(t, err, catalog.ErrInvalidFilter)
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, catalog.EntitySpareParts, catalog.ImportStats{Processed: 10, Created: 7, Updated: 1, Skipped: 1, Errors: 1})
	assert.Equal(t, "spare_parts: processed 10, created 7, updated 1, skipped 1, errors 1\n", buf.String())

	buf.Reset()
	printStats(&buf, catalog.EntityCarModels, catalog.ImportStats{Processed: 1, Created: 1, BrandsCreated: 1})
	assert.Contains(t, buf.String(), "brands created 1")
}

func TestPrintRunsAndBackups(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	var buf bytes.Buffer
	printRuns(&buf, []catalog.ImportRun{{
		ID:        uuid.New(),
		Entity:    catalog.EntityCarModels,
		FileName:  "models.csv",
		Status:    catalog.RunCompleted,
		Stats:     catalog.ImportStats{Processed: 3, Created: 3},
		StartedAt: at,
	}})
	assert.Contains(t, buf.String(), "STARTED")
	assert.Contains(t, buf.String(), "2024-03-09 14:05:07")
	assert.Contains(t, buf.String(), "models.csv")
	assert.Contains(t, buf.String(), "completed")

	buf.Reset()
	printBackups(&buf, []catalog.BackupArtifact{{
		Entity:    catalog.EntitySpareParts,
		Path:      "/srv/backups/2024-03-09/spare_parts_2024-03-09_14-05-07.csv",
		Size:      120,
		CreatedAt: at,
	}})
	assert.Contains(t, buf.String(), "spare_parts_2024-03-09_14-05-07.csv")
	assert.Contains(t, buf.String(), "120")
}
