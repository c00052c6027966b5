package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/catalog/catalogtest"
)

func modelRows(n int) string {
	var b strings.Builder
	b.WriteString("brand,model,year_from,year_to,country,is_popular\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Brand%d,Model%d,2000,2010,Nowhere,0\n", i%3, i)
	}
	return b.String()
}

func TestBatch_CommitsEveryBatchSizeRows(t *testing.T) {
	tests := []struct {
		name        string
		rows        int
		size        int
		wantCommits int
	}{
		{name: "250 rows default size", rows: 250, size: 100, wantCommits: 3},
		{name: "fewer rows than batch", rows: 5, size: 100, wantCommits: 1},
		{name: "no rows", rows: 0, size: 100, wantCommits: 1},
		{name: "batch of one", rows: 4, size: 1, wantCommits: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := catalogtest.NewStore()
			im := New(store, nil, WithBatchConfig(BatchConfig{Size: tt.size, Transactional: true}))

			stats, err := im.ImportCarModels(context.Background(), src(modelRows(tt.rows)), Options{})
			require.NoError(t, err)

			assert.Equal(t, tt.rows, stats.Processed)
			assert.Equal(t, tt.rows, stats.Created)
			assert.Equal(t, tt.wantCommits, store.Commits())
			assert.Len(t, store.Models(), tt.rows)
		})
	}
}

func TestBatch_SkipsAndErrorsCountTowardBatch(t *testing.T) {
	store := catalogtest.NewStore()
	im := New(store, nil, WithBatchConfig(BatchConfig{Size: 2, Transactional: true}))

	body := partsHeader +
		";skip;x;1;1\n" +
		"Bosch;NEG;Negative;-1;1\n" +
		"Bosch;0041;Air Filter;10;1\n"
	stats, err := im.ImportSpareParts(context.Background(), src(body), Options{})
	require.NoError(t, err)

	assert.Equal(t, catalog.ImportStats{Processed: 3, Created: 1, Skipped: 1, Errors: 1}, stats)
	assert.Equal(t, 2, store.Commits())
}

func TestBatch_RecordFailureIsolated(t *testing.T) {
	store := catalogtest.NewStore()
	store.FailOn(catalogtest.OpUpdatePart, func(key string) bool { return key == "Bosch/0002" })
	im := New(store, nil)
	ctx := context.Background()

	_, err := im.ImportSpareParts(ctx, src(partsHeader+"Bosch;0002;Old;1;1\n"), Options{})
	require.NoError(t, err)

	body := partsHeader +
		"Bosch;0001;First;1;1\n" +
		"Bosch;0002;Second;2;2\n" +
		"Bosch;0003;Third;3;3\n"
	stats, err := im.ImportSpareParts(ctx, src(body), Options{UpdateExisting: true})
	require.NoError(t, err)

	assert.Equal(t, catalog.ImportStats{Processed: 3, Created: 2, Errors: 1}, stats)
	p, _ := store.Part("Bosch", "0002")
	assert.Equal(t, "Old", p.Name)
	_, ok := store.Part("Bosch", "0003")
	assert.True(t, ok, "rows after a failed record are still written")
}

func TestBatch_CommitFailureIsFatal(t *testing.T) {
	store := catalogtest.NewStore()
	store.FailCommitAt(2)
	im := New(store, nil, WithBatchConfig(BatchConfig{Size: 100, Transactional: true}))

	stats, err := im.ImportCarModels(context.Background(), src(modelRows(250)), Options{})

	require.ErrorIs(t, err, catalog.ErrTransactionBatch)
	assert.Equal(t, 200, stats.Processed)
	assert.Equal(t, 1, store.Commits())
	assert.Len(t, store.Models(), 100, "first batch stays committed")
	assert.Equal(t, "IMP002", catalog.MapError(err).Code)
}

func TestBatch_BeginFailureIsFatal(t *testing.T) {
	store := catalogtest.NewStore()
	store.FailBeginAt(2)
	im := New(store, nil, WithBatchConfig(BatchConfig{Size: 10, Transactional: true}))

	stats, err := im.ImportCarModels(context.Background(), src(modelRows(25)), Options{})

	require.ErrorIs(t, err, catalog.ErrTransactionBatch)
	assert.Equal(t, 10, stats.Processed)
	assert.Equal(t, 1, store.Commits())
	assert.Len(t, store.Models(), 10)
}

func TestBatch_NonTransactional(t *testing.T) {
	store := catalogtest.NewStore()
	store.FailOn(catalogtest.OpCreateModel, func(key string) bool { return strings.HasSuffix(key, "/Model7") })
	im := New(store, nil, WithBatchConfig(BatchConfig{Size: 100, Transactional: false}))

	stats, err := im.ImportCarModels(context.Background(), src(modelRows(20)), Options{})
	require.NoError(t, err)

	assert.Equal(t, 20, stats.Processed)
	assert.Equal(t, 19, stats.Created)
	assert.Equal(t, 1, stats.Errors)
	assert.Zero(t, store.Commits())
	assert.Len(t, store.Models(), 19)
}

func TestBatch_DefaultSizeForZero(t *testing.T) {
	b := newBatcher(catalogtest.NewStore(), BatchConfig{Transactional: true}, nil)
	assert.Equal(t, DefaultBatchSize, b.cfg.Size)
}
