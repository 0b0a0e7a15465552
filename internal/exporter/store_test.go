package exporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroprices/internal/checkpoint"
	"agroprices/internal/config"
	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

var storeLabels = domain.Labels{Year: 2024, Region: "Lima", Product: "Papa", Subtype: "Blanca"}

type recordingCheckpointer struct {
	calls int
	err   error
}

func (c *recordingCheckpointer) RecordDone(int, string, string, string) error {
	c.calls++
	return c.err
}

func series(variable domain.Variable, avgs ...float64) []domain.PriceRecord {
	out := make([]domain.PriceRecord, len(avgs))
	for i, avg := range avgs {
		out[i] = record(variable, domain.NewDate(2024, time.March, i+1), avg)
	}
	return out
}

func newTestStore(t *testing.T, registry Checkpointer) (*Store, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(filepath.Join(t.TempDir(), "datos"))
	return NewStore(paths, registry, nil), paths
}

func TestStorePersistFreshDirectory(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), "a", "b", "datos"))
	registry := checkpoint.New(paths.RegistryFile)
	store := NewStore(paths, registry, nil)

	wholesale := series(domain.VariableWholesale, 1, 2, 3)
	retail := series(domain.VariableRetail, 4, 5, 6)

	result, err := store.Persist(context.Background(), wholesale, retail, storeLabels)
	require.NoError(t, err)

	assert.Equal(t, SeriesResult{Path: paths.WholesaleWorkbook(2024), Incoming: 3, Stored: 3}, result.Wholesale)
	assert.Equal(t, SeriesResult{Path: paths.RetailWorkbook(2024), Incoming: 3, Stored: 3}, result.Retail)

	gotWholesale, err := ReadWorkbook(paths.WholesaleWorkbook(2024))
	require.NoError(t, err)
	assert.Equal(t, wholesale, gotWholesale)

	gotRetail, err := ReadWorkbook(paths.RetailWorkbook(2024))
	require.NoError(t, err)
	assert.Equal(t, retail, gotRetail)

	done, err := registry.IsDone(2024, "Lima", "Papa", "Blanca")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestStorePersistIsIdempotent(t *testing.T) {
	checkpointer := &recordingCheckpointer{}
	store, paths := newTestStore(t, checkpointer)
	ctx := context.Background()

	wholesale := series(domain.VariableWholesale, 1, 2)
	retail := series(domain.VariableRetail, 3, 4)

	_, err := store.Persist(ctx, wholesale, retail, storeLabels)
	require.NoError(t, err)
	result, err := store.Persist(ctx, wholesale, retail, storeLabels)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Wholesale.Existing)
	assert.Equal(t, 2, result.Wholesale.Stored)
	assert.Equal(t, 2, result.Wholesale.Dropped)

	got, err := ReadWorkbook(paths.RetailWorkbook(2024))
	require.NoError(t, err)
	assert.Equal(t, retail, got)
	assert.Equal(t, 2, checkpointer.calls)
}

func TestStorePersistEarlyDatesAreIdempotent(t *testing.T) {
	store, paths := newTestStore(t, &recordingCheckpointer{})
	ctx := context.Background()
	labels := storeLabels
	labels.Year = 1900

	dates := []domain.NullDate{
		domain.NewDate(1899, time.December, 31),
		domain.NewDate(1900, time.January, 15),
		domain.NewDate(1900, time.February, 28),
	}
	var wholesale, retail []domain.PriceRecord
	for i, d := range dates {
		wholesale = append(wholesale, record(domain.VariableWholesale, d, float64(i+1)))
		retail = append(retail, record(domain.VariableRetail, d, float64(i+1)))
	}

	_, err := store.Persist(ctx, wholesale, retail, labels)
	require.NoError(t, err)
	result, err := store.Persist(ctx, wholesale, retail, labels)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Wholesale.Stored)
	assert.Equal(t, 3, result.Wholesale.Dropped)
	assert.Equal(t, 3, result.Retail.Stored)

	got, err := ReadWorkbook(paths.WholesaleWorkbook(1900))
	require.NoError(t, err)
	assert.Equal(t, wholesale, got)
}

func TestStorePersistLastWriteWins(t *testing.T) {
	store, paths := newTestStore(t, &recordingCheckpointer{})
	ctx := context.Background()

	_, err := store.Persist(ctx, series(domain.VariableWholesale, 10), series(domain.VariableRetail, 10), storeLabels)
	require.NoError(t, err)
	_, err = store.Persist(ctx, series(domain.VariableWholesale, 20), series(domain.VariableRetail, 30), storeLabels)
	require.NoError(t, err)

	got, err := ReadWorkbook(paths.WholesaleWorkbook(2024))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.NewNumber(20), got[0].PriceAvg)

	got, err = ReadWorkbook(paths.RetailWorkbook(2024))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.NewNumber(30), got[0].PriceAvg)
}

func TestStorePersistRetailFailureSkipsCheckpoint(t *testing.T) {
	checkpointer := &recordingCheckpointer{}
	store, paths := newTestStore(t, checkpointer)

	// A directory where the retail workbook belongs can be neither read nor replaced
	require.NoError(t, os.MkdirAll(paths.RetailWorkbook(2024), 0o755))

	_, err := store.Persist(context.Background(),
		series(domain.VariableWholesale, 1), series(domain.VariableRetail, 2), storeLabels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retail series")
	assert.Equal(t, 0, checkpointer.calls)

	_, statErr := os.Stat(paths.WholesaleWorkbook(2024))
	assert.NoError(t, statErr, "wholesale is written before retail")
}

func TestStorePersistCheckpointFailure(t *testing.T) {
	checkpointer := &recordingCheckpointer{err: errors.New("disk full")}
	store, _ := newTestStore(t, checkpointer)

	_, err := store.Persist(context.Background(),
		series(domain.VariableWholesale, 1), series(domain.VariableRetail, 2), storeLabels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, checkpointer.calls)
}

func TestStorePersistCorruptWorkbook(t *testing.T) {
	checkpointer := &recordingCheckpointer{}
	store, paths := newTestStore(t, checkpointer)

	require.NoError(t, os.MkdirAll(paths.OutputDir, 0o755))
	garbage := []byte("not a workbook")
	require.NoError(t, os.WriteFile(paths.WholesaleWorkbook(2024), garbage, 0o644))

	_, err := store.Persist(context.Background(),
		series(domain.VariableWholesale, 1), series(domain.VariableRetail, 2), storeLabels)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeCorrupt))
	assert.Equal(t, 0, checkpointer.calls)

	data, err := os.ReadFile(paths.WholesaleWorkbook(2024))
	require.NoError(t, err)
	assert.Equal(t, garbage, data, "a corrupt workbook is never overwritten")

	_, statErr := os.Stat(paths.RetailWorkbook(2024))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStorePersistSeparatesYears(t *testing.T) {
	store, paths := newTestStore(t, &recordingCheckpointer{})
	ctx := context.Background()

	labels2023 := storeLabels
	labels2023.Year = 2023

	_, err := store.Persist(ctx, series(domain.VariableWholesale, 1), series(domain.VariableRetail, 1), storeLabels)
	require.NoError(t, err)
	_, err = store.Persist(ctx, series(domain.VariableWholesale, 1), series(domain.VariableRetail, 1), labels2023)
	require.NoError(t, err)

	for _, path := range []string{
		paths.WholesaleWorkbook(2023), paths.WholesaleWorkbook(2024),
		paths.RetailWorkbook(2023), paths.RetailWorkbook(2024),
	} {
		got, err := ReadWorkbook(path)
		require.NoError(t, err, path)
		assert.Len(t, got, 1, path)
	}
}
