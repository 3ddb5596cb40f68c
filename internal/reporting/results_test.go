package reporting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynamic-pricing/internal/storage"
	"dynamic-pricing/internal/storage/memory"
)

func writeOutputDir(t *testing.T, withManifest bool) string {
	t.Helper()
	dir := t.TempDir()
	res := fixtureResult()

	require.NoError(t, os.WriteFile(filepath.Join(dir, OptimalPricesFile),
		[]byte(RenderOptimalPricesCSV(res.OptimalPrices)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, PersonalizedPricesFile),
		[]byte(RenderPersonalizedPricesCSV(res.PersonalizedPrices)), 0o644))
	if withManifest {
		data, err := RenderManifest(res.Run)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644))
	}
	return dir
}

func TestDirSource_Load(t *testing.T) {
	dir := writeOutputDir(t, true)

	res, err := NewDirSource(dir).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run1", res.Run.RunID)
	assert.Equal(t, fixedTime, res.Run.StartedAt)
	require.Len(t, res.Optimal, 3)
	require.Len(t, res.Personalized, 6)
	assert.Equal(t, "run1", res.Optimal[0].RunID)

	ov := res.Overview()
	assert.Equal(t, Overview{
		RunID:             "run1",
		DatasetHash:       "abc123",
		CampaignDiscount:  0.15,
		TotalProducts:     3,
		PersonalizedRules: 6,
		Fallbacks:         1,
	}, ov)
}

func TestDirSource_NoManifest(t *testing.T) {
	dir := writeOutputDir(t, false)

	res, err := NewDirSource(dir).Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Run.RunID)
	assert.Len(t, res.Optimal, 3)
}

func TestDirSource_MissingTable(t *testing.T) {
	dir := writeOutputDir(t, true)
	require.NoError(t, os.Remove(filepath.Join(dir, PersonalizedPricesFile)))

	_, err := NewDirSource(dir).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManifest_RoundTrip(t *testing.T) {
	run := fixtureResult().Run
	data, err := RenderManifest(run)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run1")

	parsed, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, run, parsed)
}

func TestManifest_MissingRunID(t *testing.T) {
	_, err := ParseManifest([]byte("dataset_hash: x\n"))
	assert.Error(t, err)
}

func TestStoreSource_Load(t *testing.T) {
	ctx := context.Background()
	res := fixtureResult()

	runs := memory.NewPricingRunStore()
	optimal := memory.NewOptimalPriceStore()
	personalized := memory.NewPersonalizedPriceStore()

	run := res.Run
	require.NoError(t, runs.Insert(ctx, &run))
	require.NoError(t, optimal.InsertBulk(ctx, res.OptimalPrices))
	require.NoError(t, personalized.InsertBulk(ctx, res.PersonalizedPrices))

	loaded, err := NewStoreSource(runs, optimal, personalized).Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "run1", loaded.Run.RunID)
	assert.Len(t, loaded.Optimal, 3)
	assert.Len(t, loaded.Personalized, 6)
	assert.Equal(t, 6, loaded.Overview().PersonalizedRules)
}

func TestStoreSource_NoRuns(t *testing.T) {
	src := NewStoreSource(memory.NewPricingRunStore(), memory.NewOptimalPriceStore(), memory.NewPersonalizedPriceStore())

	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
