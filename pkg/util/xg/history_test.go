package xg

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempHistoryStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := OpenHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryStoreIngestAndLoad(t *testing.T) {
	store := openTempHistoryStore(t)

	count, err := store.Ingest(fixtureHistory())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestHistoryStoreIngestIsIdempotent(t *testing.T) {
	store := openTempHistoryStore(t)

	_, err := store.Ingest(fixtureHistory())
	require.NoError(t, err)
	_, err = store.Ingest(fixtureHistory())
	require.NoError(t, err)

	// Re-ingesting the same matches replaces rows instead of duplicating
	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestHistoryStoreForTeam(t *testing.T) {
	store := openTempHistoryStore(t)
	_, err := store.Ingest(fixtureHistory())
	require.NoError(t, err)

	matches, err := store.ForTeam("Arsenal")
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	matches, err = store.ForTeam("Fulham")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Leeds", matches[0].HomeTeam)
}

func TestHistoryFeedsEstimator(t *testing.T) {
	store := openTempHistoryStore(t)
	_, err := store.Ingest(fixtureHistory())
	require.NoError(t, err)

	records, err := store.All()
	require.NoError(t, err)

	table, err := ComputeStrengths(records, FillLeagueMean, "v1")
	require.NoError(t, err)
	assert.Len(t, table.Teams, 5)

	arsenal := table.Teams["Arsenal"]
	require.NotNil(t, arsenal)
	assert.InDelta(t, 1.5, arsenal.AtkHome, 1e-9)
}

func TestMatchRecordBeforeSave(t *testing.T) {
	bad := &MatchRecord{HomeTeam: "", AwayTeam: "Leeds", HomeXg: 1, AwayXg: 1}
	assert.Error(t, bad.BeforeSave())

	negative := &MatchRecord{HomeTeam: "A", AwayTeam: "B", HomeXg: -0.1, AwayXg: 1}
	assert.Error(t, negative.BeforeSave())

	good := &MatchRecord{HomeTeam: "A", AwayTeam: "B", HomeXg: 0, AwayXg: 0}
	assert.NoError(t, good.BeforeSave())
}
