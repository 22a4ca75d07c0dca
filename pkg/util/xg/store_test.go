package xg

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionedPath(t *testing.T) {
	assert.Equal(t, "data/team_strengths_v2.csv", VersionedPath("data/team_strengths.csv", "v2"))
	assert.Equal(t, "strengths_v1", VersionedPath("strengths", "v1"))
}

func TestStrengthTableRoundTrip(t *testing.T) {
	table, err := ComputeStrengths(fixtureHistory(), FillLeagueMean, "v1")
	require.NoError(t, err)

	basePath := filepath.Join(t.TempDir(), "team_strengths.csv")
	path, err := SaveStrengthTable(table, basePath)
	require.NoError(t, err)
	assert.Equal(t, VersionedPath(basePath, "v1"), path)

	loaded, err := LoadStrengthTable(path)
	require.NoError(t, err)
	require.Len(t, loaded.Teams, len(table.Teams))

	for name, want := range table.Teams {
		got := loaded.Teams[name]
		require.NotNil(t, got, name)
		assert.InDelta(t, want.AtkHome, got.AtkHome, 1e-9)
		assert.InDelta(t, want.DefHome, got.DefHome, 1e-9)
		assert.InDelta(t, want.AtkAway, got.AtkAway, 1e-9)
		assert.InDelta(t, want.DefAway, got.DefAway, 1e-9)
	}
}

func TestSaveStrengthTableOverwrites(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "nested", "dir", "team_strengths.csv")

	first := &StrengthTable{Version: "v1", Teams: map[string]*TeamStrength{
		"Arsenal": {Team: "Arsenal", AtkHome: 1, DefHome: 1, AtkAway: 1, DefAway: 1},
	}}
	_, err := SaveStrengthTable(first, basePath)
	require.NoError(t, err)

	second := &StrengthTable{Version: "v1", Teams: map[string]*TeamStrength{
		"Arsenal": {Team: "Arsenal", AtkHome: 2, DefHome: 2, AtkAway: 2, DefAway: 2},
	}}
	path, err := SaveStrengthTable(second, basePath)
	require.NoError(t, err)

	// Last write wins at the same versioned path
	loaded, err := LoadStrengthTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Teams["Arsenal"].AtkHome)
}

func TestLoadStrengthTableMissing(t *testing.T) {
	_, err := LoadStrengthTable(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var unavailable *StorageUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestTableCacheLoadsOnce(t *testing.T) {
	table, err := ComputeStrengths(fixtureHistory(), FillZero, "v1")
	require.NoError(t, err)

	basePath := filepath.Join(t.TempDir(), "team_strengths.csv")
	path, err := SaveStrengthTable(table, basePath)
	require.NoError(t, err)

	cache := NewTableCache(path)

	// Concurrent first callers must converge on one in-memory copy
	const callers = 16
	results := make([]*StrengthTable, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loaded, err := cache.Get()
			assert.NoError(t, err)
			results[i] = loaded
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestTableCacheMissingFile(t *testing.T) {
	cache := NewTableCache(filepath.Join(t.TempDir(), "absent.csv"))

	_, err := cache.Get()
	require.Error(t, err)

	var unavailable *StorageUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}
