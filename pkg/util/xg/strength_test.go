package xg

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureHistory covers teams in both roles, home-only and away-only roles
func fixtureHistory() []*MatchRecord {
	return []*MatchRecord{
		{Date: "2023-08-12", HomeTeam: "Arsenal", AwayTeam: "Liverpool", HomeXg: 2.0, AwayXg: 1.0},
		{Date: "2023-08-19", HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeXg: 1.0, AwayXg: 0.5},
		{Date: "2023-08-26", HomeTeam: "Liverpool", AwayTeam: "Arsenal", HomeXg: 1.5, AwayXg: 2.5},
		{Date: "2023-09-02", HomeTeam: "Leeds", AwayTeam: "Fulham", HomeXg: 1.2, AwayXg: 0.8},
	}
}

func TestComputeStrengthsMeans(t *testing.T) {
	table, err := ComputeStrengths(fixtureHistory(), FillZero, "v1")
	require.NoError(t, err)

	arsenal := table.Teams["Arsenal"]
	require.NotNil(t, arsenal)
	assert.InDelta(t, 1.5, arsenal.AtkHome, 1e-12)  // (2.0+1.0)/2
	assert.InDelta(t, 0.75, arsenal.DefHome, 1e-12) // (1.0+0.5)/2
	assert.InDelta(t, 2.5, arsenal.AtkAway, 1e-12)
	assert.InDelta(t, 1.5, arsenal.DefAway, 1e-12)

	// A single match in a role still yields a valid trivial mean
	liverpool := table.Teams["Liverpool"]
	require.NotNil(t, liverpool)
	assert.InDelta(t, 1.5, liverpool.AtkHome, 1e-12)
	assert.InDelta(t, 2.5, liverpool.DefHome, 1e-12)
	assert.InDelta(t, 1.0, liverpool.AtkAway, 1e-12)
	assert.InDelta(t, 2.0, liverpool.DefAway, 1e-12)
}

func TestComputeStrengthsNoUndefinedCells(t *testing.T) {
	for _, fill := range []string{FillLeagueMean, FillTeamMedian, FillZero} {
		table, err := ComputeStrengths(fixtureHistory(), fill, "v1")
		require.NoError(t, err, fill)

		// Every team from either role gets a row with all cells defined
		require.Len(t, table.Teams, 5)
		for name, s := range table.Teams {
			for _, cell := range []float64{s.AtkHome, s.DefHome, s.AtkAway, s.DefAway} {
				assert.False(t, math.IsNaN(cell), "undefined cell for %s under %s", name, fill)
			}
		}
	}
}

func TestComputeStrengthsFillZero(t *testing.T) {
	table, err := ComputeStrengths(fixtureHistory(), FillZero, "v1")
	require.NoError(t, err)

	// Chelsea never played at home
	chelsea := table.Teams["Chelsea"]
	require.NotNil(t, chelsea)
	assert.Equal(t, 0.0, chelsea.AtkHome)
	assert.Equal(t, 0.0, chelsea.DefHome)
	assert.InDelta(t, 0.5, chelsea.AtkAway, 1e-12)
	assert.InDelta(t, 1.0, chelsea.DefAway, 1e-12)
}

func TestComputeStrengthsFillLeagueMean(t *testing.T) {
	history := fixtureHistory()
	table, err := ComputeStrengths(history, FillLeagueMean, "v1")
	require.NoError(t, err)

	// The scalar mean of every home_xg and away_xg value in the history
	var sum float64
	for _, m := range history {
		sum += m.HomeXg + m.AwayXg
	}
	leagueMean := sum / float64(2*len(history))

	chelsea := table.Teams["Chelsea"]
	assert.InDelta(t, leagueMean, chelsea.AtkHome, 1e-12)
	assert.InDelta(t, leagueMean, chelsea.DefHome, 1e-12)

	fulham := table.Teams["Fulham"]
	assert.InDelta(t, leagueMean, fulham.AtkHome, 1e-12)
	assert.InDelta(t, leagueMean, fulham.DefHome, 1e-12)
}

func TestComputeStrengthsFillTeamMedian(t *testing.T) {
	table, err := ComputeStrengths(fixtureHistory(), FillTeamMedian, "v1")
	require.NoError(t, err)

	// Chelsea has no home matches, so the fill falls back to its away median
	chelsea := table.Teams["Chelsea"]
	assert.InDelta(t, 0.5, chelsea.AtkHome, 1e-12)
	assert.InDelta(t, 0.5, chelsea.DefHome, 1e-12)

	// Leeds played only at home: missing away cells fill with the HOME
	// median, never the away one. The fallback is one-directional.
	leeds := table.Teams["Leeds"]
	assert.InDelta(t, 1.2, leeds.AtkAway, 1e-12)
	assert.InDelta(t, 1.2, leeds.DefAway, 1e-12)
}

func TestComputeStrengthsEmptyHistory(t *testing.T) {
	var insufficient *InsufficientDataError

	_, err := ComputeStrengths(nil, FillLeagueMean, "v1")
	require.Error(t, err)
	assert.True(t, errors.As(err, &insufficient))

	_, err = ComputeStrengths(nil, FillTeamMedian, "v1")
	require.Error(t, err)
	assert.True(t, errors.As(err, &insufficient))

	// zero fill has nothing to aggregate, so an empty table is acceptable
	table, err := ComputeStrengths(nil, FillZero, "v1")
	require.NoError(t, err)
	assert.Empty(t, table.Teams)
}

func TestComputeStrengthsUnknownFillMethod(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "team_strengths.csv")

	table, err := ComputeStrengths(fixtureHistory(), "nearest_rival", "v9")

	var configErr *ConfigurationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &configErr))
	assert.Nil(t, table)

	// The estimator run fails before any output is written
	assert.NoFileExists(t, VersionedPath(basePath, "v9"))
}
