package xg

import (
	"math"
	"sort"

	"github.com/richard-senior/tactimerge/internal/logger"
	"gonum.org/v1/gonum/stat"
)

// TeamStrength holds one team's expected goals scored and conceded per match,
// split by venue role. Values are per-match means of historical xG.
type TeamStrength struct {
	Team    string  `json:"team"`
	AtkHome float64 `json:"atkHome"`
	DefHome float64 `json:"defHome"`
	AtkAway float64 `json:"atkAway"`
	DefAway float64 `json:"defAway"`
}

// StrengthTable is a versioned collection of team strengths keyed by team
// name. League averages are derived views, recomputed on demand rather than
// stored, so they always reflect the rows currently in the table.
type StrengthTable struct {
	Version string
	Teams   map[string]*TeamStrength
}

// Get looks up a team's strengths, failing with a TeamNotFoundError that
// names the missing team
func (t *StrengthTable) Get(team string) (*TeamStrength, error) {
	strength, ok := t.Teams[team]
	if !ok {
		return nil, &TeamNotFoundError{Team: team}
	}
	return strength, nil
}

// TeamNames returns the table's teams in sorted order
func (t *StrengthTable) TeamNames() []string {
	names := make([]string, 0, len(t.Teams))
	for name := range t.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AttackAverage is the mean of every atk_home and atk_away cell in the
// table. It normalizes raw strengths into goal rates for the Poisson model.
func (t *StrengthTable) AttackAverage() float64 {
	values := make([]float64, 0, 2*len(t.Teams))
	for _, s := range t.Teams {
		values = append(values, s.AtkHome, s.AtkAway)
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// OverallAverage is the mean across all four strength columns, used by
// comparison mode to express each rating as a ratio to the league
func (t *StrengthTable) OverallAverage() float64 {
	values := make([]float64, 0, 4*len(t.Teams))
	for _, s := range t.Teams {
		values = append(values, s.AtkHome, s.DefHome, s.AtkAway, s.DefAway)
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// roleAccumulator tracks running sums and counts for one team in one venue
// role, replacing the dataframe group-by with explicit passes
type roleAccumulator struct {
	scoredSum   float64
	concededSum float64
	matches     int
}

// ComputeStrengths derives per-team attack/defense strengths from historical
// match records and fills any team/role combination with no observed matches
// according to fillMethod. The fill method is validated before anything else
// so a bad configuration can never produce partial output.
func ComputeStrengths(history []*MatchRecord, fillMethod string, version string) (*StrengthTable, error) {
	switch fillMethod {
	case FillLeagueMean, FillTeamMedian, FillZero:
	default:
		return nil, &ConfigurationError{Field: "fill_method", Value: fillMethod}
	}

	if len(history) == 0 && fillMethod != FillZero {
		return nil, &InsufficientDataError{Reason: "empty match history leaves every aggregate undefined"}
	}

	// Group by home team and by away team in two explicit passes.
	// Goals conceded at home are the away side's xG and vice versa.
	home := map[string]*roleAccumulator{}
	away := map[string]*roleAccumulator{}
	for _, match := range history {
		h := home[match.HomeTeam]
		if h == nil {
			h = &roleAccumulator{}
			home[match.HomeTeam] = h
		}
		h.scoredSum += match.HomeXg
		h.concededSum += match.AwayXg
		h.matches++

		a := away[match.AwayTeam]
		if a == nil {
			a = &roleAccumulator{}
			away[match.AwayTeam] = a
		}
		a.scoredSum += match.AwayXg
		a.concededSum += match.HomeXg
		a.matches++
	}

	// Outer join of the two groupings: a team that only ever appears in one
	// role starts with NaN in the other role's cells, to be filled below.
	table := &StrengthTable{Version: version, Teams: map[string]*TeamStrength{}}
	for name, acc := range home {
		table.Teams[name] = &TeamStrength{
			Team:    name,
			AtkHome: acc.scoredSum / float64(acc.matches),
			DefHome: acc.concededSum / float64(acc.matches),
			AtkAway: math.NaN(),
			DefAway: math.NaN(),
		}
	}
	for name, acc := range away {
		strength, ok := table.Teams[name]
		if !ok {
			strength = &TeamStrength{Team: name, AtkHome: math.NaN(), DefHome: math.NaN()}
			table.Teams[name] = strength
		}
		strength.AtkAway = acc.scoredSum / float64(acc.matches)
		strength.DefAway = acc.concededSum / float64(acc.matches)
	}

	if err := fillMissing(table, history, fillMethod); err != nil {
		return nil, err
	}

	logger.Info("Computed strengths for", len(table.Teams), "teams, fill:", fillMethod, "version:", version)
	return table, nil
}

// fillMissing replaces every NaN cell so no undefined value survives into the
// persisted table
func fillMissing(table *StrengthTable, history []*MatchRecord, fillMethod string) error {
	switch fillMethod {
	case FillZero:
		for _, strength := range table.Teams {
			fillStrength(strength, 0.0)
		}

	case FillLeagueMean:
		// One scalar: the mean over every home_xg and away_xg in the history
		values := make([]float64, 0, 2*len(history))
		for _, match := range history {
			values = append(values, match.HomeXg, match.AwayXg)
		}
		if len(values) == 0 {
			return &InsufficientDataError{Reason: "league mean undefined over empty history"}
		}
		leagueMean := stat.Mean(values, nil)
		for _, strength := range table.Teams {
			fillStrength(strength, leagueMean)
		}

	case FillTeamMedian:
		if len(history) == 0 {
			return &InsufficientDataError{Reason: "team medians undefined over empty history"}
		}
		homeXgs := map[string][]float64{}
		awayXgs := map[string][]float64{}
		for _, match := range history {
			homeXgs[match.HomeTeam] = append(homeXgs[match.HomeTeam], match.HomeXg)
			awayXgs[match.AwayTeam] = append(awayXgs[match.AwayTeam], match.AwayXg)
		}
		// Each team's fill value is its home-xG median, falling back to its
		// away-xG median when the team never played at home. Note the
		// asymmetry: the fallback runs home-to-away only, never the reverse.
		// Kept deliberately; changing it would silently shift filled tables.
		for name, strength := range table.Teams {
			fillValue := math.NaN()
			if xs, ok := homeXgs[name]; ok && len(xs) > 0 {
				fillValue = median(xs)
			} else if xs, ok := awayXgs[name]; ok && len(xs) > 0 {
				fillValue = median(xs)
			}
			if math.IsNaN(fillValue) {
				return &InsufficientDataError{Reason: "no median available for team " + name}
			}
			fillStrength(strength, fillValue)
		}
	}

	return nil
}

// fillStrength replaces each NaN cell with the supplied fill value
func fillStrength(strength *TeamStrength, value float64) {
	if math.IsNaN(strength.AtkHome) {
		strength.AtkHome = value
	}
	if math.IsNaN(strength.DefHome) {
		strength.DefHome = value
	}
	if math.IsNaN(strength.AtkAway) {
		strength.AtkAway = value
	}
	if math.IsNaN(strength.DefAway) {
		strength.DefAway = value
	}
}

// median returns the middle value of xs, or NaN when xs is empty
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}
