package xg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ScoreDistribution maps a goal count k (the slice index) to the Poisson
// probability mass P(k) = e^(-lambda) * lambda^k / k!. The distribution is
// truncated at the configured range and values beyond it are simply not
// represented: realistic football scorelines rarely exceed five goals a side,
// so the missing tail is an accepted approximation, not a defect.
type ScoreDistribution []float64

// NewScoreDistribution evaluates the Poisson mass for k in 0..maxGoals-1
func NewScoreDistribution(lambda float64, maxGoals int) ScoreDistribution {
	dist := make(ScoreDistribution, maxGoals)
	if lambda <= 0 {
		// Degenerate side: all mass at zero goals
		dist[0] = 1.0
		return dist
	}

	poisson := distuv.Poisson{Lambda: lambda}
	for k := 0; k < maxGoals; k++ {
		dist[k] = poisson.Prob(float64(k))
	}
	return dist
}

// MostLikely returns the goal count with the highest mass. Ties resolve to
// the smallest count, so the result is deterministic.
func (d ScoreDistribution) MostLikely() int {
	maxProb := 0.0
	mostLikely := 0
	for goals, prob := range d {
		if prob > maxProb {
			maxProb = prob
			mostLikely = goals
		}
	}
	return mostLikely
}

// PredictionResult is the derived outcome of one hypothetical matchup.
// Never persisted.
type PredictionResult struct {
	HomeTeam       string  `json:"homeTeam"`
	AwayTeam       string  `json:"awayTeam"`
	PredictedScore string  `json:"predictedScore"`
	ExpectedXg     float64 `json:"expectedXg"`
}

// TeamCompareStats reports one team's four raw ratings and each rating's
// ratio to the all-metric league average
type TeamCompareStats struct {
	Team         string  `json:"team"`
	AtkHome      float64 `json:"atkHome"`
	DefHome      float64 `json:"defHome"`
	AtkAway      float64 `json:"atkAway"`
	DefAway      float64 `json:"defAway"`
	AtkHomeRatio float64 `json:"atkHomeRatio"`
	DefHomeRatio float64 `json:"defHomeRatio"`
	AtkAwayRatio float64 `json:"atkAwayRatio"`
	DefAwayRatio float64 `json:"defAwayRatio"`
}

// CompareResult is a head-to-head view of two teams: raw and normalized
// ratings plus the one-directional expected xG for either side hosting
type CompareResult struct {
	LeagueAvg      float64            `json:"leagueAvg"`
	Stats          []TeamCompareStats `json:"stats"`
	ExpectedXgAvsB float64            `json:"expectedXgAVsB"`
	ExpectedXgBvsA float64            `json:"expectedXgBVsA"`
}

// makeSensible guards the divisions below against a zero league average,
// which a fully zero-filled table could produce
func makeSensible(value float64) float64 {
	if value == 0.0 {
		return 1.0
	}
	return value
}

// Predict computes the most probable scoreline and expected-goals summary for
// homeTeam hosting awayTeam. Both teams are resolved before any arithmetic so
// a lookup miss can never cascade into NaN results.
//
// Each side's goal count is an independent Poisson variable with
//
//	lambda_home = atk_home(home) * def_away(away) / league_avg
//	lambda_away = atk_away(away) * def_home(home) / league_avg
//
// where league_avg is the mean of every attack cell in the table, recomputed
// per call so it always reflects the currently loaded table (a whole-table
// policy, not just the two teams involved). The predicted score pairs the
// independently most probable count of each marginal, which under
// independence coincides with each marginal's mode.
func Predict(homeTeam, awayTeam string, table *StrengthTable) (*PredictionResult, error) {
	home, err := table.Get(homeTeam)
	if err != nil {
		return nil, err
	}
	away, err := table.Get(awayTeam)
	if err != nil {
		return nil, err
	}

	leagueAvg := makeSensible(table.AttackAverage())

	lambdaHome := home.AtkHome * away.DefAway / leagueAvg
	lambdaAway := away.AtkAway * home.DefHome / leagueAvg

	homeDist := NewScoreDistribution(lambdaHome, Config.PoissonRange)
	awayDist := NewScoreDistribution(lambdaAway, Config.PoissonRange)

	expectedXg := (home.AtkHome*away.DefAway + away.AtkAway*home.DefHome) / (2 * leagueAvg)

	return &PredictionResult{
		HomeTeam:       homeTeam,
		AwayTeam:       awayTeam,
		PredictedScore: fmt.Sprintf("%d-%d", homeDist.MostLikely(), awayDist.MostLikely()),
		ExpectedXg:     roundTo(expectedXg, Config.ExpectedXgPrecision),
	}, nil
}

// Compare reports head-to-head stats for two teams: their raw ratings, each
// rating's ratio to the all-metric league average, and the directional
// expected xG for A hosting B and B hosting A. The directional values use
// only the atk_home/def_away cross term, not the two-lambda average that
// Predict reports.
func Compare(teamA, teamB string, table *StrengthTable) (*CompareResult, error) {
	a, err := table.Get(teamA)
	if err != nil {
		return nil, err
	}
	b, err := table.Get(teamB)
	if err != nil {
		return nil, err
	}

	leagueAvg := makeSensible(table.OverallAverage())

	return &CompareResult{
		LeagueAvg:      roundTo(leagueAvg, 3),
		Stats:          []TeamCompareStats{compareStats(a, leagueAvg), compareStats(b, leagueAvg)},
		ExpectedXgAvsB: roundTo(a.AtkHome*b.DefAway/leagueAvg, Config.ExpectedXgPrecision),
		ExpectedXgBvsA: roundTo(b.AtkHome*a.DefAway/leagueAvg, Config.ExpectedXgPrecision),
	}, nil
}

func compareStats(s *TeamStrength, leagueAvg float64) TeamCompareStats {
	return TeamCompareStats{
		Team:         s.Team,
		AtkHome:      s.AtkHome,
		DefHome:      s.DefHome,
		AtkAway:      s.AtkAway,
		DefAway:      s.DefAway,
		AtkHomeRatio: s.AtkHome / leagueAvg,
		DefHomeRatio: s.DefHome / leagueAvg,
		AtkAwayRatio: s.AtkAway / leagueAvg,
		DefAwayRatio: s.DefAway / leagueAvg,
	}
}

// roundTo rounds to a fixed number of decimal places for display
func roundTo(value float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(value*shift) / shift
}
