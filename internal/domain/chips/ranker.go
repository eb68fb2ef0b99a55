package chips

import (
	"sort"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
)

const minMinutesForRanking = 450

const defaultPlayerLimit = 10

// PlayerScore is one ranked player with the inputs that produced the score,
// so callers can explain the ranking.
type PlayerScore struct {
	PlayerID      int
	WebName       string
	TeamID        int
	Position      int
	Score         float64
	Form          float64
	FixturesCount int
	AvgDifficulty float64
	TotalPoints   int
}

// RankGameweeksForBenchBoost orders gameweeks by number of teams with
// multiple fixtures, easiest average difficulty breaking ties.
func RankGameweeksForBenchBoost(metrics []GameweekMetric, n int) []GameweekMetric {
	ranked := make([]GameweekMetric, len(metrics))
	copy(ranked, metrics)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TeamsWithMultipleFixtures != ranked[j].TeamsWithMultipleFixtures {
			return ranked[i].TeamsWithMultipleFixtures > ranked[j].TeamsWithMultipleFixtures
		}
		if ranked[i].AvgFixtureDifficulty != ranked[j].AvgFixtureDifficulty {
			return ranked[i].AvgFixtureDifficulty < ranked[j].AvgFixtureDifficulty
		}
		return ranked[i].Gameweek < ranked[j].Gameweek
	})
	return topMetrics(ranked, n)
}

// RankGameweeksForTripleCaptain orders gameweeks by composite difficulty
// score, lowest first.
func RankGameweeksForTripleCaptain(metrics []GameweekMetric, n int) []GameweekMetric {
	ranked := make([]GameweekMetric, len(metrics))
	copy(ranked, metrics)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DifficultyScore != ranked[j].DifficultyScore {
			return ranked[i].DifficultyScore < ranked[j].DifficultyScore
		}
		return ranked[i].Gameweek < ranked[j].Gameweek
	})
	return topMetrics(ranked, n)
}

func topMetrics(ranked []GameweekMetric, n int) []GameweekMetric {
	if n <= 0 || n > len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// RankPlayers scores players against one gameweek metric. position filters by
// element type when positive; limit defaults to 10. Players with fewer than
// 450 season minutes, or whose team has no fixture in the gameweek, are
// excluded.
func RankPlayers(metric GameweekMetric, players []fpl.Player, position, limit int) []PlayerScore {
	if limit <= 0 {
		limit = defaultPlayerLimit
	}

	scored := make([]PlayerScore, 0, limit*2)
	for _, p := range players {
		if position > 0 && p.Position != position {
			continue
		}
		if p.Minutes < minMinutesForRanking {
			continue
		}
		team, ok := metric.TeamData[p.TeamID]
		if !ok || team.FixturesCount == 0 {
			continue
		}

		form := p.FormValue()
		score := form*3 +
			float64(team.FixturesCount)*2 +
			(5-team.AvgDifficulty)*0.5 +
			float64(p.TotalPoints)/20

		scored = append(scored, PlayerScore{
			PlayerID:      p.ID,
			WebName:       p.WebName,
			TeamID:        p.TeamID,
			Position:      p.Position,
			Score:         score,
			Form:          form,
			FixturesCount: team.FixturesCount,
			AvgDifficulty: team.AvgDifficulty,
			TotalPoints:   p.TotalPoints,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].PlayerID < scored[j].PlayerID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
