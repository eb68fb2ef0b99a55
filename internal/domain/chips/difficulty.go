// Package chips derives gameweek and player metrics used to rank chip
// opportunities. Everything here is pure: callers pass snapshot data in and
// get deterministic results back.
package chips

import (
	"sort"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
)

// blankGameweekScore is the sentinel for gameweeks with no fixtures. It sorts
// blank gameweeks behind every playable one.
const blankGameweekScore = 100

const defaultAvgDifficulty = 3

// FixtureDetail is one fixture as seen from a single team's perspective.
type FixtureDetail struct {
	Opponent   string
	IsHome     bool
	Difficulty int
}

type TeamGameweekDetail struct {
	Name           string
	ShortName      string
	FixturesCount  int
	AvgDifficulty  float64
	FixtureDetails []FixtureDetail
}

// GameweekMetric summarizes one gameweek for chip ranking. Lower
// DifficultyScore means a better chip window.
type GameweekMetric struct {
	Gameweek                  int
	DifficultyScore           float64
	TeamsWithMultipleFixtures int
	AvgFixtureDifficulty      float64
	TeamData                  map[int]TeamGameweekDetail
}

// IdentifyMultiFixtureGameweeks counts fixtures per team per gameweek,
// starting at fromGameweek. Fixtures without an assigned gameweek are skipped.
// Both sides of a fixture are counted, so a double gameweek shows as count 2.
func IdentifyMultiFixtureGameweeks(fixtures []fpl.Fixture, fromGameweek int) map[int]map[int]int {
	counts := make(map[int]map[int]int)
	for _, f := range fixtures {
		if f.Event == nil || *f.Event < fromGameweek {
			continue
		}
		gw := *f.Event
		if counts[gw] == nil {
			counts[gw] = make(map[int]int)
		}
		counts[gw][f.TeamH]++
		counts[gw][f.TeamA]++
	}
	return counts
}

// ComputeDifficulty builds the metric for one gameweek. teamFixtureCounts is
// the per-team count for this gameweek from IdentifyMultiFixtureGameweeks.
//
// The difficulty a team faces is the rating of its opponent: the home side
// faces TeamADifficulty and the away side faces TeamHDifficulty. A blank
// gameweek gets the sentinel score and an empty team map.
func ComputeDifficulty(gameweek int, teamFixtureCounts map[int]int, fixtures []fpl.Fixture, teams []fpl.Team) GameweekMetric {
	// A gameweek with no team fixture counts is blank, whatever the raw
	// fixture list says about it.
	if len(teamFixtureCounts) == 0 {
		return GameweekMetric{
			Gameweek:             gameweek,
			DifficultyScore:      blankGameweekScore,
			AvgFixtureDifficulty: defaultAvgDifficulty,
			TeamData:             map[int]TeamGameweekDetail{},
		}
	}

	teamsByID := make(map[int]fpl.Team, len(teams))
	for _, t := range teams {
		teamsByID[t.ID] = t
	}

	difficulties := make(map[int][]int)
	details := make(map[int][]FixtureDetail)
	for _, f := range fixtures {
		if f.Event == nil || *f.Event != gameweek {
			continue
		}
		difficulties[f.TeamH] = append(difficulties[f.TeamH], f.TeamADifficulty)
		details[f.TeamH] = append(details[f.TeamH], FixtureDetail{
			Opponent:   teamName(teamsByID, f.TeamA),
			IsHome:     true,
			Difficulty: f.TeamADifficulty,
		})
		difficulties[f.TeamA] = append(difficulties[f.TeamA], f.TeamHDifficulty)
		details[f.TeamA] = append(details[f.TeamA], FixtureDetail{
			Opponent:   teamName(teamsByID, f.TeamH),
			IsHome:     false,
			Difficulty: f.TeamHDifficulty,
		})
	}

	if len(difficulties) == 0 {
		return GameweekMetric{
			Gameweek:             gameweek,
			DifficultyScore:      blankGameweekScore,
			AvgFixtureDifficulty: defaultAvgDifficulty,
			TeamData:             map[int]TeamGameweekDetail{},
		}
	}

	// Accumulate in team id order so the float sums come out bit-identical
	// on every call with the same inputs.
	teamIDs := make([]int, 0, len(difficulties))
	for teamID := range difficulties {
		teamIDs = append(teamIDs, teamID)
	}
	sort.Ints(teamIDs)

	teamData := make(map[int]TeamGameweekDetail, len(difficulties))
	multiCount := 0
	sumOfAverages := 0.0
	for _, teamID := range teamIDs {
		faced := difficulties[teamID]
		sum := 0
		for _, d := range faced {
			sum += d
		}
		avg := float64(sum) / float64(len(faced))
		sumOfAverages += avg

		if teamFixtureCounts[teamID] > 1 {
			multiCount++
		}

		t := teamsByID[teamID]
		teamData[teamID] = TeamGameweekDetail{
			Name:           t.Name,
			ShortName:      t.ShortName,
			FixturesCount:  len(faced),
			AvgDifficulty:  avg,
			FixtureDetails: details[teamID],
		}
	}

	avgDifficulty := sumOfAverages / float64(len(difficulties))
	score := avgDifficulty*0.3 - float64(multiCount)*0.7*10

	return GameweekMetric{
		Gameweek:                  gameweek,
		DifficultyScore:           score,
		TeamsWithMultipleFixtures: multiCount,
		AvgFixtureDifficulty:      avgDifficulty,
		TeamData:                  teamData,
	}
}

func teamName(teams map[int]fpl.Team, id int) string {
	if t, ok := teams[id]; ok {
		return t.Name
	}
	return "Unknown"
}
