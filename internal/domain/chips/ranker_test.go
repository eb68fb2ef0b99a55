package chips

import (
	"testing"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
)

func TestRankGameweeksForTripleCaptain(t *testing.T) {
	t.Parallel()

	metrics := []GameweekMetric{
		{Gameweek: 30, DifficultyScore: -4.1},
		{Gameweek: 31, DifficultyScore: 0.9},
		{Gameweek: 32, DifficultyScore: -13.0},
		{Gameweek: 33, DifficultyScore: 100},
		{Gameweek: 34, DifficultyScore: -6.2},
	}

	ranked := RankGameweeksForTripleCaptain(metrics, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 gameweeks, got %d", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].DifficultyScore > ranked[i].DifficultyScore {
			t.Fatalf("ranking not ascending by score: %+v", ranked)
		}
	}
	if ranked[0].Gameweek != 32 || ranked[1].Gameweek != 34 || ranked[2].Gameweek != 30 {
		t.Fatalf("unexpected order: %+v", ranked)
	}
}

func TestRankGameweeksForBenchBoost(t *testing.T) {
	t.Parallel()

	metrics := []GameweekMetric{
		{Gameweek: 20, TeamsWithMultipleFixtures: 0, AvgFixtureDifficulty: 2.0},
		{Gameweek: 21, TeamsWithMultipleFixtures: 4, AvgFixtureDifficulty: 3.5},
		{Gameweek: 22, TeamsWithMultipleFixtures: 4, AvgFixtureDifficulty: 2.8},
		{Gameweek: 23, TeamsWithMultipleFixtures: 1, AvgFixtureDifficulty: 2.2},
	}

	ranked := RankGameweeksForBenchBoost(metrics, 2)
	if ranked[0].Gameweek != 22 || ranked[1].Gameweek != 21 {
		t.Fatalf("double gameweeks should lead, easier fixtures first: %+v", ranked)
	}
}

func TestRankPlayers(t *testing.T) {
	t.Parallel()

	metric := GameweekMetric{
		Gameweek: 10,
		TeamData: map[int]TeamGameweekDetail{
			1: {FixturesCount: 2, AvgDifficulty: 2.0},
			2: {FixturesCount: 1, AvgDifficulty: 4.0},
		},
	}
	players := []fpl.Player{
		{ID: 1, WebName: "DoubleStar", TeamID: 1, Position: fpl.PositionMidfielder, Form: "6.0", Minutes: 900, TotalPoints: 120},
		{ID: 2, WebName: "SingleStar", TeamID: 2, Position: fpl.PositionMidfielder, Form: "6.0", Minutes: 900, TotalPoints: 120},
		{ID: 3, WebName: "Benchwarmer", TeamID: 1, Position: fpl.PositionMidfielder, Form: "9.9", Minutes: 449, TotalPoints: 30},
		{ID: 4, WebName: "NoFixture", TeamID: 3, Position: fpl.PositionMidfielder, Form: "8.0", Minutes: 900, TotalPoints: 100},
		{ID: 5, WebName: "Keeper", TeamID: 1, Position: fpl.PositionGoalkeeper, Form: "4.0", Minutes: 900, TotalPoints: 80},
	}

	ranked := RankPlayers(metric, players, fpl.PositionMidfielder, 0)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked midfielders, got %d: %+v", len(ranked), ranked)
	}
	for _, p := range ranked {
		if p.Form == 9.9 {
			t.Fatal("players under the minutes threshold must be excluded")
		}
	}
	if ranked[0].WebName != "DoubleStar" {
		t.Fatalf("double fixture player should rank first, got %+v", ranked)
	}

	// form*3 + fixtures*2 + (5-avgDifficulty)*0.5 + totalPoints/20
	want := 6.0*3 + 2*2 + (5-2.0)*0.5 + 120.0/20
	if ranked[0].Score != want {
		t.Fatalf("score = %v, want %v", ranked[0].Score, want)
	}
}

func TestRankPlayers_DefaultLimit(t *testing.T) {
	t.Parallel()

	metric := GameweekMetric{TeamData: map[int]TeamGameweekDetail{1: {FixturesCount: 1, AvgDifficulty: 3}}}
	players := make([]fpl.Player, 0, 15)
	for i := 1; i <= 15; i++ {
		players = append(players, fpl.Player{ID: i, TeamID: 1, Position: fpl.PositionForward, Form: "5.0", Minutes: 900})
	}

	ranked := RankPlayers(metric, players, 0, 0)
	if len(ranked) != 10 {
		t.Fatalf("default limit should be 10, got %d", len(ranked))
	}
	// Equal scores fall back to ascending player id.
	if ranked[0].PlayerID != 1 || ranked[9].PlayerID != 10 {
		t.Fatalf("tie-break by player id broken: first=%d last=%d", ranked[0].PlayerID, ranked[9].PlayerID)
	}
}
