package sqlite

import (
	"context"
	"testing"

	"github.com/ajmckee/fpl-assistant/internal/domain/history"
)

func newTestRepository(t *testing.T) *HistoryRepository {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	const schema = `CREATE TABLE gameweek_stats (
		name TEXT NOT NULL,
		gameweek INTEGER NOT NULL,
		opponent_team INTEGER NOT NULL,
		total_points INTEGER NOT NULL,
		goals_scored INTEGER NOT NULL,
		assists INTEGER NOT NULL,
		minutes INTEGER NOT NULL,
		was_home BOOLEAN NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return NewHistoryRepository(db)
}

func seedStats(t *testing.T, repo *HistoryRepository) {
	t.Helper()

	rows := []history.GameweekStat{
		{Name: "Son Heung-min", Gameweek: 1, OpponentTeam: 3, TotalPoints: 9, GoalsScored: 1, Minutes: 90, WasHome: true},
		{Name: "Son Heung-min", Gameweek: 2, OpponentTeam: 5, TotalPoints: 2, Minutes: 70},
		{Name: "Son Heung-min", Gameweek: 3, OpponentTeam: 8, TotalPoints: 13, GoalsScored: 2, Minutes: 90, WasHome: true},
		{Name: "Sonny", Gameweek: 1, OpponentTeam: 2, TotalPoints: 1, Minutes: 15},
		{Name: "Mohamed Salah", Gameweek: 1, OpponentTeam: 4, TotalPoints: 12, GoalsScored: 1, Assists: 1, Minutes: 90},
	}
	if err := repo.InsertStats(context.Background(), rows); err != nil {
		t.Fatalf("seed stats: %v", err)
	}
}

func TestHistoryRepository_RecentByName(t *testing.T) {
	repo := newTestRepository(t)
	seedStats(t, repo)

	rows, err := repo.RecentByName(context.Background(), "Son", 2)
	if err != nil {
		t.Fatalf("RecentByName: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Name != "Son Heung-min" {
			t.Fatalf("longest matching name should win, got %q", row.Name)
		}
	}
	if rows[0].Gameweek != 3 || rows[1].Gameweek != 2 {
		t.Fatalf("rows not in descending gameweek order: %+v", rows)
	}
}

func TestHistoryRepository_RecentByNameNoMatch(t *testing.T) {
	repo := newTestRepository(t)
	seedStats(t, repo)

	rows, err := repo.RecentByName(context.Background(), "Zinchenko", 5)
	if err != nil {
		t.Fatalf("RecentByName: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}

	rows, err = repo.RecentByName(context.Background(), "   ", 5)
	if err != nil || rows != nil {
		t.Fatalf("blank fragment should return nothing, got %v %v", rows, err)
	}
}

func TestHistoryRepository_DistinctNames(t *testing.T) {
	repo := newTestRepository(t)
	seedStats(t, repo)

	names, err := repo.DistinctNames(context.Background())
	if err != nil {
		t.Fatalf("DistinctNames: %v", err)
	}
	want := []string{"Mohamed Salah", "Son Heung-min", "Sonny"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
