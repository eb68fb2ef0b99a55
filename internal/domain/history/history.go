// Package history models locally stored per-gameweek player statistics from
// past seasons, used to enrich chat context.
package history

import "context"

// GameweekStat is one player's line for one finished gameweek.
type GameweekStat struct {
	Name         string `db:"name"`
	Gameweek     int    `db:"gameweek"`
	OpponentTeam int    `db:"opponent_team"`
	TotalPoints  int    `db:"total_points"`
	GoalsScored  int    `db:"goals_scored"`
	Assists      int    `db:"assists"`
	Minutes      int    `db:"minutes"`
	WasHome      bool   `db:"was_home"`
}

// Repository reads the local stats store. Implementations return empty
// results, not errors, when a player has no recorded history.
type Repository interface {
	// RecentByName returns up to limit stats for the player whose stored
	// name contains the given fragment, most recent gameweek first. When
	// several names match, the longest one wins.
	RecentByName(ctx context.Context, nameFragment string, limit int) ([]GameweekStat, error)

	// DistinctNames lists every player name present in the store.
	DistinctNames(ctx context.Context) ([]string, error)
}
