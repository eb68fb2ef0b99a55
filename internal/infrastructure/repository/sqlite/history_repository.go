// Package sqlite implements the historical stats store on a local SQLite
// database.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	_ "modernc.org/sqlite"

	"github.com/ajmckee/fpl-assistant/internal/domain/history"
	"github.com/ajmckee/fpl-assistant/internal/platform/querybuilder"
)

const statsTable = "gameweek_stats"

// Open connects to the SQLite file at path with otel instrumentation.
func Open(path string) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("sqlite", path,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithDBName("history"),
	)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// modernc sqlite serializes writes itself; one connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	return db, nil
}

type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

var _ history.Repository = (*HistoryRepository)(nil)

func (r *HistoryRepository) RecentByName(ctx context.Context, nameFragment string, limit int) ([]history.GameweekStat, error) {
	fragment := strings.TrimSpace(nameFragment)
	if fragment == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	// Several stored names can contain the fragment ("Son" matches both
	// "Son Heung-min" and "Sonny Perkins"); the longest one wins and the
	// result stays a single player's rows.
	query, args, err := querybuilder.
		Select("name", "gameweek", "opponent_team", "total_points", "goals_scored", "assists", "minutes", "was_home").
		From(statsTable).
		Where(querybuilder.Expr(
			"name = (SELECT name FROM "+statsTable+" WHERE name LIKE ? ORDER BY length(name) DESC, name ASC LIMIT 1)",
			"%"+fragment+"%",
		)).
		OrderBy("gameweek DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []history.GameweekStat
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query history name_fragment=%q: %w", fragment, err)
	}
	return rows, nil
}

func (r *HistoryRepository) DistinctNames(ctx context.Context) ([]string, error) {
	query, args, err := querybuilder.
		Select("DISTINCT name").
		From(statsTable).
		OrderBy("name ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build names query: %w", err)
	}

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("query distinct names: %w", err)
	}
	return names, nil
}

// InsertStats bulk-inserts stat rows in one statement. Used by the database
// builder, not the API process.
func (r *HistoryRepository) InsertStats(ctx context.Context, rows []history.GameweekStat) error {
	if len(rows) == 0 {
		return nil
	}

	builder := querybuilder.InsertInto(statsTable).
		Columns("name", "gameweek", "opponent_team", "total_points", "goals_scored", "assists", "minutes", "was_home")
	for _, row := range rows {
		builder.Values(row.Name, row.Gameweek, row.OpponentTeam, row.TotalPoints, row.GoalsScored, row.Assists, row.Minutes, row.WasHome)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d stat rows: %w", len(rows), err)
	}
	return nil
}
