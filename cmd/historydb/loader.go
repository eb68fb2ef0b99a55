package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ajmckee/fpl-assistant/internal/domain/history"
)

// statsWriter is the slice of the repository the loader needs.
type statsWriter interface {
	InsertStats(ctx context.Context, rows []history.GameweekStat) error
}

// Column aliases across the public FPL datasets. The merged per-season
// exports call the gameweek column "GW", per-player exports call it "round".
var columnAliases = map[string][]string{
	"name":          {"name"},
	"gameweek":      {"gameweek", "GW", "round"},
	"opponent_team": {"opponent_team"},
	"total_points":  {"total_points"},
	"goals_scored":  {"goals_scored"},
	"assists":       {"assists"},
	"minutes":       {"minutes"},
	"was_home":      {"was_home"},
}

func parseStatsCSV(r io.Reader) ([]history.GameweekStat, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var out []history.GameweekStat
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		stat, err := parseStatRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, stat)
	}

	return out, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	position := make(map[string]int, len(header))
	for i, name := range header {
		position[strings.ToLower(strings.TrimSpace(name))] = i
	}

	index := make(map[string]int, len(columnAliases))
	for column, aliases := range columnAliases {
		found := false
		for _, alias := range aliases {
			if i, ok := position[strings.ToLower(alias)]; ok {
				index[column] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing column %q in header", column)
		}
	}

	return index, nil
}

func parseStatRecord(record []string, index map[string]int) (history.GameweekStat, error) {
	field := func(column string) (string, error) {
		i := index[column]
		if i >= len(record) {
			return "", fmt.Errorf("missing field %q", column)
		}
		return strings.TrimSpace(record[i]), nil
	}
	intField := func(column string) (int, error) {
		raw, err := field(column)
		if err != nil {
			return 0, err
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", column, raw, err)
		}
		return value, nil
	}

	name, err := field("name")
	if err != nil {
		return history.GameweekStat{}, err
	}
	if name == "" {
		return history.GameweekStat{}, fmt.Errorf("empty player name")
	}

	gameweek, err := intField("gameweek")
	if err != nil {
		return history.GameweekStat{}, err
	}
	opponent, err := intField("opponent_team")
	if err != nil {
		return history.GameweekStat{}, err
	}
	points, err := intField("total_points")
	if err != nil {
		return history.GameweekStat{}, err
	}
	goals, err := intField("goals_scored")
	if err != nil {
		return history.GameweekStat{}, err
	}
	assists, err := intField("assists")
	if err != nil {
		return history.GameweekStat{}, err
	}
	minutes, err := intField("minutes")
	if err != nil {
		return history.GameweekStat{}, err
	}

	rawHome, err := field("was_home")
	if err != nil {
		return history.GameweekStat{}, err
	}
	wasHome, err := strconv.ParseBool(rawHome)
	if err != nil {
		return history.GameweekStat{}, fmt.Errorf("invalid was_home %q: %w", rawHome, err)
	}

	return history.GameweekStat{
		Name:         name,
		Gameweek:     gameweek,
		OpponentTeam: opponent,
		TotalPoints:  points,
		GoalsScored:  goals,
		Assists:      assists,
		Minutes:      minutes,
		WasHome:      wasHome,
	}, nil
}

// loadFiles parses and inserts each CSV file on a bounded worker pool. The
// first failure is reported; other files still finish.
func loadFiles(ctx context.Context, repo statsWriter, paths []string, workers int) (int, error) {
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    int
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, path := range paths {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			rows, err := loadFile(ctx, repo, path)
			if err != nil {
				fail(fmt.Errorf("%s: %w", path, err))
				return
			}

			mu.Lock()
			total += rows
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("%s: submit: %w", path, submitErr))
		}
	}
	wg.Wait()

	return total, firstErr
}

func loadFile(ctx context.Context, repo statsWriter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := parseStatsCSV(f)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := repo.InsertStats(ctx, rows); err != nil {
		return 0, fmt.Errorf("insert stats: %w", err)
	}

	return len(rows), nil
}
