package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajmckee/fpl-assistant/internal/domain/history"
)

func TestParseStatsCSV(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"name,position,GW,opponent_team,total_points,goals_scored,assists,minutes,was_home",
		"Mohamed Salah,MID,12,6,16,2,1,90,true",
		"Bukayo Saka,MID,12,14,3,0,0,77,false",
	}, "\n")

	rows, err := parseStatsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, history.GameweekStat{
		Name:         "Mohamed Salah",
		Gameweek:     12,
		OpponentTeam: 6,
		TotalPoints:  16,
		GoalsScored:  2,
		Assists:      1,
		Minutes:      90,
		WasHome:      true,
	}, rows[0])
	require.Equal(t, "Bukayo Saka", rows[1].Name)
	require.False(t, rows[1].WasHome)
}

func TestParseStatsCSV_RoundAlias(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"name,round,opponent_team,total_points,goals_scored,assists,minutes,was_home",
		"Erling Haaland,3,11,9,1,1,90,false",
	}, "\n")

	rows, err := parseStatsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 3, rows[0].Gameweek)
}

func TestParseStatsCSV_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing column", func(t *testing.T) {
		t.Parallel()
		input := "name,GW,total_points\nSalah,1,10"
		_, err := parseStatsCSV(strings.NewReader(input))
		require.ErrorContains(t, err, "missing column")
	})

	t.Run("bad integer", func(t *testing.T) {
		t.Parallel()
		input := strings.Join([]string{
			"name,GW,opponent_team,total_points,goals_scored,assists,minutes,was_home",
			"Salah,twelve,6,16,2,1,90,true",
		}, "\n")
		_, err := parseStatsCSV(strings.NewReader(input))
		require.ErrorContains(t, err, "line 2")
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		input := strings.Join([]string{
			"name,GW,opponent_team,total_points,goals_scored,assists,minutes,was_home",
			",12,6,16,2,1,90,true",
		}, "\n")
		_, err := parseStatsCSV(strings.NewReader(input))
		require.ErrorContains(t, err, "empty player name")
	})
}

type memWriter struct {
	mu   sync.Mutex
	rows []history.GameweekStat
}

func (w *memWriter) InsertStats(_ context.Context, rows []history.GameweekStat) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, rows...)
	return nil
}

func writeCSVFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	header := "name,GW,opponent_team,total_points,goals_scored,assists,minutes,was_home"
	first := writeCSVFile(t, dir, "gw12.csv", header+"\nSalah,12,6,16,2,1,90,true\nSaka,12,14,3,0,0,77,false")
	second := writeCSVFile(t, dir, "gw13.csv", header+"\nSalah,13,1,8,1,0,90,false")

	writer := &memWriter{}
	total, err := loadFiles(context.Background(), writer, []string{first, second}, 4)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, writer.rows, 3)
}

func TestLoadFiles_ReportsFirstError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	header := "name,GW,opponent_team,total_points,goals_scored,assists,minutes,was_home"
	good := writeCSVFile(t, dir, "good.csv", header+"\nSalah,12,6,16,2,1,90,true")
	bad := writeCSVFile(t, dir, "bad.csv", header+"\nSalah,twelve,6,16,2,1,90,true")

	writer := &memWriter{}
	total, err := loadFiles(context.Background(), writer, []string{good, bad}, 2)
	require.ErrorContains(t, err, "bad.csv")
	require.LessOrEqual(t, total, 1)
}
