package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
)

type TeamDetail struct {
	Team    fpl.Team
	Players []fpl.Player
}

type TeamService struct {
	snapshots SnapshotProvider
	logger    *logging.Logger
}

func NewTeamService(snapshots SnapshotProvider, logger *logging.Logger) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamService{snapshots: snapshots, logger: logger}
}

// Team returns one club with its squad, highest scorers first.
func (s *TeamService) Team(ctx context.Context, teamID int) (TeamDetail, error) {
	if teamID <= 0 {
		return TeamDetail{}, fmt.Errorf("%w: team id must be greater than zero", ErrInvalidInput)
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return TeamDetail{}, err
	}

	team, ok := snap.TeamByID(teamID)
	if !ok {
		return TeamDetail{}, fmt.Errorf("%w: team id %d", ErrNotFound, teamID)
	}

	players := snap.PlayersByTeam(teamID)
	sort.Slice(players, func(i, j int) bool {
		if players[i].TotalPoints != players[j].TotalPoints {
			return players[i].TotalPoints > players[j].TotalPoints
		}
		return players[i].ID < players[j].ID
	})
	return TeamDetail{Team: team, Players: players}, nil
}

// Gameweeks returns the season calendar in gameweek order.
func (s *TeamService) Gameweeks(ctx context.Context) ([]fpl.Gameweek, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	gameweeks := make([]fpl.Gameweek, len(snap.Gameweeks))
	copy(gameweeks, snap.Gameweeks)
	sort.Slice(gameweeks, func(i, j int) bool { return gameweeks[i].ID < gameweeks[j].ID })
	return gameweeks, nil
}
