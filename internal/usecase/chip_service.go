package usecase

import (
	"context"
	"fmt"

	"github.com/ajmckee/fpl-assistant/internal/domain/chips"
	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
)

const (
	defaultChipLimit = 3
	maxChipLimit     = 10
)

// SnapshotProvider is the read side of the snapshot cache.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*fpl.Snapshot, error)
}

type ChipRecommendations struct {
	CurrentGameweek int
	BenchBoost      []chips.GameweekMetric
	TripleCaptain   []chips.GameweekMetric
}

type ChipService struct {
	snapshots SnapshotProvider
	logger    *logging.Logger
}

func NewChipService(snapshots SnapshotProvider, logger *logging.Logger) *ChipService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChipService{snapshots: snapshots, logger: logger}
}

// Recommendations ranks the remaining gameweeks for bench boost and triple
// captain. limit is clamped to 1..10 with a default of 3.
func (s *ChipService) Recommendations(ctx context.Context, limit int) (ChipRecommendations, error) {
	if limit <= 0 {
		limit = defaultChipLimit
	}
	if limit > maxChipLimit {
		limit = maxChipLimit
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return ChipRecommendations{}, err
	}
	current, ok := snap.CurrentGameweek()
	if !ok {
		return ChipRecommendations{}, fmt.Errorf("%w: no active gameweek in snapshot", ErrNotFound)
	}

	metrics := s.remainingGameweekMetrics(snap, current.ID)
	return ChipRecommendations{
		CurrentGameweek: current.ID,
		BenchBoost:      chips.RankGameweeksForBenchBoost(metrics, limit),
		TripleCaptain:   chips.RankGameweeksForTripleCaptain(metrics, limit),
	}, nil
}

// RecommendedPlayers ranks available players against one gameweek's fixture
// outlook. gameweek 0 means the next gameweek, falling back to the current
// one late in the season.
func (s *ChipService) RecommendedPlayers(ctx context.Context, gameweek, position, limit int) ([]chips.PlayerScore, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if gameweek <= 0 {
		next, ok := snap.NextGameweek()
		if !ok {
			next, ok = snap.CurrentGameweek()
		}
		if !ok {
			return nil, fmt.Errorf("%w: no active gameweek in snapshot", ErrNotFound)
		}
		gameweek = next.ID
	}

	counts := chips.IdentifyMultiFixtureGameweeks(snap.Fixtures, gameweek)
	metric := chips.ComputeDifficulty(gameweek, counts[gameweek], snap.Fixtures, snap.Teams)

	available := make([]fpl.Player, 0, len(snap.Players))
	for _, p := range snap.Players {
		if p.Status == fpl.StatusAvailable {
			available = append(available, p)
		}
	}
	return chips.RankPlayers(metric, available, position, limit), nil
}

func (s *ChipService) remainingGameweekMetrics(snap *fpl.Snapshot, fromGameweek int) []chips.GameweekMetric {
	counts := chips.IdentifyMultiFixtureGameweeks(snap.Fixtures, fromGameweek)

	metrics := make([]chips.GameweekMetric, 0, len(snap.Gameweeks))
	for _, gw := range snap.Gameweeks {
		if gw.ID < fromGameweek {
			continue
		}
		metrics = append(metrics, chips.ComputeDifficulty(gw.ID, counts[gw.ID], snap.Fixtures, snap.Teams))
	}
	return metrics
}
