package usecase

import (
	"context"
	"sort"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
)

type InjuryService struct {
	snapshots SnapshotProvider
	logger    *logging.Logger
}

func NewInjuryService(snapshots SnapshotProvider, logger *logging.Logger) *InjuryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &InjuryService{snapshots: snapshots, logger: logger}
}

// Injuries lists every flagged player, sorted by team then player name.
func (s *InjuryService) Injuries(ctx context.Context) ([]fpl.InjuryRecord, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	records := fpl.ExtractInjuries(snap)
	sort.Slice(records, func(i, j int) bool {
		if records[i].TeamName != records[j].TeamName {
			return records[i].TeamName < records[j].TeamName
		}
		return records[i].WebName < records[j].WebName
	})
	return records, nil
}

// InjuriesByTeam buckets the flagged players under their team names.
func (s *InjuryService) InjuriesByTeam(ctx context.Context) (map[string][]fpl.InjuryRecord, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return fpl.GroupInjuriesByTeam(fpl.ExtractInjuries(snap)), nil
}
