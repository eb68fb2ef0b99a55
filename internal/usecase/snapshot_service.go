package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/platform/resilience"
)

const defaultSnapshotTTL = 24 * time.Hour

// snapshotFlightKey dedupes every upstream fetch, whether triggered by a cold
// read, the background loop, or a manual refresh.
const snapshotFlightKey = "snapshot-fetch"

// SnapshotFetcher pulls the upstream dataset. Both calls run concurrently
// during a refresh.
type SnapshotFetcher interface {
	FetchBootstrap(ctx context.Context) ([]fpl.Player, []fpl.Team, []fpl.Gameweek, error)
	FetchFixtures(ctx context.Context) ([]fpl.Fixture, error)
}

type SnapshotServiceConfig struct {
	Fetcher SnapshotFetcher
	Logger  *logging.Logger
	TTL     time.Duration
	// RefreshInterval is the background refresh period. Defaults to TTL.
	RefreshInterval time.Duration
}

// SnapshotService owns the process-wide snapshot cache. Reads are lock-free
// pointer loads; a stale snapshot is served immediately while at most one
// refresh runs in the background.
type SnapshotService struct {
	fetcher         SnapshotFetcher
	logger          *logging.Logger
	ttl             time.Duration
	refreshInterval time.Duration

	snapshot   atomic.Pointer[fpl.Snapshot]
	refreshing atomic.Bool
	flight     resilience.SingleFlight

	now func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSnapshotService(cfg SnapshotServiceConfig) *SnapshotService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = ttl
	}

	return &SnapshotService{
		fetcher:         cfg.Fetcher,
		logger:          logger,
		ttl:             ttl,
		refreshInterval: interval,
		now:             time.Now,
		done:            make(chan struct{}),
	}
}

// Snapshot returns the cached dataset. A cold cache fetches synchronously,
// deduplicated across callers. A stale snapshot is returned as-is after
// kicking off one background refresh.
func (s *SnapshotService) Snapshot(ctx context.Context) (*fpl.Snapshot, error) {
	current := s.snapshot.Load()
	if current == nil {
		out, err, _ := s.flight.Do(snapshotFlightKey, func() (any, error) {
			// Another caller may have populated the cache while this
			// one waited on the flight lock.
			if populated := s.snapshot.Load(); populated != nil {
				return populated, nil
			}
			snap, fetchErr := s.fetch(ctx)
			if fetchErr != nil {
				return nil, fetchErr
			}
			s.snapshot.Store(snap)
			return snap, nil
		})
		if err != nil {
			return nil, fmt.Errorf("cold snapshot fetch: %w", err)
		}
		return out.(*fpl.Snapshot), nil
	}

	if current.IsStale(s.now(), s.ttl) && s.refreshing.CompareAndSwap(false, true) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.refresh(context.WithoutCancel(ctx))
		}()
	}
	return current, nil
}

// ForceRefresh refetches regardless of TTL. A refresh already in flight makes
// this a no-op, so at most one upstream fetch happens at a time.
func (s *SnapshotService) ForceRefresh(ctx context.Context) error {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.logger.InfoContext(ctx, "snapshot refresh already in flight, skipping")
		return nil
	}
	return s.refreshErr(ctx)
}

// Start launches the background refresh loop. The timer re-arms only after
// the previous run completes, so slow refreshes never stack.
func (s *SnapshotService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			timer := time.NewTimer(s.refreshInterval)
			select {
			case <-s.done:
				timer.Stop()
				return
			case <-timer.C:
			}

			if s.refreshing.CompareAndSwap(false, true) {
				s.refresh(context.Background())
			}
		}
	}()
}

// Shutdown stops the refresh loop and waits for in-flight work.
func (s *SnapshotService) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// refresh runs with the refreshing guard already held and releases it. A
// failed refresh keeps the previous snapshot.
func (s *SnapshotService) refresh(ctx context.Context) {
	_ = s.refreshErr(ctx)
}

func (s *SnapshotService) refreshErr(ctx context.Context) error {
	defer s.refreshing.Store(false)

	// Share the flight with cold-start reads so a refresh racing the very
	// first Snapshot call still means a single upstream fetch.
	out, err, _ := s.flight.Do(snapshotFlightKey, func() (any, error) {
		snap, fetchErr := s.fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		s.snapshot.Store(snap)
		return snap, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "snapshot refresh failed, keeping previous snapshot", "error", err)
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	snap := out.(*fpl.Snapshot)
	s.logger.InfoContext(ctx, "snapshot refreshed",
		"players", len(snap.Players),
		"teams", len(snap.Teams),
		"fixtures", len(snap.Fixtures),
	)
	return nil
}

func (s *SnapshotService) fetch(ctx context.Context) (*fpl.Snapshot, error) {
	var (
		players   []fpl.Player
		teams     []fpl.Team
		gameweeks []fpl.Gameweek
		fixtures  []fpl.Fixture
	)

	group := pool.New().WithContext(ctx).WithCancelOnError()
	group.Go(func(ctx context.Context) error {
		var err error
		players, teams, gameweeks, err = s.fetcher.FetchBootstrap(ctx)
		return err
	})
	group.Go(func(ctx context.Context) error {
		var err error
		fixtures, err = s.fetcher.FetchFixtures(ctx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &fpl.Snapshot{
		Players:   players,
		Teams:     teams,
		Gameweeks: gameweeks,
		Fixtures:  fixtures,
		FetchedAt: s.now(),
	}, nil
}
