package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
)

type fakeFetcher struct {
	calls     atomic.Int32
	failUntil int32
	block     chan struct{}
}

func (f *fakeFetcher) FetchBootstrap(ctx context.Context) ([]fpl.Player, []fpl.Team, []fpl.Gameweek, error) {
	call := f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if call <= f.failUntil {
		return nil, nil, nil, errors.New("upstream returned status 500")
	}
	return []fpl.Player{{ID: 1, WebName: "Saka"}},
		[]fpl.Team{{ID: 1, Name: "Arsenal"}},
		[]fpl.Gameweek{{ID: 1, IsCurrent: true}},
		nil
}

func (f *fakeFetcher) FetchFixtures(ctx context.Context) ([]fpl.Fixture, error) {
	return []fpl.Fixture{}, nil
}

func newTestService(fetcher SnapshotFetcher, ttl time.Duration) *SnapshotService {
	return NewSnapshotService(SnapshotServiceConfig{
		Fetcher: fetcher,
		Logger:  logging.NewNop(),
		TTL:     ttl,
	})
}

func TestSnapshotService_ColdStartFailureThenRecovery(t *testing.T) {
	fetcher := &fakeFetcher{failUntil: 1}
	svc := newTestService(fetcher, time.Hour)

	if _, err := svc.Snapshot(context.Background()); err == nil {
		t.Fatal("cold start with failing upstream must error")
	}

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("recovered fetch failed: %v", err)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSnapshotService_FreshSnapshotIsNotRefetched(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestService(fetcher, time.Hour)

	first, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if first != second {
		t.Fatal("fresh snapshot must be returned by reference, not refetched")
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 upstream fetch, got %d", got)
	}
}

func TestSnapshotService_StaleSnapshotServedWhileRefreshing(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestService(fetcher, time.Hour)

	stale, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("populate: %v", err)
	}

	// Age the snapshot past the TTL.
	svc.now = func() time.Time { return stale.FetchedAt.Add(2 * time.Hour) }

	got, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("stale read: %v", err)
	}
	if got != stale {
		t.Fatal("stale snapshot must be served immediately")
	}

	svc.Shutdown()
	if calls := fetcher.calls.Load(); calls != 2 {
		t.Fatalf("expected one background refresh, got %d total fetches", calls)
	}
	if refreshed := svc.snapshot.Load(); refreshed == stale {
		t.Fatal("background refresh did not swap the snapshot")
	}
}

func TestSnapshotService_ForceRefreshSkippedWhileInFlight(t *testing.T) {
	fetcher := &fakeFetcher{block: make(chan struct{})}
	svc := newTestService(fetcher, time.Hour)

	started := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(context.Background())
		started <- err
	}()

	// Wait for the cold-start fetch to be in flight, then mark the service
	// as refreshing the way the background loop would.
	for fetcher.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	svc.refreshing.Store(true)

	if err := svc.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("skipped refresh should not error: %v", err)
	}

	svc.refreshing.Store(false)
	close(fetcher.block)
	if err := <-started; err != nil {
		t.Fatalf("cold start fetch: %v", err)
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 upstream fetch, got %d", got)
	}
}

func TestSnapshotService_ForceRefreshSharesColdStartFetch(t *testing.T) {
	fetcher := &fakeFetcher{block: make(chan struct{})}
	svc := newTestService(fetcher, time.Hour)

	coldDone := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(context.Background())
		coldDone <- err
	}()

	// Wait for the cold-start fetch to be in flight, then force a refresh
	// from another caller. It must join the same upstream fetch.
	for fetcher.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	forceDone := make(chan error, 1)
	go func() { forceDone <- svc.ForceRefresh(context.Background()) }()

	// Give the force refresh a moment to reach the shared flight before
	// releasing the upstream.
	time.Sleep(10 * time.Millisecond)
	close(fetcher.block)

	if err := <-coldDone; err != nil {
		t.Fatalf("cold start fetch: %v", err)
	}
	if err := <-forceDone; err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected a single shared upstream fetch, got %d", got)
	}
	if svc.snapshot.Load() == nil {
		t.Fatal("snapshot must be populated after the shared fetch")
	}
}

func TestSnapshotService_ForceRefreshBypassesTTL(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestService(fetcher, time.Hour)

	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if err := svc.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if got := fetcher.calls.Load(); got != 2 {
		t.Fatalf("expected 2 upstream fetches, got %d", got)
	}
}

func TestSnapshotService_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestService(fetcher, time.Hour)

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("populate: %v", err)
	}

	fetcher.failUntil = 100 // every further call fails
	if err := svc.ForceRefresh(context.Background()); err == nil {
		t.Fatal("failed refresh should surface an error to the manual caller")
	}
	if svc.snapshot.Load() != snap {
		t.Fatal("failed refresh must leave the previous snapshot in place")
	}
}
