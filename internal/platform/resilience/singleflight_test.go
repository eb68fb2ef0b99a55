package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var calls atomic.Int32

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := g.Do("refresh", func() (any, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "snapshot", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if got, _ := v.(string); got != "snapshot" {
				t.Errorf("unexpected value %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fn called %d times, want 1", got)
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var calls atomic.Int32

	fn := func() (any, error) {
		calls.Add(1)
		return nil, nil
	}

	if _, err, _ := g.Do("a", fn); err != nil {
		t.Fatalf("do a: %v", err)
	}
	if _, err, _ := g.Do("b", fn); err != nil {
		t.Fatalf("do b: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("fn called %d times, want 2", got)
	}
}
