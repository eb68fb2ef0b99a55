package resilience

import "sync"

// SingleFlight collapses concurrent calls that share a key into one
// execution. The snapshot service keys every upstream fetch on a single
// flight key, so a cold-start read, the background refresh loop, and a
// manual refresh racing each other still cost one round of FPL requests.
//
// The zero value is ready to use.
type SingleFlight struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key among concurrent callers. The leader executes fn
// and returns shared=false; every caller that joined while the leader was
// running waits for the leader's result and returns it with shared=true.
// The key is released as soon as the leader finishes, so a later call
// starts a fresh flight.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if g.flights == nil {
		g.flights = make(map[string]*flight)
	}

	if f, ok := g.flights[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	g.flights[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()
	close(f.done)

	g.mu.Lock()
	delete(g.flights, key)
	g.mu.Unlock()

	return f.val, f.err, false
}
