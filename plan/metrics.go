/*
metrics.go - Injected observability port

PURPOSE:
  Every validation rule failure and classification decision increments a
  named counter. Multi-year legacy-parity debugging depends on being able
  to answer "why did this one participant differ" from counters instead of
  re-deriving it from raw data.

  The port is injected rather than process-global so the engine stays free
  of shared mutable state and each test can assert on its own counters.
*/
package plan

import "sync"

// Metrics receives named counter increments from the engine.
type Metrics interface {
	Incr(name string)
}

// NopMetrics discards all increments.
type NopMetrics struct{}

func (NopMetrics) Incr(string) {}

// Counters is a thread-safe in-memory Metrics implementation, used by the
// CLI and by tests.
type Counters struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int64)}
}

func (c *Counters) Incr(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

// Get returns the current value of one counter.
func (c *Counters) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
