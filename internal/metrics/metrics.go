package metrics

import (
	"sync"
	"sync/atomic"
)

// Counters served as a JSON snapshot by the metrics endpoint. Kept simple
// and thread-safe for use from middlewares and handlers.

var rateLimitDrops uint64

// IncRateLimitDrop counts a request rejected with HTTP 429.
func IncRateLimitDrop() {
	atomic.AddUint64(&rateLimitDrops, 1)
}

func RateLimitDrops() uint64 {
	return atomic.LoadUint64(&rateLimitDrops)
}

// opStats counts automation operations by name (created, updated, deleted,
// duplicated, test_run).
type opStats struct {
	mu    sync.Mutex
	byOp  map[string]uint64
	total uint64
}

var ops opStats

func IncAutomationOp(op string) {
	atomic.AddUint64(&ops.total, 1)
	ops.mu.Lock()
	if ops.byOp == nil {
		ops.byOp = make(map[string]uint64)
	}
	ops.byOp[op]++
	ops.mu.Unlock()
}

// AutomationOpSnapshot returns a copy of the current counters.
func AutomationOpSnapshot() (total uint64, by map[string]uint64) {
	total = atomic.LoadUint64(&ops.total)
	ops.mu.Lock()
	defer ops.mu.Unlock()
	by = make(map[string]uint64, len(ops.byOp))
	for k, v := range ops.byOp {
		by[k] = v
	}
	return total, by
}
