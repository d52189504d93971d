// Package metrics provides lightweight in-process counters for the API
// client. Exposed through api.Client.Stats for diagnostics.
package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// RequestStats aggregates outbound API traffic.
type RequestStats struct {
	Requests Counter
	Failures Counter
	Rejected Counter // 4xx business-rule rejections
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests uint64
	Failures uint64
	Rejected uint64
}

func (s *RequestStats) Snapshot() Snapshot {
	return Snapshot{
		Requests: s.Requests.Load(),
		Failures: s.Failures.Load(),
		Rejected: s.Rejected.Load(),
	}
}
