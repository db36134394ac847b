package translate

import (
	"slices"
	"sync"
	"time"
)

type call struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// StatsSnapshot is a point-in-time aggregate of translation call latencies.
type StatsSnapshot struct {
	Calls    int     `json:"calls"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// LLMStats keeps a rolling window of call outcomes.
type LLMStats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{
		calls:  make([]call, 0, 256),
		window: window,
	}
}

// Record adds one call. Negative durations are clamped to zero.
func (s *LLMStats) Record(d time.Duration, err error) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.calls = append(s.calls, call{at: now, duration: d, failed: err != nil})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	ms := make([]int64, 0, len(s.calls))
	var sum int64
	failures := 0
	for _, c := range s.calls {
		v := c.duration.Milliseconds()
		ms = append(ms, v)
		sum += v
		if c.failed {
			failures++
		}
	}
	slices.Sort(ms)

	return StatsSnapshot{
		Calls:    len(ms),
		Failures: failures,
		MinMs:    ms[0],
		MaxMs:    ms[len(ms)-1],
		AvgMs:    float64(sum) / float64(len(ms)),
		P50Ms:    percentile(ms, 50),
		P95Ms:    percentile(ms, 95),
		P99Ms:    percentile(ms, 99),
	}
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool {
		return c.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	frac := rank - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*frac
}
