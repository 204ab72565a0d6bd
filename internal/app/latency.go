package app

import (
	"sort"
	"sync"
	"time"
)

// minLatencySamples is how many queries must land in the window before a
// median is reported.
const minLatencySamples = 5

// LatencyTracker collects query durations and reports the P50 over a
// rolling window.
type LatencyTracker struct {
	mu      sync.Mutex
	window  time.Duration
	samples []latencySample
	total   int
}

type latencySample struct {
	ts  time.Time
	dur time.Duration
}

// NewLatencyTracker creates a tracker with the given rolling window duration.
func NewLatencyTracker(window time.Duration) *LatencyTracker {
	return &LatencyTracker{window: window}
}

// Record adds a sample at the current time.
func (l *LatencyTracker) Record(d time.Duration) {
	l.RecordAt(time.Now(), d)
}

// RecordAt adds a sample at a specific timestamp. Negative durations are
// dropped.
func (l *LatencyTracker) RecordAt(ts time.Time, d time.Duration) {
	if d < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, latencySample{ts: ts, dur: d})
	l.total++
	l.evict(ts)
}

// P50 returns the median duration within the window, or 0 with fewer than
// minLatencySamples samples.
func (l *LatencyTracker) P50() time.Duration {
	return l.p50At(time.Now())
}

func (l *LatencyTracker) p50At(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(now)
	if len(l.samples) < minLatencySamples {
		return 0
	}
	durs := make([]time.Duration, len(l.samples))
	for i, s := range l.samples {
		durs[i] = s.dur
	}
	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })
	return durs[len(durs)/2]
}

// Total is the number of samples ever recorded.
func (l *LatencyTracker) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// evict removes samples older than the window. Caller holds mu.
func (l *LatencyTracker) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.samples) && l.samples[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		l.samples = l.samples[i:]
	}
}
