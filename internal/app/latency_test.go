package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyTracker_Empty(t *testing.T) {
	lt := NewLatencyTracker(5 * time.Minute)
	assert.Zero(t, lt.P50())
	assert.Zero(t, lt.Total())
}

func TestLatencyTracker_InsufficientSamples(t *testing.T) {
	lt := NewLatencyTracker(5 * time.Minute)
	now := time.Now()
	for i := 0; i < minLatencySamples-1; i++ {
		lt.RecordAt(now.Add(time.Duration(i)*time.Second), 10*time.Millisecond)
	}
	assert.Zero(t, lt.p50At(now.Add(10*time.Second)))
	assert.Equal(t, minLatencySamples-1, lt.Total())
}

func TestLatencyTracker_Median(t *testing.T) {
	lt := NewLatencyTracker(5 * time.Minute)
	now := time.Now()
	for i, ms := range []int{12, 5, 15, 8, 10} {
		lt.RecordAt(now.Add(time.Duration(i)*time.Second), time.Duration(ms)*time.Millisecond)
	}
	// sorted: 5, 8, 10, 12, 15
	assert.Equal(t, 10*time.Millisecond, lt.p50At(now.Add(10*time.Second)))
}

func TestLatencyTracker_DropsNegative(t *testing.T) {
	lt := NewLatencyTracker(5 * time.Minute)
	lt.Record(-time.Millisecond)
	assert.Zero(t, lt.Total())
}

func TestLatencyTracker_WindowEviction(t *testing.T) {
	lt := NewLatencyTracker(time.Minute)
	start := time.Now()
	for i := 0; i < 5; i++ {
		lt.RecordAt(start.Add(time.Duration(i)*time.Second), 100*time.Millisecond)
	}
	assert.Equal(t, 100*time.Millisecond, lt.p50At(start.Add(10*time.Second)))

	// Two minutes later the old samples are outside the window.
	later := start.Add(2 * time.Minute)
	for i := 0; i < 5; i++ {
		lt.RecordAt(later.Add(time.Duration(i)*time.Second), time.Millisecond)
	}
	assert.Equal(t, time.Millisecond, lt.p50At(later.Add(10*time.Second)))
	assert.Equal(t, 10, lt.Total(), "total counts evicted samples too")
}
