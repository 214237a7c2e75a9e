// Package metrics keeps in-memory counters for generation outcomes. The
// store backs the gateway's stats endpoint; it is not a metrics backend.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the store, shaped for JSON.
type Snapshot struct {
	// Attempts counts every invocation that passed admission.
	Attempts int64 `json:"attempts"`

	// Successes counts invocations that produced an image.
	Successes int64 `json:"successes"`

	// Failures counts classified errors, keyed by error kind.
	Failures map[string]int64 `json:"failures"`

	// Rejections counts admission rejections (never dispatched).
	Rejections int64 `json:"rejections"`

	// TotalDurationMS is the cumulative backend call time.
	TotalDurationMS int64 `json:"total_duration_ms"`

	// AverageDurationMS is TotalDurationMS over Attempts.
	AverageDurationMS int64 `json:"average_duration_ms"`

	// UptimeSeconds is the daemon uptime.
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Store aggregates generation outcomes. Safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	attempts      int64
	successes     int64
	failures      map[string]int64
	rejections    int64
	totalDuration time.Duration
	startTime     time.Time
}

// NewStore creates a Store anchored at the given start time.
func NewStore(startTime time.Time) *Store {
	return &Store{
		failures:  make(map[string]int64),
		startTime: startTime,
	}
}

// RecordSuccess records one successful generation and its backend duration.
func (s *Store) RecordSuccess(duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.successes++
	s.totalDuration += duration
}

// RecordFailure records one classified failure and its backend duration.
func (s *Store) RecordFailure(kind string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.failures[kind]++
	s.totalDuration += duration
}

// RecordRejection records one admission rejection.
func (s *Store) RecordRejection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections++
}

// Snapshot returns a copy of the current counters.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	failures := make(map[string]int64, len(s.failures))
	for kind, n := range s.failures {
		failures[kind] = n
	}

	snap := Snapshot{
		Attempts:        s.attempts,
		Successes:       s.successes,
		Failures:        failures,
		Rejections:      s.rejections,
		TotalDurationMS: s.totalDuration.Milliseconds(),
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
	}
	if s.attempts > 0 {
		snap.AverageDurationMS = snap.TotalDurationMS / s.attempts
	}
	return snap
}
