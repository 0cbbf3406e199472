package pipeline

import (
	"slices"
	"sync"
	"time"
)

// extraction is one timed parse-and-extract of a single document.
type extraction struct {
	at     time.Time
	took   time.Duration
	failed bool
}

// StatsSnapshot summarizes the documents extracted in the current window.
// Latencies are in microseconds; a typical spell page extracts well under
// a millisecond.
type StatsSnapshot struct {
	Documents int     `json:"documents"`
	Failed    int     `json:"failed"`
	MinUs     int64   `json:"min_us"`
	MaxUs     int64   `json:"max_us"`
	AvgUs     float64 `json:"avg_us"`
	P50Us     float64 `json:"p50_us"`
	P95Us     float64 `json:"p95_us"`
	P99Us     float64 `json:"p99_us"`
}

// ExtractStats keeps the extractions of the last window, both the ones
// that produced a spell and the ones that were skipped.
type ExtractStats struct {
	mu     sync.Mutex
	recent []extraction
	window time.Duration
}

// NewExtractStats returns a tracker over a rolling window; a non-positive
// window means one hour.
func NewExtractStats(window time.Duration) *ExtractStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ExtractStats{
		recent: make([]extraction, 0, 256),
		window: window,
	}
}

// Record adds one document. failed marks a document that was parsed or
// walked without producing a spell.
func (s *ExtractStats) Record(took time.Duration, failed bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(now)
	s.recent = append(s.recent, extraction{at: now, took: max(took, 0), failed: failed})
}

func (s *ExtractStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	s.expireLocked(now)
	var snap StatsSnapshot
	us := make([]int64, 0, len(s.recent))
	var total int64
	for _, e := range s.recent {
		if e.failed {
			snap.Failed++
		}
		us = append(us, e.took.Microseconds())
		total += e.took.Microseconds()
	}
	s.mu.Unlock()

	snap.Documents = len(us)
	if snap.Documents == 0 {
		return snap
	}
	slices.Sort(us)
	snap.MinUs = us[0]
	snap.MaxUs = us[len(us)-1]
	snap.AvgUs = float64(total) / float64(len(us))
	snap.P50Us = percentile(us, 50)
	snap.P95Us = percentile(us, 95)
	snap.P99Us = percentile(us, 99)
	return snap
}

func (s *ExtractStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.recent) && s.recent[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.recent = slices.Delete(s.recent, 0, i)
	}
}

// percentile interpolates linearly between the two nearest ranks of a
// sorted slice.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(len(sorted)-1) * min(max(pct, 0), 100) / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
