package pipeline

import (
	"sync"
	"time"
)

// Snapshot is a consistent copy of the run counters.
type Snapshot struct {
	TotalM3U   int
	ValidM3U   int
	InvalidM3U int
	Processed  int

	TotalStreams int
	Checked      int
	Working      int
	Failed       int
	Filtered     int

	Elapsed time.Duration
}

// Stats tracks the global run counters. Updated at well-defined transition
// points under one mutex.
type Stats struct {
	mu    sync.Mutex
	start time.Time

	totalM3U   int
	validM3U   int
	invalidM3U int
	processed  int

	totalStreams int
	checked      int
	working      int
	failed       int
	filtered     int
}

func NewStats(totalPlaylists int) *Stats {
	return &Stats{start: time.Now(), totalM3U: totalPlaylists}
}

func (s *Stats) AddStreams(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalStreams += n
}

func (s *Stats) AddFiltered(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtered += n
}

// MarkPlaylist records one consumed fetch: valid when it yielded streams.
func (s *Stats) MarkPlaylist(valid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	if valid {
		s.validM3U++
	} else {
		s.invalidM3U++
	}
}

// RecordResult counts one finished probe.
func (s *Stats) RecordResult(working bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked++
	if working {
		s.working++
	} else {
		s.failed++
	}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TotalM3U:     s.totalM3U,
		ValidM3U:     s.validM3U,
		InvalidM3U:   s.invalidM3U,
		Processed:    s.processed,
		TotalStreams: s.totalStreams,
		Checked:      s.checked,
		Working:      s.working,
		Failed:       s.failed,
		Filtered:     s.filtered,
		Elapsed:      time.Since(s.start),
	}
}
