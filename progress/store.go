package progress

import (
	"encoding/json"
	"os"
	"sync"

	"m3u-stream-harvester/checker"
	"m3u-stream-harvester/logger"
)

const (
	StatusCompleted   = "completed"
	StatusAllFiltered = "all_filtered"
	StatusInvalid     = "invalid"
	StatusError       = "error"

	// StatusProcessed marks entries upgraded from the legacy progress file,
	// which only recorded URLs.
	StatusProcessed = "processed"
)

// PlaylistRecord is the terminal outcome of processing one playlist URL.
// Once persisted, the URL is not fetched again unless reprocessing is
// requested explicitly.
type PlaylistRecord struct {
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp"`
	StreamsFound    int    `json:"streams_found"`
	StreamsFiltered int    `json:"streams_filtered"`
	StreamsChecked  int    `json:"streams_checked"`
	WorkingStreams  int    `json:"working_streams"`
	Reason          string `json:"reason,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Store is the durable memoization state: stream key to probe result, and
// playlist URL to terminal record. All access goes through the mutex.
type Store struct {
	mu        sync.Mutex
	streams   map[string]*checker.StreamResult
	playlists map[string]PlaylistRecord
}

func NewStore() *Store {
	return &Store{
		streams:   make(map[string]*checker.StreamResult),
		playlists: make(map[string]PlaylistRecord),
	}
}

// Load reads both progress files. Absence and corruption are non-fatal: the
// run starts empty and rebuilds. The playlist file is accepted in its current
// versioned shape and in the legacy URL-list shape.
func Load(streamPath, playlistPath string, log logger.Logger) *Store {
	s := NewStore()

	if data, err := os.ReadFile(streamPath); err == nil {
		if err := json.Unmarshal(data, &s.streams); err != nil {
			log.Warnf("Could not load stream progress: %v", err)
			s.streams = make(map[string]*checker.StreamResult)
		}
	} else if !os.IsNotExist(err) {
		log.Warnf("Could not read stream progress: %v", err)
	}

	if data, err := os.ReadFile(playlistPath); err == nil {
		var file playlistFile
		if err := json.Unmarshal(data, &file); err != nil {
			log.Warnf("Could not load playlist progress: %v", err)
		} else {
			for url, record := range file.Playlists {
				s.playlists[url] = record
			}
			for _, url := range file.LegacyProcessed {
				if _, ok := s.playlists[url]; !ok {
					s.playlists[url] = PlaylistRecord{Status: StatusProcessed}
				}
			}
		}
	} else if !os.IsNotExist(err) {
		log.Warnf("Could not read playlist progress: %v", err)
	}

	return s
}

func (s *Store) HasStream(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.streams[key]
	return ok
}

func (s *Store) GetStream(key string) (*checker.StreamResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.streams[key]
	return result, ok
}

func (s *Store) PutStream(key string, result *checker.StreamResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[key] = result
}

func (s *Store) HasPlaylist(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.playlists[url]
	return ok
}

func (s *Store) PutPlaylist(url string, record PlaylistRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[url] = record
}

func (s *Store) StreamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

func (s *Store) PlaylistCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playlists)
}

// Snapshot returns point-in-time copies of both maps for serialization.
// Results are never mutated after creation, so copying the pointers is safe.
func (s *Store) Snapshot() (map[string]*checker.StreamResult, map[string]PlaylistRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	streams := make(map[string]*checker.StreamResult, len(s.streams))
	for k, v := range s.streams {
		streams[k] = v
	}
	playlists := make(map[string]PlaylistRecord, len(s.playlists))
	for k, v := range s.playlists {
		playlists[k] = v
	}
	return streams, playlists
}
