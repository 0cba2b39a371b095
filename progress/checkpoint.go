package progress

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/robfig/cron/v3"

	"m3u-stream-harvester/logger"
)

// playlistFile is the on-disk shape of the playlist progress file. The
// legacy field keeps old URL-list files readable.
type playlistFile struct {
	Version         string                    `json:"version"`
	LastUpdated     string                    `json:"last_updated"`
	TotalProcessed  int                       `json:"total_processed"`
	Playlists       map[string]PlaylistRecord `json:"playlists"`
	LegacyProcessed []string                  `json:"processed_playlists,omitempty"`
}

const playlistFileVersion = "2.0"

// Checkpointer persists the store and re-materializes the output playlist.
// Flushes are serialized by its mutex and triggered three ways: after every
// playlist wave, on a fixed tick while a long wave drains, and once more on
// SIGINT/SIGTERM.
type Checkpointer struct {
	mu           sync.Mutex
	store        *Store
	streamPath   string
	playlistPath string
	cron         *cron.Cron
	writeOutput  func() error
	log          logger.Logger
}

func NewCheckpointer(store *Store, streamPath, playlistPath string, log logger.Logger) *Checkpointer {
	return &Checkpointer{
		store:        store,
		streamPath:   streamPath,
		playlistPath: playlistPath,
		log:          log,
	}
}

// SetOutputWriter installs the callback that re-materializes the output
// playlist from the working-stream accumulator.
func (c *Checkpointer) SetOutputWriter(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeOutput = fn
}

// Start arms the periodic flush. Save failures are logged and retried on the
// next tick; they never abort the run.
func (c *Checkpointer) Start(interval time.Duration) error {
	cr := cron.New()
	_, err := cr.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := c.Flush(); err != nil {
			c.log.Warnf("Periodic checkpoint failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule checkpoint: %w", err)
	}
	cr.Start()
	c.cron = cr
	return nil
}

func (c *Checkpointer) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// Flush persists a consistent snapshot of both progress maps and rewrites the
// output playlist. Every file goes through an atomic tmp-then-rename; readers
// observe either the old or the new contents, never a partial file.
func (c *Checkpointer) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	streams, playlists := c.store.Snapshot()

	if err := writeJSON(c.streamPath, streams); err != nil {
		return fmt.Errorf("save stream progress: %w", err)
	}

	file := playlistFile{
		Version:        playlistFileVersion,
		LastUpdated:    time.Now().Format("2006-01-02 15:04:05"),
		TotalProcessed: len(playlists),
		Playlists:      playlists,
	}
	if err := writeJSON(c.playlistPath, file); err != nil {
		return fmt.Errorf("save playlist progress: %w", err)
	}

	if c.writeOutput != nil {
		if err := c.writeOutput(); err != nil {
			c.log.Warnf("Incremental output write failed: %v", err)
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644)
}
