package config

import "time"

// Config carries every option for a single harvester run. It is built once
// from the CLI flags and handed to components by reference.
type Config struct {
	InputFile  string
	OutputFile string
	LogFile    string

	StreamProgressFile   string
	PlaylistProgressFile string

	ReprocessPlaylists bool
	ReprocessStreams   bool
	ClearProgress      bool

	PlaylistWorkers int
	StreamWorkers   int

	Timeout      time.Duration
	SaveInterval time.Duration

	NoFilters    bool
	IncludeRadio bool
	IncludeAdult bool

	Quiet    bool
	NoColors bool
}

func New() *Config {
	return &Config{
		InputFile:            "middleware.sql",
		OutputFile:           "IPTV.m3u8",
		LogFile:              "LOG.log",
		StreamProgressFile:   "stream_check_progress.json",
		PlaylistProgressFile: "playlist_progress.json",
		PlaylistWorkers:      10,
		StreamWorkers:        30,
		Timeout:              10 * time.Second,
		SaveInterval:         30 * time.Second,
	}
}

// ExtendedTimeout is the longer deadline handed to the probing backend for
// streams that are alive but slow to open.
func (c *Config) ExtendedTimeout() time.Duration {
	return c.Timeout + 5*time.Second
}

// ChunkSize is how many playlist fetches are submitted per batch. Twice the
// worker count keeps the pool saturated while a batch is consumed.
func (c *Config) ChunkSize() int {
	return 2 * c.PlaylistWorkers
}
