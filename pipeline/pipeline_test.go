package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3u-stream-harvester/checker"
	"m3u-stream-harvester/config"
	"m3u-stream-harvester/logger"
	"m3u-stream-harvester/progress"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls int
	alive map[string]bool
}

func (b *fakeBackend) CheckStatus(ctx context.Context, url string, timeout, extended time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.alive[url] {
		return checker.StatusAlive, nil
	}
	return "Dead", nil
}

func (b *fakeBackend) DetailedStreamInfo(ctx context.Context, url string) (string, string, string, string, error) {
	return "h264", "5000 kb/s", "1920x1080", "25", nil
}

func (b *fakeBackend) AudioBitrate(ctx context.Context, url string) (string, error) {
	return "aac 128 kb/s", nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

const goodPlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="bbc.uk" group-title="News",BBC News
http://streams.test/bbc
#EXTINF:-1 group-title="Movies",HBO Movies
http://streams.test/hbo
#EXTINF:-1,Radio FM Mix
http://streams.test/radio
#EXTINF:-1 group-title="News",Dead News
http://streams.test/dead
`

const filteredPlaylist = `#EXTM3U
#EXTINF:-1,Movie Central
http://streams.test/m1
#EXTINF:-1,Cinema Plus
http://streams.test/m2
#EXTINF:-1 group-title="Movies",Late Film
http://streams.test/m3
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New()
	cfg.OutputFile = filepath.Join(dir, "IPTV.m3u8")
	cfg.StreamProgressFile = filepath.Join(dir, "stream_check_progress.json")
	cfg.PlaylistProgressFile = filepath.Join(dir, "playlist_progress.json")
	cfg.Timeout = 2 * time.Second
	cfg.SaveInterval = time.Hour
	return cfg
}

func newTestServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		switch r.URL.Path {
		case "/good.m3u":
			_, _ = w.Write([]byte(goodPlaylist))
		case "/filtered.m3u":
			_, _ = w.Write([]byte(filteredPlaylist))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPipelineEndToEnd(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	backend := &fakeBackend{alive: map[string]bool{"http://streams.test/bbc": true}}
	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})

	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)

	urls := []string{
		server.URL + "/good.m3u",
		server.URL + "/filtered.m3u",
		server.URL + "/missing.m3u",
	}
	require.NoError(t, p.Run(context.Background(), urls))
	require.NoError(t, p.Flush())

	snap := p.Stats()
	assert.Equal(t, 3, snap.Processed)
	assert.Equal(t, 2, snap.ValidM3U)
	assert.Equal(t, 1, snap.InvalidM3U)
	assert.Equal(t, 7, snap.TotalStreams)
	assert.Equal(t, 5, snap.Filtered)
	assert.Equal(t, 2, snap.Checked)
	assert.Equal(t, 1, snap.Working)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, snap.Working+snap.Failed, snap.Checked)
	assert.Equal(t, 1, p.WorkingCount())

	// Terminal playlist records.
	loaded := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	assert.Equal(t, 3, loaded.PlaylistCount())
	assert.True(t, loaded.HasPlaylist(server.URL+"/good.m3u"))
	assert.True(t, loaded.HasPlaylist(server.URL+"/filtered.m3u"))
	assert.True(t, loaded.HasPlaylist(server.URL+"/missing.m3u"))

	// Both probed streams were memoized, working and failed alike.
	assert.True(t, loaded.HasStream("BBC News_http://streams.test/bbc"))
	assert.True(t, loaded.HasStream("Dead News_http://streams.test/dead"))
	assert.Equal(t, 2, backend.callCount())

	// Output holds the single working stream, grouped under its country.
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# ===== UK (1 streams) =====")
	assert.Contains(t, string(data), `group-title="UK",BBC News [1920x1080 5000 kb/s]`)
	assert.Contains(t, string(data), "http://streams.test/bbc")
	assert.NotContains(t, string(data), "http://streams.test/dead")
}

func TestPipelineResumesWithoutRefetching(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	backend := &fakeBackend{alive: map[string]bool{"http://streams.test/bbc": true}}
	urls := []string{server.URL + "/good.m3u", server.URL + "/filtered.m3u"}

	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), urls))
	require.NoError(t, p.Flush())

	firstHits := atomic.LoadInt64(&hits)
	firstCalls := backend.callCount()

	// Second run against the persisted progress: zero fetches, zero probes.
	store2 := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p2, err := New(cfg, logger.NopLogger{}, backend, store2)
	require.NoError(t, err)
	require.NoError(t, p2.Run(context.Background(), urls))

	assert.Equal(t, firstHits, atomic.LoadInt64(&hits))
	assert.Equal(t, firstCalls, backend.callCount())
}

func TestPipelineReprocessUsesMemoizedProbes(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	backend := &fakeBackend{alive: map[string]bool{"http://streams.test/bbc": true}}
	urls := []string{server.URL + "/good.m3u"}

	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), urls))
	require.NoError(t, p.Flush())

	firstCalls := backend.callCount()

	// Reprocessing the playlist re-fetches it but the probes are memoized.
	cfg.ReprocessPlaylists = true
	store2 := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p2, err := New(cfg, logger.NopLogger{}, backend, store2)
	require.NoError(t, err)
	require.NoError(t, p2.Run(context.Background(), urls))

	assert.Greater(t, atomic.LoadInt64(&hits), int64(1))
	assert.Equal(t, firstCalls, backend.callCount())

	snap := p2.Stats()
	assert.Equal(t, 2, snap.Checked)
	assert.Equal(t, 1, snap.Working)
	assert.Equal(t, 1, snap.Failed)
}

func TestPipelineMemoizedFailureSkipsBackend(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	backend := &fakeBackend{alive: map[string]bool{"http://streams.test/bbc": true}}

	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	store.PutStream("BBC News_http://streams.test/bbc", &checker.StreamResult{
		Status: checker.StatusFailed,
		Reason: "Stream not working",
	})
	store.PutStream("Dead News_http://streams.test/dead", &checker.StreamResult{
		Status: checker.StatusFailed,
		Reason: "Stream not working",
	})

	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), []string{server.URL + "/good.m3u"}))

	assert.Equal(t, 0, backend.callCount())

	snap := p.Stats()
	assert.Equal(t, 2, snap.Checked)
	assert.Equal(t, 2, snap.Failed)
	assert.Equal(t, 0, snap.Working)
}

func TestPipelineAllFilteredRecord(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	backend := &fakeBackend{alive: map[string]bool{}}
	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})

	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), []string{server.URL + "/filtered.m3u"}))
	require.NoError(t, p.Flush())

	assert.Equal(t, 0, backend.callCount())

	snap := p.Stats()
	assert.Equal(t, 3, snap.Filtered)
	assert.Equal(t, 0, snap.Checked)

	// No working streams, so no output file is materialized.
	_, err = os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(cfg.PlaylistProgressFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"all_filtered"`)
	assert.Contains(t, string(data), "all 3 streams filtered")
}

func TestPipelineCancelledContextStopsWork(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &fakeBackend{alive: map[string]bool{}}
	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)

	err = p.Run(ctx, []string{server.URL + "/good.m3u"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, backend.callCount())
	assert.False(t, store.HasPlaylist(server.URL+"/good.m3u"))
}

func TestPipelineNoFilters(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)
	cfg.NoFilters = true

	backend := &fakeBackend{alive: map[string]bool{}}
	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), []string{server.URL + "/good.m3u"}))

	snap := p.Stats()
	assert.Equal(t, 0, snap.Filtered)
	assert.Equal(t, 4, snap.Checked)
}

func TestPipelineOutputIsPureFunctionOfAccumulator(t *testing.T) {
	var hits int64
	server := newTestServer(t, &hits)
	cfg := testConfig(t)

	backend := &fakeBackend{alive: map[string]bool{"http://streams.test/bbc": true}}
	store := progress.Load(cfg.StreamProgressFile, cfg.PlaylistProgressFile, logger.NopLogger{})
	p, err := New(cfg, logger.NopLogger{}, backend, store)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), []string{server.URL + "/good.m3u"}))
	require.NoError(t, p.Flush())

	first, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	require.NoError(t, p.Flush())
	second, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	// Identical modulo the generation timestamp line.
	stripGenerated := func(s string) string {
		lines := strings.Split(s, "\n")
		var kept []string
		for _, l := range lines {
			if strings.HasPrefix(l, "# Generated:") {
				continue
			}
			kept = append(kept, l)
		}
		return strings.Join(kept, "\n")
	}
	assert.Equal(t, stripGenerated(string(first)), stripGenerated(string(second)))
}
