package sourceproc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3u-stream-harvester/logger"
	"m3u-stream-harvester/utils"
)

func TestFetcherParsesPlaylist(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:-1,CNN\nhttp://example.com/cnn\n"))
	}))
	defer server.Close()

	f := NewFetcher(2*time.Second, logger.NopLogger{})
	streams, elapsed := f.Fetch(context.Background(), server.URL)

	require.Len(t, streams, 1)
	assert.Equal(t, "CNN", streams[0].Info.ChannelName)
	assert.Equal(t, utils.DefaultUserAgent, gotUA)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestFetcherNon200IsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(2*time.Second, logger.NopLogger{})
	streams, _ := f.Fetch(context.Background(), server.URL)
	assert.Empty(t, streams)
}

func TestFetcherTimeoutIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	f := NewFetcher(50*time.Millisecond, logger.NopLogger{})
	streams, _ := f.Fetch(context.Background(), server.URL)
	assert.Empty(t, streams)
}

func TestFetcherInvalidURLIsEmpty(t *testing.T) {
	f := NewFetcher(time.Second, logger.NopLogger{})
	streams, _ := f.Fetch(context.Background(), "http://127.0.0.1:1/nothing.m3u")
	assert.Empty(t, streams)
}
