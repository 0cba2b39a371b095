package sourceproc

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"m3u-stream-harvester/logger"
	"m3u-stream-harvester/utils"
)

// Fetcher downloads and parses remote M3U playlists. All failures come back
// as an empty stream list: timeouts are the common case at this scale and a
// single bad playlist must never stall the run.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	log       logger.Logger
}

func NewFetcher(timeout time.Duration, log logger.Logger) *Fetcher {
	return &Fetcher{
		client:    utils.HTTPClient,
		userAgent: utils.DefaultUserAgent,
		timeout:   timeout,
		log:       log,
	}
}

// Fetch downloads the playlist at url and parses it into stream records.
// Non-200 responses, transport errors and timeouts all yield a nil slice.
// No retries: fail fast and move on.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]*StreamRef, time.Duration) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		f.log.Debugf("Invalid playlist URL: %v", err)
		return nil, time.Since(start)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debugf("Playlist download failed: %v", err)
		return nil, time.Since(start)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.log.Debugf("Playlist returned status %d", resp.StatusCode)
		return nil, time.Since(start)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.log.Debugf("Playlist body read failed: %v", err)
		return nil, time.Since(start)
	}

	// Permissive decode: providers emit all kinds of byte salad.
	content := strings.ToValidUTF8(string(body), "")

	return ParseM3U(content), time.Since(start)
}
