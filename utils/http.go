package utils

import (
	"net/http"
	"time"
)

// DefaultUserAgent is sent on every playlist download. Some providers refuse
// anything that does not look like a media player.
const DefaultUserAgent = "VLC/3.0.14 LibVLC/3.0.14"

// HTTPClient is the process-wide client for playlist downloads. The transport
// keeps a bounded pool of idle connections; when the pool is saturated a
// fresh connection is opened rather than blocking.
var HTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	},
}
