package checker

import (
	"context"
	"time"
)

// StatusAlive is the backend's answer for a stream that opened and produced
// media data. Anything else counts as not working.
const StatusAlive = "Alive"

// Backend is the external stream-probing engine. It is the sole truth source
// for liveness; no retry layer is added on top of it.
type Backend interface {
	// CheckStatus reports StatusAlive when the stream opens within the
	// deadline, any other string otherwise.
	CheckStatus(ctx context.Context, url string, timeout, extendedTimeout time.Duration) (string, error)

	// DetailedStreamInfo returns codec, video bitrate, resolution and fps
	// for a stream already known to be alive.
	DetailedStreamInfo(ctx context.Context, url string) (codec, videoBitrate, resolution, fps string, err error)

	// AudioBitrate returns a human-readable audio descriptor.
	AudioBitrate(ctx context.Context, url string) (string, error)
}

// ResultStore memoizes probe outcomes. Satisfied by progress.Store.
type ResultStore interface {
	GetStream(key string) (*StreamResult, bool)
	PutStream(key string, result *StreamResult)
}
