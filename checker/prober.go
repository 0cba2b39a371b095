package checker

import (
	"context"
	"time"

	"m3u-stream-harvester/logger"
	"m3u-stream-harvester/sourceproc"
)

// Prober wraps the probing backend with per-key memoization. The backend is
// invoked at most once per stream key within a progress generation; later
// encounters return the stored result without touching the network.
type Prober struct {
	backend         Backend
	store           ResultStore
	timeout         time.Duration
	extendedTimeout time.Duration
	reprocess       bool
	log             logger.Logger
}

func NewProber(backend Backend, store ResultStore, timeout, extendedTimeout time.Duration, reprocess bool, log logger.Logger) *Prober {
	return &Prober{
		backend:         backend,
		store:           store,
		timeout:         timeout,
		extendedTimeout: extendedTimeout,
		reprocess:       reprocess,
		log:             log,
	}
}

// Check probes one stream, or returns the memoized result when the key has
// been seen before. The outcome is stored before returning, including
// failures: a dead stream is not worth probing twice.
func (p *Prober) Check(ctx context.Context, ref *sourceproc.StreamRef) *StreamResult {
	key := ref.Key()

	if !p.reprocess {
		if result, ok := p.store.GetStream(key); ok {
			return result
		}
	}

	result := p.probe(ctx, ref)
	p.store.PutStream(key, result)
	return result
}

func (p *Prober) probe(ctx context.Context, ref *sourceproc.StreamRef) *StreamResult {
	now := time.Now().Format("2006-01-02 15:04:05")

	status, err := p.backend.CheckStatus(ctx, ref.URL, p.timeout, p.extendedTimeout)
	if err != nil {
		p.log.Debugf("Probe error for %s: %v", ref.Info.ChannelName, err)
		return &StreamResult{Status: StatusFailed, Reason: err.Error(), CheckedAt: now}
	}
	if status != StatusAlive {
		return &StreamResult{Status: StatusFailed, Reason: "Stream not working", CheckedAt: now}
	}

	codec, videoBitrate, resolution, fps, err := p.backend.DetailedStreamInfo(ctx, ref.URL)
	if err != nil {
		p.log.Debugf("Metadata error for %s: %v", ref.Info.ChannelName, err)
		return &StreamResult{Status: StatusFailed, Reason: err.Error(), CheckedAt: now}
	}

	audioInfo, err := p.backend.AudioBitrate(ctx, ref.URL)
	if err != nil {
		audioInfo = "Unknown"
	}

	info := ref.Info
	return &StreamResult{
		Status:       StatusWorking,
		ExtInf:       ref.ExtInf,
		URL:          ref.URL,
		Info:         &info,
		Codec:        codec,
		VideoBitrate: videoBitrate,
		Resolution:   resolution,
		FPS:          fps,
		AudioInfo:    audioInfo,
		Country:      ResolveCountry(ref.Info),
		CheckedAt:    now,
	}
}
