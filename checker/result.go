package checker

import "m3u-stream-harvester/sourceproc"

const (
	StatusWorking = "working"
	StatusFailed  = "failed"
)

// StreamResult is the memoized outcome of probing one stream. A working
// result carries the probed media attributes and the inferred country; a
// failed result carries only the reason.
type StreamResult struct {
	Status string `json:"status"`

	ExtInf string                  `json:"extinf,omitempty"`
	URL    string                  `json:"url,omitempty"`
	Info   *sourceproc.ChannelInfo `json:"info,omitempty"`

	Codec        string `json:"codec,omitempty"`
	VideoBitrate string `json:"video_bitrate,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	FPS          string `json:"fps,omitempty"`
	AudioInfo    string `json:"audio_info,omitempty"`
	Country      string `json:"country,omitempty"`

	Reason    string `json:"reason,omitempty"`
	CheckedAt string `json:"checked_at,omitempty"`
}

func (r *StreamResult) Working() bool {
	return r != nil && r.Status == StatusWorking
}
