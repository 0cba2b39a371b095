package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"m3u-stream-harvester/utils"
)

// FFProbe is the production probing backend. Each operation shells out to
// ffprobe with a hard deadline; a stream is alive when the probe exits
// cleanly and reports at least one media stream.
type FFProbe struct {
	path      string
	userAgent string
}

// NewFFProbe locates the ffprobe binary. Its absence is a startup
// precondition failure for the whole run.
func NewFFProbe() (*FFProbe, error) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &FFProbe{path: path, userAgent: utils.DefaultUserAgent}, nil
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	BitRate      string `json:"bit_rate"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

func (f *FFProbe) run(ctx context.Context, url string, timeout time.Duration) (*ffprobeOutput, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, f.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-user_agent", f.userAgent,
		url,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &probed, nil
}

func (f *FFProbe) CheckStatus(ctx context.Context, url string, timeout, extendedTimeout time.Duration) (string, error) {
	probed, err := f.run(ctx, url, extendedTimeout)
	if err != nil || len(probed.Streams) == 0 {
		// Timeouts and unreachable hosts are the normal case, not an error.
		return "Dead", nil
	}
	return StatusAlive, nil
}

func (f *FFProbe) DetailedStreamInfo(ctx context.Context, url string) (string, string, string, string, error) {
	probed, err := f.run(ctx, url, 30*time.Second)
	if err != nil {
		return "", "", "", "", err
	}

	codec, bitrate, resolution, fps := "Unknown", "Unknown", "Unknown", "Unknown"
	for _, s := range probed.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.CodecName != "" {
			codec = s.CodecName
		}
		if kb := bitRateKb(s.BitRate); kb != "" {
			bitrate = kb
		}
		if s.Width > 0 && s.Height > 0 {
			resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
		}
		if rate := frameRate(s.AvgFrameRate); rate != "" {
			fps = rate
		}
		break
	}
	return codec, bitrate, resolution, fps, nil
}

func (f *FFProbe) AudioBitrate(ctx context.Context, url string) (string, error) {
	probed, err := f.run(ctx, url, 30*time.Second)
	if err != nil {
		return "", err
	}

	for _, s := range probed.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if kb := bitRateKb(s.BitRate); kb != "" {
			return fmt.Sprintf("%s %s", s.CodecName, kb), nil
		}
		return s.CodecName, nil
	}
	return "Unknown", nil
}

// bitRateKb converts ffprobe's bits-per-second string to "N kb/s".
func bitRateKb(bps string) string {
	n, err := strconv.Atoi(bps)
	if err != nil || n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d kb/s", n/1000)
}

// frameRate renders an ffprobe rational like "30000/1001" as a decimal.
func frameRate(rational string) string {
	parts := strings.SplitN(rational, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 || num == 0 {
		return ""
	}
	rate := num / den
	if rate == float64(int(rate)) {
		return strconv.Itoa(int(rate))
	}
	return strconv.FormatFloat(rate, 'f', 2, 64)
}
