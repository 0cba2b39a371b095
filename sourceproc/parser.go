package sourceproc

import (
	"regexp"
	"strings"
)

var (
	tvgIDRegex   = regexp.MustCompile(`tvg-id="([^"]*)"`)
	tvgNameRegex = regexp.MustCompile(`tvg-name="([^"]*)"`)
	tvgLogoRegex = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	groupRegex   = regexp.MustCompile(`group-title="([^"]*)"`)
)

// ParseM3U scans an M3U document line by line. Every #EXTINF line is paired
// with the next non-comment non-empty line as its stream URL. Comments and
// blank lines between entries are tolerated; trailing metadata without a URL
// is silently dropped.
func ParseM3U(content string) []*StreamRef {
	lines := strings.Split(content, "\n")
	var streams []*StreamRef

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "#EXTINF") {
			continue
		}

		j := i + 1
		for j < len(lines) {
			next := strings.TrimSpace(lines[j])
			if next == "" || (strings.HasPrefix(next, "#") && !strings.HasPrefix(next, "#EXTINF")) {
				j++
				continue
			}
			break
		}
		if j >= len(lines) {
			break
		}

		next := strings.TrimSpace(lines[j])
		if strings.HasPrefix(next, "#EXTINF") {
			// Metadata line with no URL before the next entry.
			continue
		}

		streams = append(streams, &StreamRef{
			ExtInf: line,
			URL:    next,
			Info:   ParseChannelInfo(line),
		})
		i = j
	}

	return streams
}

// ParseChannelInfo extracts the quoted tvg attributes from a metadata line.
// The channel name is whatever follows the final comma.
func ParseChannelInfo(extinf string) ChannelInfo {
	var info ChannelInfo

	if m := tvgIDRegex.FindStringSubmatch(extinf); m != nil {
		info.TvgID = m[1]
	}
	if m := tvgNameRegex.FindStringSubmatch(extinf); m != nil {
		info.TvgName = m[1]
	}
	if m := tvgLogoRegex.FindStringSubmatch(extinf); m != nil {
		info.TvgLogo = m[1]
	}
	if m := groupRegex.FindStringSubmatch(extinf); m != nil {
		info.GroupTitle = m[1]
	}
	if idx := strings.LastIndex(extinf, ","); idx != -1 {
		info.ChannelName = strings.TrimSpace(extinf[idx+1:])
	}

	return info
}
