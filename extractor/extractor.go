package extractor

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"m3u-stream-harvester/logger"
)

// playlistURLPattern matches embedded IPTV playlist URLs: anything http(s)
// carrying a known playlist type= parameter or a direct .m3u/.m3u8 path.
var playlistURLPattern = regexp.MustCompile(
	`(?i)(https?://[^\s',\)]+(?:` +
		`type=(?:m3u[_\-]?(?:plus?|plu[ts]?|pl[a-z]*)?|ss(?:iptv)?|smart(?:_iptv)?|enigma|dreambox|ottplayer|webtvlist|gigablue|simple|ts|hls|xml|tvg_plus|adv_[a-z_]+|[a-z0-9_\-]*m3u[a-z0-9_\-]*)` +
		`|\.m3u8?` +
		`)[^\s',\)]*)`)

var typeParamPattern = regexp.MustCompile(`(?i)type=([^&\s'"]+)`)

// Stats summarizes one extraction pass.
type Stats struct {
	TotalMatches int
	ByType       map[string]int
}

// TopTypes returns the n most common playlist types, most frequent first.
func (s *Stats) TopTypes(n int) []string {
	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if s.ByType[types[i]] != s.ByType[types[j]] {
			return s.ByType[types[i]] > s.ByType[types[j]]
		}
		return types[i] < types[j]
	})
	if len(types) > n {
		types = types[:n]
	}
	return types
}

// ExtractURLs scans the SQL dump line by line and returns every playlist URL
// found, duplicates collapsed preserving first-seen order.
func ExtractURLs(path string, log logger.Logger) ([]string, *Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	stats := &Stats{ByType: make(map[string]int)}
	seen := make(map[string]struct{})
	var uniq []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		for _, m := range playlistURLPattern.FindAllString(scanner.Text(), -1) {
			stats.TotalMatches++
			if tm := typeParamPattern.FindStringSubmatch(m); tm != nil {
				stats.ByType[strings.ToLower(tm[1])]++
			} else if strings.Contains(strings.ToLower(m), ".m3u") {
				stats.ByType["direct_m3u"]++
			}
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				uniq = append(uniq, m)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read input file: %w", err)
	}

	log.Debugf("Scanned %d lines, %d URL matches, %d unique", lineCount, stats.TotalMatches, len(uniq))
	return uniq, stats, nil
}
