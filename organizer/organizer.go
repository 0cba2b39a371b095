package organizer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"m3u-stream-harvester/checker"
)

var (
	parenRegex   = regexp.MustCompile(`\s*\(.*?\)\s*`)
	qualityRegex = regexp.MustCompile(`(?i)\s*(HD|FHD|4K|UHD|SD)\s*`)
	digitsRegex  = regexp.MustCompile(`\d+`)
)

// Entry is one output line pair: the probed result plus the label it gets
// after variant ranking.
type Entry struct {
	Result    *checker.StreamResult
	FinalName string
}

// Organize groups working streams by country and canonical channel name,
// ranks same-name variants by descending bitrate, and labels the runners-up
// "backup 1", "backup 2", and so on.
func Organize(results []*checker.StreamResult) map[string][]*Entry {
	byCountry := make(map[string][]*checker.StreamResult)
	for _, r := range results {
		country := r.Country
		if country == "" {
			country = "Unknown"
		}
		byCountry[country] = append(byCountry[country], r)
	}

	organized := make(map[string][]*Entry, len(byCountry))
	for country, streams := range byCountry {
		byName := make(map[string][]*checker.StreamResult)
		for _, s := range streams {
			name := ""
			if s.Info != nil {
				name = s.Info.ChannelName
			}
			byName[BaseName(name)] = append(byName[BaseName(name)], s)
		}

		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)

		var entries []*Entry
		for _, name := range names {
			variants := byName[name]
			sort.SliceStable(variants, func(i, j int) bool {
				return BitrateValue(variants[i].VideoBitrate) > BitrateValue(variants[j].VideoBitrate)
			})
			for idx, s := range variants {
				label := name
				if idx > 0 {
					label = name + " backup " + strconv.Itoa(idx)
				}
				entries = append(entries, &Entry{Result: s, FinalName: label})
			}
		}
		organized[country] = entries
	}

	return organized
}

// BaseName canonicalizes a channel name: parenthetical segments and quality
// tags are stripped, so "ESPN HD" and "ESPN (backup)" collapse together.
func BaseName(name string) string {
	name = parenRegex.ReplaceAllString(name, "")
	name = qualityRegex.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// BitrateValue parses the leading digits out of a bitrate string like
// "5000 kb/s". Absent or unparseable values rank last.
func BitrateValue(bitrate string) int {
	if bitrate == "" || bitrate == "Unknown" || bitrate == "N/A" {
		return 0
	}
	m := digitsRegex.FindString(bitrate)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
