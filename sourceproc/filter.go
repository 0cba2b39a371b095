package sourceproc

import (
	"regexp"
	"strings"
)

var (
	movieRegex  = regexp.MustCompile(`(?i)\b(movie|film|cinema|pelicula|filme|cine)s?\b`)
	seriesRegex = regexp.MustCompile(`(?i)\b(series|tv\s*show|season|episode|episodio|temporada|capitulo)\b`)
	allDayRegex = regexp.MustCompile(`(?i)\b(24/7|24h|24hs|24\s*hour|non-stop|nonstop)\b`)
	vodRegex    = regexp.MustCompile(`(?i)\b(vod|on\s*demand|catch\s*up|replay)\b`)
	adultRegex  = regexp.MustCompile(`(?i)\b(xxx|adult|porn|sexy|\+18|18\+|erotic|playboy|hustler)\b`)
	radioRegex  = regexp.MustCompile(`(?i)\b(radio|fm)\b`)
)

// FilterOptions selects which keyword families are active.
type FilterOptions struct {
	Disabled     bool
	IncludeAdult bool
	IncludeRadio bool
}

// Filter is a pure predicate excluding streams by channel name and group.
// Word-boundary anchoring keeps country codes from matching inside longer
// words ("AR" in "Paramount").
type Filter struct {
	disabled bool
	patterns []*regexp.Regexp
}

func NewFilter(opts FilterOptions) *Filter {
	patterns := []*regexp.Regexp{movieRegex, seriesRegex, allDayRegex, vodRegex}
	if !opts.IncludeAdult {
		patterns = append(patterns, adultRegex)
	}
	if !opts.IncludeRadio {
		patterns = append(patterns, radioRegex)
	}
	return &Filter{disabled: opts.Disabled, patterns: patterns}
}

// ShouldExclude reports whether a stream with the given channel name and
// group title matches any active keyword family.
func (f *Filter) ShouldExclude(channelName, groupTitle string) bool {
	if f.disabled {
		return false
	}
	text := strings.ToLower(channelName + " " + groupTitle)
	for _, p := range f.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
