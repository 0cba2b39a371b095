package checker

import (
	"strings"

	"m3u-stream-harvester/sourceproc"
)

// countryKeywords maps a country code to the tokens that imply it. Checked
// after the priority list, in a fixed order.
var countryKeywords = []struct {
	code     string
	keywords []string
}{
	{"AR", []string{"ARGENTINA", "AR"}},
	{"BR", []string{"BRAZIL", "BRASIL", "BR"}},
	{"CA", []string{"CANADA", "CA"}},
	{"DE", []string{"GERMANY", "DEUTSCHLAND", "DE"}},
	{"ES", []string{"SPAIN", "ESPAÑA", "ES"}},
	{"FR", []string{"FRANCE", "FR"}},
	{"IT", []string{"ITALY", "ITALIA", "IT"}},
	{"MX", []string{"MEXICO", "MX"}},
	{"PT", []string{"PORTUGAL", "PT"}},
}

// priorityKeywords are checked first. Long-form names for the big buckets
// must win before the generic table gets a chance to misfire ("AR" inside
// "PARAMOUNT", "FR" inside "FREEFORM").
var priorityKeywords = []struct {
	code     string
	keywords []string
}{
	{"US", []string{"USA", "UNITED STATES", "AMERICA"}},
	{"UK", []string{"UNITED KINGDOM", "UK", "GB", "ENGLAND", "BRITISH"}},
	{"INT", []string{"INTERNATIONAL", "INT"}},
}

// tldCountries maps a tvg-id TLD suffix to its country bucket.
var tldCountries = map[string]string{
	"ar": "AR", "br": "BR", "ca": "CA", "de": "DE", "es": "ES",
	"fr": "FR", "it": "IT", "mx": "MX", "pt": "PT",
	"uk": "UK", "gb": "UK", "us": "US",
}

var knownCodes = map[string]struct{}{
	"AR": {}, "BR": {}, "CA": {}, "DE": {}, "ES": {}, "FR": {},
	"IT": {}, "MX": {}, "PT": {}, "UK": {}, "US": {},
}

// ResolveCountry infers a country code from channel metadata. tvg-id carries
// the strongest signal (TLD suffix, then a code prefix), the free-text scan
// over group title and channel name is the fallback.
func ResolveCountry(info sourceproc.ChannelInfo) string {
	if info.TvgID != "" {
		if idx := strings.LastIndex(info.TvgID, "."); idx != -1 {
			tld := strings.ToLower(info.TvgID[idx+1:])
			if code, ok := tldCountries[tld]; ok {
				return code
			}
		}
		if len(info.TvgID) >= 3 {
			prefix := strings.ToUpper(info.TvgID[:2])
			sep := info.TvgID[2]
			if _, ok := knownCodes[prefix]; ok && (sep == '#' || sep == '-' || sep == '_') {
				return prefix
			}
		}
	}

	text := strings.ToUpper(info.GroupTitle + " " + info.ChannelName)

	for _, entry := range priorityKeywords {
		for _, kw := range entry.keywords {
			if matchKeyword(text, kw) {
				return entry.code
			}
		}
	}
	for _, entry := range countryKeywords {
		for _, kw := range entry.keywords {
			if matchKeyword(text, kw) {
				return entry.code
			}
		}
	}

	return "Unknown"
}

// matchKeyword matches 2- and 3-letter codes only as standalone words;
// longer keywords match as plain substrings.
func matchKeyword(text, keyword string) bool {
	if len(keyword) <= 3 {
		return strings.Contains(" "+text+" ", " "+keyword+" ")
	}
	return strings.Contains(text, keyword)
}
