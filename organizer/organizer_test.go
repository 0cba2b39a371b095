package organizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3u-stream-harvester/checker"
	"m3u-stream-harvester/sourceproc"
)

func working(name, url, country, bitrate string) *checker.StreamResult {
	return &checker.StreamResult{
		Status:       checker.StatusWorking,
		URL:          url,
		Info:         &sourceproc.ChannelInfo{ChannelName: name},
		VideoBitrate: bitrate,
		Resolution:   "1920x1080",
		Country:      country,
	}
}

func TestOrganizeRanksVariantsByBitrate(t *testing.T) {
	results := []*checker.StreamResult{
		working("ESPN HD", "http://x/1", "US", "5000 kb/s"),
		working("ESPN (backup)", "http://x/2", "US", "1200 kb/s"),
		working("ESPN 4K", "http://x/3", "US", "12000 kb/s"),
	}

	organized := Organize(results)
	require.Contains(t, organized, "US")
	entries := organized["US"]
	require.Len(t, entries, 3)

	assert.Equal(t, "ESPN", entries[0].FinalName)
	assert.Equal(t, "12000 kb/s", entries[0].Result.VideoBitrate)
	assert.Equal(t, "ESPN backup 1", entries[1].FinalName)
	assert.Equal(t, "5000 kb/s", entries[1].Result.VideoBitrate)
	assert.Equal(t, "ESPN backup 2", entries[2].FinalName)
	assert.Equal(t, "1200 kb/s", entries[2].Result.VideoBitrate)
}

func TestOrganizeSortsChannelsAlphabetically(t *testing.T) {
	results := []*checker.StreamResult{
		working("Zebra TV", "http://x/z", "US", "1000 kb/s"),
		working("Alpha TV", "http://x/a", "US", "1000 kb/s"),
	}

	entries := Organize(results)["US"]
	require.Len(t, entries, 2)
	assert.Equal(t, "Alpha TV", entries[0].FinalName)
	assert.Equal(t, "Zebra TV", entries[1].FinalName)
}

func TestOrganizeUnknownCountryBucket(t *testing.T) {
	results := []*checker.StreamResult{
		working("Mystery", "http://x/m", "", "1000 kb/s"),
	}

	organized := Organize(results)
	require.Contains(t, organized, "Unknown")
	assert.Len(t, organized["Unknown"], 1)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ESPN HD", "ESPN"},
		{"ESPN 4K", "ESPN"},
		{"ESPN (backup)", "ESPN"},
		{"CNN FHD", "CNN"},
		{"BBC One", "BBC One"},
		{"Sky Sports UHD (main)", "Sky Sports"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.in), "input %q", tt.in)
	}
}

func TestBitrateValue(t *testing.T) {
	assert.Equal(t, 5000, BitrateValue("5000 kb/s"))
	assert.Equal(t, 0, BitrateValue("Unknown"))
	assert.Equal(t, 0, BitrateValue("N/A"))
	assert.Equal(t, 0, BitrateValue(""))
	assert.Equal(t, 1200, BitrateValue("1200"))
}
