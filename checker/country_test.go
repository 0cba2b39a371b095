package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"m3u-stream-harvester/sourceproc"
)

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name string
		info sourceproc.ChannelInfo
		want string
	}{
		{
			"tvg-id TLD wins over free text",
			sourceproc.ChannelInfo{TvgID: "globo.br", GroupTitle: "NOTICIAS", ChannelName: "Globo"},
			"BR",
		},
		{
			"priority keyword beats short-code false positive",
			sourceproc.ChannelInfo{GroupTitle: "USA Sports", ChannelName: "Paramount"},
			"US",
		},
		{
			"AR does not match inside PARAMOUNT",
			sourceproc.ChannelInfo{ChannelName: "Paramount Network"},
			"Unknown",
		},
		{
			"FR does not match inside FREEFORM",
			sourceproc.ChannelInfo{ChannelName: "Freeform"},
			"Unknown",
		},
		{
			"tvg-id code prefix with separator",
			sourceproc.ChannelInfo{TvgID: "UK#BBC One"},
			"UK",
		},
		{
			"tvg-id code prefix with dash",
			sourceproc.ChannelInfo{TvgID: "br-globo"},
			"BR",
		},
		{
			"unknown TLD falls through to text scan",
			sourceproc.ChannelInfo{TvgID: "channel.xyz", GroupTitle: "FRANCE TV"},
			"FR",
		},
		{
			"standalone short code",
			sourceproc.ChannelInfo{GroupTitle: "BR CANAIS"},
			"BR",
		},
		{
			"long-form name",
			sourceproc.ChannelInfo{ChannelName: "Deutschland Kanal"},
			"DE",
		},
		{
			"united kingdom long form",
			sourceproc.ChannelInfo{GroupTitle: "United Kingdom News"},
			"UK",
		},
		{
			"international bucket",
			sourceproc.ChannelInfo{GroupTitle: "INTERNATIONAL"},
			"INT",
		},
		{
			"nothing matches",
			sourceproc.ChannelInfo{ChannelName: "Something Else"},
			"Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCountry(tt.info))
		})
	}
}
