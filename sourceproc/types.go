package sourceproc

// ChannelInfo holds the attributes parsed from an #EXTINF metadata line.
// All fields are optional.
type ChannelInfo struct {
	TvgID       string `json:"tvg_id"`
	TvgName     string `json:"tvg_name"`
	TvgLogo     string `json:"tvg_logo"`
	GroupTitle  string `json:"group_title"`
	ChannelName string `json:"channel_name"`
}

// StreamRef is one candidate playlist entry: the verbatim metadata line, the
// stream URL that followed it, and the parsed channel attributes.
type StreamRef struct {
	ExtInf string      `json:"extinf"`
	URL    string      `json:"url"`
	Info   ChannelInfo `json:"info"`
}

// Key is the stream's identity for memoization. Identical channel names
// pointing at different URLs stay distinct through the URL component.
func (s *StreamRef) Key() string {
	return s.Info.ChannelName + "_" + s.URL
}
