package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		network bool
		asset   bool
	}{
		{name: "https stream", uri: "https://example.com/live/stream.m3u8?token=abc", network: true},
		{name: "rtsp camera", uri: "rtsp://10.0.0.5/cam", network: true},
		{name: "local file", uri: "/home/user/Videos/clip.mp4"},
		{name: "file uri", uri: "file:///tmp/clip.mkv"},
		{name: "bundled asset", uri: "asset://intro.mp4", asset: true},
		// A drive letter is not a scheme
		{name: "windows path", uri: `C:\Videos\clip.mp4`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := ParseSource(tt.uri)
			assert.Equal(t, tt.uri, src.URI)
			assert.Equal(t, tt.network, src.IsNetwork)
			assert.Equal(t, tt.asset, src.IsAsset)
		})
	}
}

func TestParseSourceMimeType(t *testing.T) {
	// .mp4 is not in every system mime table, so only check a type Go always knows
	assert.Equal(t, "image/png", ParseSource("https://example.com/poster.PNG").MimeType)
	assert.Empty(t, ParseSource("https://example.com/live").MimeType)
}
