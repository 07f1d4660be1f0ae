package engine

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

var networkSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"rtmp":  true,
	"rtsp":  true,
	"srt":   true,
	"udp":   true,
}

// ParseSource builds a Source from a URI or local path.  The mime type is guessed from the extension and left empty
// when unknown.
func ParseSource(uri string) Source {
	src := Source{URI: uri}

	p := uri
	if u, err := url.Parse(uri); err == nil && len(u.Scheme) > 1 {
		scheme := strings.ToLower(u.Scheme)
		src.IsNetwork = networkSchemes[scheme]
		src.IsAsset = scheme == "asset"
		p = u.Path
	}

	if ext := path.Ext(p); ext != "" {
		if mimeType := mime.TypeByExtension(strings.ToLower(ext)); mimeType != "" {
			src.MimeType, _, _ = strings.Cut(mimeType, ";")
		}
	}
	return src
}
