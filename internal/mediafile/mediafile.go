// Package mediafile classifies torrent payload paths.
package mediafile

import (
	"path/filepath"
	"strings"
)

var mediaExtensions = map[string]struct{}{
	"avi": {}, "divx": {}, "flv": {}, "m2ts": {}, "m4v": {}, "mkv": {},
	"mov": {}, "mp4": {}, "mpeg": {}, "mpg": {}, "ogm": {}, "ogv": {},
	"ts": {}, "webm": {}, "wmv": {},
}

type Classifier struct{}

// Extension returns the lowercase extension of path without the leading dot.
func (Classifier) Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsMediaFile reports whether path looks like a playable media file. Sample
// files don't count as far as the library is concerned.
func (c Classifier) IsMediaFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(base, "sample") {
		return false
	}

	_, ok := mediaExtensions[c.Extension(path)]
	return ok
}
