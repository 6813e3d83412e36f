// Package media knows which upload formats are accepted, how they map to
// MIME types, and how container formats are converted to plain PCM audio.
package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Extensions accepted for upload.
const (
	ExtMP3 = ".mp3"
	ExtWAV = ".wav"
	ExtMP4 = ".mp4"
)

var contentTypes = map[string]string{
	ExtMP3: "audio/mp3",
	ExtWAV: "audio/wav",
	ExtMP4: "video/mp4",
}

// needsConversion lists formats the provider should not receive directly.
var needsConversion = map[string]bool{
	ExtMP4: true,
}

// Allowed reports whether ext (any case) is an accepted upload extension.
func Allowed(ext string) bool {
	_, ok := contentTypes[strings.ToLower(ext)]
	return ok
}

// ContentType maps an extension to the MIME type sent to the provider.
func ContentType(ext string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(ext)]
	return ct, ok
}

// NeedsConversion reports whether files with ext must be converted
// to WAV before transcription.
func NeedsConversion(ext string) bool {
	return needsConversion[strings.ToLower(ext)]
}

// Detect sniffs the MIME type of the file at path. It is only used for
// diagnostics; routing decisions are made on the extension.
func Detect(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return m.String()
}
