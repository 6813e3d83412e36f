package storage

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client-supplied name to a safe single path
// component: directory parts are dropped, control characters removed,
// whitespace collapsed to underscores and anything outside [A-Za-z0-9_.-]
// stripped. Leading dots and underscores are trimmed so the result is never
// hidden or a relative path. The result may be empty.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Treat both separators as directory boundaries.
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}

	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}
