package handlers

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename reduces a client-supplied filename to a safe basename for
// storage under the upload directory. Path components are stripped and
// anything outside [A-Za-z0-9_.-] becomes an underscore. Returns "" when
// nothing usable remains.
func SanitizeFilename(filename string) string {
	// Client may send Windows-style paths.
	filename = strings.ReplaceAll(filename, "\\", "/")
	name := filepath.Base(filename)

	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")

	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}
