package uploads

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename strips path separators and unsafe characters.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if strings.HasPrefix(name, ".") {
		trimmed := strings.TrimLeft(name, ".")
		if trimmed == "" {
			return uuid.New().String()
		}
		name = uuid.New().String()[:8] + "_" + trimmed
	}
	if name == "" {
		name = uuid.New().String()
	}
	return name
}

// FilenameFromURL takes the last path segment of rawURL when it looks like
// a file name and falls back to a random name with fallbackExt.
func FilenameFromURL(rawURL, fallbackExt string) string {
	parsed, err := url.Parse(rawURL)
	if err == nil {
		base := path.Base(parsed.Path)
		if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
			return base
		}
	}
	ext := fallbackExt
	if ext == "" {
		ext = ".bin"
	}
	return uuid.New().String() + ext
}
