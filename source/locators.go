package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoMatches is returned when a glob locator matches no files.
var ErrNoMatches = errors.New("pattern matched no files")

// ExpandLocators resolves locators to a deduplicated list in argument order.
// URLs and plain paths pass through unchanged. Glob patterns, including **,
// expand to the regular files they match in lexical order; a pattern that
// matches nothing is an error.
func ExpandLocators(locators []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	add := func(l string) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}

	for _, l := range locators {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if IsURL(l) || !containsGlob(l) {
			add(l)
			continue
		}

		matches, err := expandGlob(l)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", l, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return out, nil
}

func expandGlob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Clean(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return nil, ErrNoMatches
	}

	slices.Sort(files)
	return files, nil
}

// IsURL reports whether locator names a remote or file:// resource rather
// than a local path.
func IsURL(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "file":
		return true
	default:
		return false
	}
}

// LocalPath returns the filesystem path of a plain path or file:// locator.
// It reports false for remote locators.
func LocalPath(locator string) (string, bool) {
	u, err := url.Parse(locator)
	if err != nil {
		return locator, true
	}
	switch u.Scheme {
	case "http", "https":
		return "", false
	case "file":
		return filepath.FromSlash(u.Path), true
	default:
		return locator, true
	}
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
