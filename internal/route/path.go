package route

import "strings"

// normalizePath validates a route against the path grammar (§4.6: slash-
// delimited, starts with '/', no empty segments, whitespace, wildcards, or
// punctuation outside alphanumeric plus '_'/'-'; a trailing slash is
// stripped) and returns its canonical form.
func normalizePath(path string) (string, bool) {
	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	trimmed := path
	if len(trimmed) > 1 && strings.HasSuffix(trimmed, "/") {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if trimmed == "" || trimmed == "/" {
		return "", false
	}

	for _, segment := range strings.Split(trimmed[1:], "/") {
		if !validSegment(segment) {
			return "", false
		}
	}
	return trimmed, true
}

// validSegment reports whether a single path segment uses only the
// allowed character set and contains at least one alphanumeric rune — a
// segment made entirely of '_'/'-' (e.g. the reserved-looking "_") is
// rejected even though those characters are individually legal.
func validSegment(segment string) bool {
	if segment == "" {
		return false
	}
	hasAlnum := false
	for _, r := range segment {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasAlnum = true
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return hasAlnum
}
