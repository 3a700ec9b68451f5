package plugin

import (
	"strings"
)

const headerDelimiter = "---"

// ParseHeader extracts the key/value header block at the start of a command or
// skill definition:
//
//	---
//	description: Reviews the staged diff
//	---
//
// The block must open on the first line and be closed by a second delimiter
// line. Every "key: value" line inside it yields the trimmed value as written;
// when a key repeats, the first line wins. A missing or unterminated block
// yields an empty map.
func ParseHeader(text string) map[string]string {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != headerDelimiter {
		return map[string]string{}
	}

	parsed := map[string]string{}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == headerDelimiter {
			return parsed
		}

		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		if _, seen := parsed[key]; seen {
			continue
		}
		parsed[key] = strings.TrimSpace(value)
	}

	// unterminated block
	return map[string]string{}
}

// Description returns the header's description field, or an empty string
func Description(text string) string {
	return ParseHeader(text)["description"]
}
