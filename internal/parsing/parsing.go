// Package parsing converts the loosely typed string fields found in Internet
// Archive metadata into typed values. None of the parsers fail: malformed
// input is logged and the caller's default is returned instead.
//
// Patterns are anchored at the start of the input only, so trailing garbage
// is ignored ("180.27" is a length of 180 seconds).
package parsing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"iarchive/internal/logger"
)

// maxLengthSeconds is the longest length whose milliseconds fit in an int.
const maxLengthSeconds = math.MaxInt / 1000

var (
	durationPattern = regexp.MustCompile(`^(?:(?:(\d+):)?(\d+):)?(\d+)`)
	isoDatePattern  = regexp.MustCompile(`^(\d{4})(?:-(\d{2}))?(?:-(\d{2}))?`)
)

// ParseBitrate parses a bitrate in kbit/s, truncating any fractional part.
func ParseBitrate(s string, def int) int {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		logger.Default().Warn("Invalid Internet Archive bitrate: %q", s)
		return def
	}
	return int(f)
}

// ParseDate normalizes YYYY, YYYY-MM or YYYY-MM-DD to YYYY-MM-DD.
func ParseDate(s string, def string) string {
	if s == "" {
		return def
	}
	m := isoDatePattern.FindStringSubmatch(s)
	if m == nil {
		logger.Default().Warn("Invalid Internet Archive date: %q", s)
		return def
	}
	for i := 2; i < len(m); i++ {
		if m[i] == "" {
			m[i] = "01"
		}
	}
	return m[1] + "-" + m[2] + "-" + m[3]
}

// ParseLength parses [[H:]M:]S into milliseconds.
func ParseLength(s string, def int) int {
	if s == "" {
		return def
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		logger.Default().Warn("Invalid Internet Archive length: %q", s)
		return def
	}
	var parts [3]int
	for i, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			logger.Default().Warn("Invalid Internet Archive length: %q", s)
			return def
		}
		parts[i] = n
	}
	hours, minutes, seconds := parts[0], parts[1], parts[2]
	if hours > maxLengthSeconds/3600 || minutes > maxLengthSeconds/60 || seconds > maxLengthSeconds {
		logger.Default().Warn("Invalid Internet Archive length: %q", s)
		return def
	}
	total := hours*3600 + minutes*60 + seconds
	if total > maxLengthSeconds {
		logger.Default().Warn("Invalid Internet Archive length: %q", s)
		return def
	}
	return total * 1000
}

// ParseMtime parses a Unix timestamp.
func ParseMtime(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		logger.Default().Warn("Invalid Internet Archive mtime: %q", s)
		return def
	}
	return n
}

// ParseTrackNo parses "N" or "N/M" and returns N.
func ParseTrackNo(s string, def int) int {
	if s == "" {
		return def
	}
	head, _, _ := strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		logger.Default().Warn("Invalid Internet Archive track no.: %q", s)
		return def
	}
	return n
}
