// Package logtext normalizes raw game-log lines and lexes the two line
// forms the client writes: "Listener: <name>" context markers and
// "[<timestamp>] (<channel>) <body>" entries. Anything else is noise and
// is reported as unrecognized, never as an error.
package logtext

import (
	"regexp"
	"strings"
	"time"
)

// TimestampFormat is the client's log timestamp layout.
const TimestampFormat = "2006.01.02 15:04:05"

var (
	tagRE       = regexp.MustCompile(`<[^>]*>`)
	spaceRE     = regexp.MustCompile(`\s+`)
	zeroWidthRE = regexp.MustCompile("[\u200B-\u200D\uFEFF]")

	prefixRE = regexp.MustCompile(
		`^\[\s*(\d{4}\.\d{2}\.\d{2}\s+\d{2}:\d{2}:\d{2})\s*\]\s+\(([^)]+)\)\s+(.*)$`)
)

// CleanLine strips the client's HTML-ish markup tags and collapses
// whitespace runs into single spaces.
func CleanLine(raw string) string {
	s := tagRE.ReplaceAllString(raw, "")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeKey normalizes strings used as lookup keys (pilot names, corp and
// alliance tickers). Logs occasionally carry non-breaking spaces or invisible
// zero-width characters, which break backfills keyed on the raw string.
func NormalizeKey(s string) string {
	if s == "" {
		return ""
	}
	s = zeroWidthRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseTimestamp parses a log timestamp. ok is false when the string does
// not match TimestampFormat.
func ParseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(TimestampFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Line is one timestamped log entry.
type Line struct {
	Timestamp    time.Time
	RawTimestamp string
	Channel      string
	Body         string
}

// ParseListener reports whether a cleaned line is a "Listener: <name>"
// context marker and returns the listener name if so.
func ParseListener(cleaned string) (string, bool) {
	if !strings.HasPrefix(cleaned, "Listener:") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(cleaned, "Listener:")), true
}

// ParseLine lexes a cleaned line into a Line. Lines that do not match the
// "[ts] (chan) body" prefix, or whose timestamp does not parse, are rejected
// with ok=false; the caller skips them.
func ParseLine(cleaned string) (Line, bool) {
	m := prefixRE.FindStringSubmatch(cleaned)
	if m == nil {
		return Line{}, false
	}
	ts, ok := ParseTimestamp(m[1])
	if !ok {
		return Line{}, false
	}
	return Line{
		Timestamp:    ts,
		RawTimestamp: m[1],
		Channel:      m[2],
		Body:         m[3],
	}, true
}
