// Package fights segments a stream of combat events into discrete
// engagements separated by quiet gaps.
package fights

import (
	"fmt"
	"sort"
	"time"

	"github.com/solfleet/combatlog/pkg/combat"
)

// DefaultGap is the idle duration that closes a fight window.
const DefaultGap = 15 * time.Minute

const labelFormat = "20060102_150405"

// Window is one fight's inclusive time span.
type Window struct {
	Start time.Time
	End   time.Time
}

// Label renders the window as a filesystem-safe identifier, e.g.
// "20260214_210502-20260214_212733".
func (w Window) Label() string {
	return w.Start.Format(labelFormat) + "-" + w.End.Format(labelFormat)
}

// FolderName renders the canonical per-fight directory name.
func (w Window) FolderName(n int) string {
	return fmt.Sprintf("fight_%03d_%s", n, w.Label())
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Split groups event timestamps into windows. A new window opens whenever
// the gap since the previous event exceeds gap. Events without a usable
// timestamp are ignored; a non-positive gap falls back to DefaultGap.
func Split(events []combat.Event, gap time.Duration) []Window {
	if gap <= 0 {
		gap = DefaultGap
	}

	var times []time.Time
	for _, ev := range events {
		if !ev.Timestamp.IsZero() {
			times = append(times, ev.Timestamp)
		}
	}
	if len(times) == 0 {
		return nil
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var windows []Window
	start := times[0]
	prev := times[0]
	for _, t := range times[1:] {
		if t.Sub(prev) > gap {
			windows = append(windows, Window{Start: start, End: prev})
			start = t
		}
		prev = t
	}
	windows = append(windows, Window{Start: start, End: prev})
	return windows
}

// FilterByWindow returns copies of the events inside w. Copies, not views:
// per-fight enrichment mutates its slice and must not bleed into
// neighbouring fights.
func FilterByWindow(events []combat.Event, w Window) []combat.Event {
	var out []combat.Event
	for _, ev := range events {
		if w.Contains(ev.Timestamp) {
			out = append(out, ev)
		}
	}
	return out
}

// FilterOthers scopes unclassified records to a window the same way.
func FilterOthers(others []combat.Other, w Window) []combat.Other {
	var out []combat.Other
	for _, o := range others {
		if w.Contains(o.Timestamp) {
			out = append(out, o)
		}
	}
	return out
}
