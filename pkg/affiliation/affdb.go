// Package affiliation fills in missing corp/alliance/ship columns on combat
// events. Knowledge is layered: the fight's own lines first, then history
// accumulated across runs, then an external lookup as a last resort.
package affiliation

import (
	"time"

	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/logtext"
)

// Record is one corp ticker's alliance membership as last observed.
type Record struct {
	Alliance  string
	FirstSeen time.Time
	LastSeen  time.Time
}

// DB maps corp ticker to its alliance record. Corps change alliances, so
// updates are last-observation-wins with a monotonic LastSeen.
type DB map[string]Record

func corpKey(corp string) string {
	return logtext.NormalizeKey(corp)
}

// Update records that corp belonged to alliance at time t. Both tickers must
// be non-empty; an observation older than the stored one only widens
// FirstSeen and never flips the alliance back.
func (db DB) Update(corp, alliance string, t time.Time) {
	if corp == "" || alliance == "" {
		return
	}
	key := corpKey(corp)
	rec, ok := db[key]
	if !ok {
		db[key] = Record{Alliance: alliance, FirstSeen: t, LastSeen: t}
		return
	}
	if t.Before(rec.FirstSeen) || rec.FirstSeen.IsZero() {
		rec.FirstSeen = t
	}
	if t.After(rec.LastSeen) {
		rec.LastSeen = t
		rec.Alliance = alliance
	}
	db[key] = rec
}

// Lookup returns the alliance last seen for corp, or "".
func (db DB) Lookup(corp string) string {
	if corp == "" {
		return ""
	}
	return db[corpKey(corp)].Alliance
}

// Clone deep-copies the database.
func (db DB) Clone() DB {
	out := make(DB, len(db))
	for k, v := range db {
		out[k] = v
	}
	return out
}

// LearnFromEvents harvests every party that carries both tickers.
func (db DB) LearnFromEvents(events []combat.Event) {
	for i := range events {
		ev := &events[i]
		for _, p := range ev.Parties() {
			db.Update(p.Corp, p.Alliance, ev.Timestamp)
		}
	}
}

// FillAlliances fills blank alliance columns wherever the corp ticker is
// known to the database. Returns the number of parties filled.
func FillAlliances(events []combat.Event, dbs ...DB) int {
	filled := 0
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Corp == "" || p.Alliance != "" {
				continue
			}
			for _, db := range dbs {
				if a := db.Lookup(p.Corp); a != "" {
					p.Alliance = a
					filled++
					break
				}
			}
		}
	}
	return filled
}
