package affiliation

import (
	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/logtext"
)

// PilotInfo is what is known about one pilot.
type PilotInfo struct {
	Corp     string
	Alliance string
	Ship     string
}

// PilotDB maps normalized pilot name to known affiliation. Two lifetimes
// exist: a temporary per-fight database whose ship column is trustworthy,
// and a persistent cross-run database whose ship column is not (pilots
// change ships between fights), so Learn and Backfill gate ship handling
// behind explicit flags.
type PilotDB map[string]PilotInfo

func pilotKey(pilot string) string {
	return logtext.NormalizeKey(pilot)
}

// Get returns the stored info for pilot.
func (db PilotDB) Get(pilot string) (PilotInfo, bool) {
	info, ok := db[pilotKey(pilot)]
	return info, ok
}

// Put stores info under the normalized pilot key, merging non-empty fields
// over what is already there.
func (db PilotDB) Put(pilot string, info PilotInfo) {
	if pilot == "" {
		return
	}
	key := pilotKey(pilot)
	cur := db[key]
	if info.Corp != "" {
		cur.Corp = info.Corp
	}
	if info.Alliance != "" {
		cur.Alliance = info.Alliance
	}
	if info.Ship != "" {
		cur.Ship = info.Ship
	}
	db[key] = cur
}

// Clone deep-copies the database.
func (db PilotDB) Clone() PilotDB {
	out := make(PilotDB, len(db))
	for k, v := range db {
		out[k] = v
	}
	return out
}

// Learn harvests pilot knowledge from events. skip filters out names that
// are not pilots (drones, charges); learnShip controls whether the ship
// column is absorbed.
func (db PilotDB) Learn(events []combat.Event, skip func(string) bool, learnShip bool) {
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Pilot == "" {
				continue
			}
			if skip != nil && skip(p.Pilot) {
				continue
			}
			info := PilotInfo{Corp: p.Corp, Alliance: p.Alliance}
			if learnShip {
				info.Ship = p.Ship
			}
			db.Put(p.Pilot, info)
		}
	}
}

// Backfill fills blank party columns from the database. Only empty fields
// are written; fillShip gates the ship column. Returns parties touched.
func (db PilotDB) Backfill(events []combat.Event, fillShip bool) int {
	touched := 0
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Pilot == "" {
				continue
			}
			info, ok := db.Get(p.Pilot)
			if !ok {
				continue
			}
			changed := false
			if p.Corp == "" && info.Corp != "" {
				p.Corp = info.Corp
				changed = true
			}
			if p.Alliance == "" && info.Alliance != "" {
				p.Alliance = info.Alliance
				changed = true
			}
			if fillShip && p.Ship == "" && info.Ship != "" {
				p.Ship = info.Ship
				changed = true
			}
			if changed {
				touched++
			}
		}
	}
	return touched
}
