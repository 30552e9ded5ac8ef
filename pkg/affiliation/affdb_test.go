package affiliation

import (
	"testing"
	"time"

	"github.com/solfleet/combatlog/pkg/combat"
)

func ts(minute int) time.Time {
	return time.Date(2026, 2, 14, 21, minute, 0, 0, time.UTC)
}

func TestDBUpdateLastSeenWins(t *testing.T) {
	db := DB{}
	db.Update("INOU", "ECHO.", ts(10))
	db.Update("INOU", "NEWA", ts(30))
	if got := db.Lookup("INOU"); got != "NEWA" {
		t.Errorf("Lookup = %q", got)
	}

	// An older observation widens FirstSeen but never flips the alliance.
	db.Update("INOU", "OLDA", ts(5))
	if got := db.Lookup("INOU"); got != "NEWA" {
		t.Errorf("after stale update: Lookup = %q", got)
	}
	rec := db[corpKey("INOU")]
	if !rec.FirstSeen.Equal(ts(5)) || !rec.LastSeen.Equal(ts(30)) {
		t.Errorf("seen range = %v .. %v", rec.FirstSeen, rec.LastSeen)
	}
}

func TestDBUpdateIgnoresBlanks(t *testing.T) {
	db := DB{}
	db.Update("", "ECHO.", ts(0))
	db.Update("INOU", "", ts(0))
	if len(db) != 0 {
		t.Errorf("db = %+v", db)
	}
}

func TestDBKeyNormalization(t *testing.T) {
	db := DB{}
	db.Update("INOU\u00a0", "ECHO.", ts(0))
	if got := db.Lookup("INOU"); got != "ECHO." {
		t.Errorf("Lookup = %q", got)
	}
}

func TestLearnFromEventsAndFill(t *testing.T) {
	events := []combat.Event{
		{
			Timestamp: ts(0),
			Source:    combat.Party{Pilot: "Alice", Corp: "INOU", Alliance: "ECHO."},
			Target:    combat.Party{Pilot: "Bob", Corp: "XYZ"},
		},
		{
			Timestamp: ts(1),
			Source:    combat.Party{Pilot: "Carol", Corp: "INOU"},
			Target:    combat.Party{Pilot: "Bob", Corp: "XYZ", Alliance: "NADA"},
		},
	}

	db := DB{}
	db.LearnFromEvents(events)

	filled := FillAlliances(events, db)
	if filled != 2 {
		t.Errorf("filled = %d", filled)
	}
	if events[1].Source.Alliance != "ECHO." {
		t.Errorf("Carol alliance = %q", events[1].Source.Alliance)
	}
	if events[0].Target.Alliance != "NADA" {
		t.Errorf("Bob alliance = %q", events[0].Target.Alliance)
	}
}

func TestFillAlliancesLayerOrder(t *testing.T) {
	logDB := DB{}
	logDB.Update("INOU", "ECHO.", ts(0))
	lookupDB := DB{}
	lookupDB.Update("INOU", "REMOTE", ts(0))
	lookupDB.Update("XYZ", "NADA", ts(0))

	events := []combat.Event{{
		Source: combat.Party{Pilot: "Alice", Corp: "INOU"},
		Target: combat.Party{Pilot: "Bob", Corp: "XYZ"},
	}}
	FillAlliances(events, logDB, lookupDB)

	// Log evidence outranks the remote answer for the same corp.
	if events[0].Source.Alliance != "ECHO." {
		t.Errorf("Source alliance = %q", events[0].Source.Alliance)
	}
	if events[0].Target.Alliance != "NADA" {
		t.Errorf("Target alliance = %q", events[0].Target.Alliance)
	}
}

func TestFillAlliancesNeverOverwrites(t *testing.T) {
	db := DB{}
	db.Update("INOU", "ECHO.", ts(0))
	events := []combat.Event{{
		Source: combat.Party{Pilot: "Alice", Corp: "INOU", Alliance: "KEEP"},
	}}
	if n := FillAlliances(events, db); n != 0 {
		t.Errorf("filled = %d", n)
	}
	if events[0].Source.Alliance != "KEEP" {
		t.Errorf("alliance = %q", events[0].Source.Alliance)
	}
}

func TestDBClone(t *testing.T) {
	db := DB{}
	db.Update("INOU", "ECHO.", ts(0))
	cp := db.Clone()
	cp.Update("INOU", "OTHER", ts(10))
	if got := db.Lookup("INOU"); got != "ECHO." {
		t.Errorf("original mutated: %q", got)
	}
}
