package store

import (
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPilotRoundTrip(t *testing.T) {
	s := newTestStore(t)

	recs := []*PilotRecord{
		{Pilot: "alice trax", Corp: "INOU", Alliance: "ECHO.", FirstSeen: 100, LastSeen: 200},
		{Pilot: "bob naari", Corp: "XYZ", FirstSeen: 150, LastSeen: 150},
		{Pilot: "", Corp: "SKIP"}, // blank names are dropped
	}
	if err := s.SavePilots(recs); err != nil {
		t.Fatalf("SavePilots failed: %v", err)
	}

	loaded, err := s.LoadPilots()
	if err != nil {
		t.Fatalf("LoadPilots failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 pilots, got %d", len(loaded))
	}

	byName := map[string]*PilotRecord{}
	for _, r := range loaded {
		byName[r.Pilot] = r
	}
	alice := byName["alice trax"]
	if alice == nil || alice.Corp != "INOU" || alice.Alliance != "ECHO." {
		t.Errorf("alice = %+v", alice)
	}

	n, err := s.CountPilots()
	if err != nil || n != 2 {
		t.Errorf("CountPilots = %d, %v", n, err)
	}
}

func TestPilotUpsertMergeSemantics(t *testing.T) {
	s := newTestStore(t)

	if err := s.SavePilots([]*PilotRecord{
		{Pilot: "alice trax", Corp: "INOU", Alliance: "ECHO.", FirstSeen: 100, LastSeen: 200},
	}); err != nil {
		t.Fatalf("SavePilots failed: %v", err)
	}

	// A later save with blank fields must not erase what is known, and the
	// seen range only widens.
	if err := s.SavePilots([]*PilotRecord{
		{Pilot: "alice trax", Corp: "NEWC", Alliance: "", FirstSeen: 50, LastSeen: 150},
	}); err != nil {
		t.Fatalf("SavePilots update failed: %v", err)
	}

	loaded, err := s.LoadPilots()
	if err != nil || len(loaded) != 1 {
		t.Fatalf("LoadPilots = %d records, %v", len(loaded), err)
	}
	rec := loaded[0]
	if rec.Corp != "NEWC" {
		t.Errorf("Expected corp NEWC, got %s", rec.Corp)
	}
	if rec.Alliance != "ECHO." {
		t.Errorf("Blank alliance erased stored value, got %q", rec.Alliance)
	}
	if rec.FirstSeen != 50 || rec.LastSeen != 200 {
		t.Errorf("Seen range = %d..%d, want 50..200", rec.FirstSeen, rec.LastSeen)
	}
}

func TestAffiliationsSplitBySource(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveAffiliations(SourceLog, []*AffiliationRecord{
		{Corp: "INOU", Alliance: "ECHO.", FirstSeen: 100, LastSeen: 200},
	}); err != nil {
		t.Fatalf("SaveAffiliations(log) failed: %v", err)
	}
	if err := s.SaveAffiliations(SourceLookup, []*AffiliationRecord{
		{Corp: "INOU", Alliance: "REMOTE", FirstSeen: 100, LastSeen: 200},
	}); err != nil {
		t.Fatalf("SaveAffiliations(lookup) failed: %v", err)
	}

	logRecs, err := s.LoadAffiliations(SourceLog)
	if err != nil || len(logRecs) != 1 {
		t.Fatalf("LoadAffiliations(log) = %d records, %v", len(logRecs), err)
	}
	if logRecs[0].Alliance != "ECHO." {
		t.Errorf("log alliance = %s", logRecs[0].Alliance)
	}

	lookupRecs, err := s.LoadAffiliations(SourceLookup)
	if err != nil || len(lookupRecs) != 1 {
		t.Fatalf("LoadAffiliations(lookup) = %d records, %v", len(lookupRecs), err)
	}
	if lookupRecs[0].Alliance != "REMOTE" {
		t.Errorf("lookup alliance = %s", lookupRecs[0].Alliance)
	}
}

func TestAffiliationLastSeenWins(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveAffiliations(SourceLog, []*AffiliationRecord{
		{Corp: "INOU", Alliance: "ECHO.", FirstSeen: 100, LastSeen: 200},
	}); err != nil {
		t.Fatalf("SaveAffiliations failed: %v", err)
	}

	// A stale observation must not flip the alliance back.
	if err := s.SaveAffiliations(SourceLog, []*AffiliationRecord{
		{Corp: "INOU", Alliance: "OLDA", FirstSeen: 50, LastSeen: 150},
	}); err != nil {
		t.Fatalf("SaveAffiliations stale update failed: %v", err)
	}
	recs, err := s.LoadAffiliations(SourceLog)
	if err != nil || len(recs) != 1 {
		t.Fatalf("LoadAffiliations = %d records, %v", len(recs), err)
	}
	if recs[0].Alliance != "ECHO." {
		t.Errorf("Stale update flipped alliance to %s", recs[0].Alliance)
	}
	if recs[0].FirstSeen != 50 || recs[0].LastSeen != 200 {
		t.Errorf("Seen range = %d..%d", recs[0].FirstSeen, recs[0].LastSeen)
	}

	// A newer observation does flip it.
	if err := s.SaveAffiliations(SourceLog, []*AffiliationRecord{
		{Corp: "INOU", Alliance: "NEWA", FirstSeen: 300, LastSeen: 300},
	}); err != nil {
		t.Fatalf("SaveAffiliations newer update failed: %v", err)
	}
	recs, _ = s.LoadAffiliations(SourceLog)
	if recs[0].Alliance != "NEWA" {
		t.Errorf("Newer update not applied, alliance = %s", recs[0].Alliance)
	}
}

func TestCacheUpsertKeepsNegatives(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveCache([]*CacheEntry{
		{Kind: "pilot", Key: "kira voss", Value: "KV\tNADA", UpdatedAt: 100},
		{Kind: "pilot", Key: "no such pilot", Value: "", UpdatedAt: 100},
		{Kind: "character_id", Key: "kira voss", Value: "1001", UpdatedAt: 100},
	}); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}

	entries, err := s.LoadCache("pilot")
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 pilot entries, got %d", len(entries))
	}

	// Re-saving replaces the value outright.
	if err := s.SaveCache([]*CacheEntry{
		{Kind: "pilot", Key: "no such pilot", Value: "KV\t", UpdatedAt: 200},
	}); err != nil {
		t.Fatalf("SaveCache update failed: %v", err)
	}
	entries, _ = s.LoadCache("pilot")
	for _, e := range entries {
		if e.Key == "no such pilot" && (e.Value != "KV\t" || e.UpdatedAt != 200) {
			t.Errorf("entry = %+v", e)
		}
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	runs := []*Run{
		{ID: "run1", StartedAt: 100, FinishedAt: 110, LogFolder: "/logs", Files: 2, Events: 50, Fights: 1},
		{ID: "run2", StartedAt: 200, FinishedAt: 230, LogFolder: "/logs", Files: 3, Events: 80, Fights: 2},
	}
	for _, r := range runs {
		if err := s.RecordRun(r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	listed, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(listed))
	}
	if listed[0].ID != "run2" || listed[1].ID != "run1" {
		t.Errorf("Order = %s, %s", listed[0].ID, listed[1].ID)
	}
	if listed[0].Events != 80 || listed[0].Fights != 2 {
		t.Errorf("run2 = %+v", listed[0])
	}
}
