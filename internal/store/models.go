// Package store provides SQLite-backed persistence for knowledge that
// outlives a single parsing run: pilot affiliations, corp-to-alliance
// history, the external lookup cache and run bookkeeping.
package store

// PilotRecord is one pilot's remembered affiliation. Ship types are
// deliberately not persisted here; pilots change ships between sessions.
type PilotRecord struct {
	Pilot     string `json:"pilot"`
	Corp      string `json:"corp,omitempty"`
	Alliance  string `json:"alliance,omitempty"`
	FirstSeen int64  `json:"firstSeen"`
	LastSeen  int64  `json:"lastSeen"`
}

// AffiliationSource tags where a corp-to-alliance pair was learned.
type AffiliationSource string

const (
	SourceLog    AffiliationSource = "log"    // observed on a combat line
	SourceLookup AffiliationSource = "lookup" // answered by the external API
)

// AffiliationRecord maps a corp ticker to the alliance it was last seen in.
// Records from the two sources are kept apart so log evidence can outrank
// remote answers at fill time.
type AffiliationRecord struct {
	Source    AffiliationSource `json:"source"`
	Corp      string            `json:"corp"`
	Alliance  string            `json:"alliance"`
	FirstSeen int64             `json:"firstSeen"`
	LastSeen  int64             `json:"lastSeen"`
}

// CacheEntry is one memoized external lookup answer. Kind namespaces the
// key space ("character_id", "corp_info", "alliance_ticker"); an empty
// Value is a remembered negative result.
type CacheEntry struct {
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Run records one invocation of the parsing pipeline.
type Run struct {
	ID         string `json:"id"`
	StartedAt  int64  `json:"startedAt"`
	FinishedAt int64  `json:"finishedAt"`
	LogFolder  string `json:"logFolder"`
	Files      int    `json:"files"`
	Events     int    `json:"events"`
	Fights     int    `json:"fights"`
}

// Storer defines the interface for data persistence.
// SQLiteStore is the sole implementation.
type Storer interface {
	// Pilots
	LoadPilots() ([]*PilotRecord, error)
	SavePilots(records []*PilotRecord) error
	CountPilots() (int, error)

	// Affiliations
	LoadAffiliations(source AffiliationSource) ([]*AffiliationRecord, error)
	SaveAffiliations(source AffiliationSource, records []*AffiliationRecord) error

	// External lookup cache
	LoadCache(kind string) ([]*CacheEntry, error)
	SaveCache(entries []*CacheEntry) error

	// Runs
	RecordRun(run *Run) error
	ListRuns(limit int) ([]*Run, error)

	// Lifecycle
	Close() error
}
