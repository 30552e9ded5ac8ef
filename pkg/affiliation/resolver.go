package affiliation

import (
	"log/slog"
	"time"

	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/timeline"
)

// Lookup resolves a pilot's current corp and alliance tickers from an
// external source. Implementations are expected to cache; blank returns
// mean unresolved.
type Lookup interface {
	Resolve(pilot string) (corp, alliance string)
}

// Resolver runs the layered enrichment chain over one fight's events.
// Cheaper, more local knowledge always wins: the fight's own lines beat
// history, and history beats the external lookup. Only blank fields are
// ever filled; a value read off a log line is never overwritten.
type Resolver struct {
	// Persistent is the cross-run pilot database. Its ship column is stale
	// by definition and is neither filled from nor written to here.
	Persistent PilotDB

	// AffLog holds corp->alliance pairs observed on log lines; AffLookup
	// holds pairs learned from the external service. Kept separate so log
	// evidence outranks remote answers.
	AffLog    DB
	AffLookup DB

	// External is the optional last-resort lookup. Nil disables it.
	External Lookup

	// SkipName filters names that are not pilots (drones, charges) out of
	// learning and external resolution.
	SkipName func(string) bool

	Log *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// ApplyListenerState overwrites the listener's own party columns from the
// fight-restricted ship timeline. This is the one place enrichment is
// allowed to overwrite: the listener's log lines never name their own ship,
// so the timeline is strictly better information.
func ApplyListenerState(events []combat.Event, tl timeline.Timeline) {
	for i := range events {
		ev := &events[i]
		if ev.Listener == "" {
			continue
		}
		ship, alliance, corp := tl.Lookup(ev.Listener, ev.Timestamp)
		for _, p := range ev.Parties() {
			if p.Pilot != ev.Listener {
				continue
			}
			if ship != "" {
				p.Ship = ship
			}
			if alliance != "" {
				p.Alliance = alliance
			}
			if corp != "" {
				p.Corp = corp
			}
		}
	}
}

// EnrichFight fills missing ship/corp/alliance columns in place. tl must
// already be restricted to the fight's window.
func (r *Resolver) EnrichFight(events []combat.Event, tl timeline.Timeline) {
	log := r.logger()

	ApplyListenerState(events, tl)

	// Cross-run pilot history, ship column excluded.
	if r.Persistent != nil {
		r.Persistent.Backfill(events, false)
	}

	// In-fight database: what this fight's own lines say about each pilot,
	// ship included. Built fresh so nothing leaks across fights.
	tmp := PilotDB{}
	tmp.Learn(events, r.SkipName, true)
	tmp.Backfill(events, true)

	r.AffLog.LearnFromEvents(events)
	FillAlliances(events, r.AffLog, r.AffLookup)

	if r.External != nil {
		r.resolveExternally(events, log)
	}

	// A pilot's corp seen on one line can unlock alliance resolution on
	// another line that only carried the bare name.
	pilotCorp := BuildPilotCorpMap(events)
	if FillMissingCorps(events, pilotCorp) > 0 {
		FillAlliances(events, r.AffLog, r.AffLookup)
	}

	// Second in-fight pass: the fills above may have completed parties that
	// the first pass could not learn from.
	tmp = PilotDB{}
	tmp.Learn(events, r.SkipName, true)
	tmp.Backfill(events, true)

	if r.Persistent != nil {
		r.Persistent.Learn(events, r.SkipName, false)
	}
}

// resolveExternally asks the external lookup about pilots that still have
// no alliance after the local layers ran.
func (r *Resolver) resolveExternally(events []combat.Event, log *slog.Logger) {
	pending := make(map[string]string) // key -> display name
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Pilot == "" || p.Alliance != "" {
				continue
			}
			if r.SkipName != nil && r.SkipName(p.Pilot) {
				continue
			}
			pending[pilotKey(p.Pilot)] = p.Pilot
		}
	}
	if len(pending) == 0 {
		return
	}

	resolved := make(map[string]PilotInfo, len(pending))
	for key, name := range pending {
		corp, alliance := r.External.Resolve(name)
		if corp == "" && alliance == "" {
			continue
		}
		resolved[key] = PilotInfo{Corp: corp, Alliance: alliance}
	}
	log.Debug("external affiliation lookup",
		"pending", len(pending), "resolved", len(resolved))
	if len(resolved) == 0 {
		return
	}

	latest := latestTimestamp(events)
	for i := range events {
		for _, p := range events[i].Parties() {
			info, ok := resolved[pilotKey(p.Pilot)]
			if !ok {
				continue
			}
			if p.Corp == "" {
				p.Corp = info.Corp
			}
			if p.Alliance == "" {
				p.Alliance = info.Alliance
			}
		}
	}
	for _, info := range resolved {
		r.AffLookup.Update(info.Corp, info.Alliance, latest)
	}
	FillAlliances(events, r.AffLog, r.AffLookup)
}

func latestTimestamp(events []combat.Event) time.Time {
	var t time.Time
	for i := range events {
		if events[i].Timestamp.After(t) {
			t = events[i].Timestamp
		}
	}
	return t
}
