package pipeline

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solfleet/combatlog/pkg/affiliation"
	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/fights"
	"github.com/solfleet/combatlog/pkg/logtext"
	"github.com/solfleet/combatlog/pkg/roster"
	"github.com/solfleet/combatlog/pkg/timeline"
)

// Fight is one segmented engagement with fully enriched events.
type Fight struct {
	ID     string
	Window fights.Window
	Events []combat.Event
	Others []combat.Other
}

// Result is the outcome of a full parsing run.
type Result struct {
	RunID    string
	Files    int
	Events   int
	Others   int
	Fights   []Fight
	Timeline timeline.Timeline
	AffLog   affiliation.DB
}

// Runner wires the stages together. All fields must be set; Gap falls back
// to the default when zero.
type Runner struct {
	Classifier *combat.Classifier
	Kinds      *roster.KindClassifier
	Resolver   *affiliation.Resolver
	Gap        time.Duration
	Log        *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Run executes both passes over the files and returns segmented, enriched
// fights.
func (r *Runner) Run(files []File) (*Result, error) {
	log := r.logger()
	runID := uuid.NewString()
	log.Info("parsing run started", "run_id", runID, "files", len(files))

	tl, affSeed := surveyFiles(files)
	for corp, rec := range affSeed {
		r.Resolver.AffLog.Update(corp, rec.Alliance, rec.LastSeen)
	}

	events, others := r.classifyFiles(files, tl)
	log.Info("classification finished", "events", len(events), "others", len(others))

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	res := &Result{
		RunID:    runID,
		Files:    len(files),
		Events:   len(events),
		Others:   len(others),
		Timeline: tl,
		AffLog:   r.Resolver.AffLog,
	}

	windows := fights.Split(events, r.Gap)
	for n, w := range windows {
		fight := Fight{
			ID:     w.FolderName(n + 1),
			Window: w,
			Events: fights.FilterByWindow(events, w),
			Others: fights.FilterOthers(others, w),
		}

		fight.Events = dedupJamAttempts(fight.Events)

		restricted := tl.Restrict(w.Start, w.End)
		r.Resolver.EnrichFight(fight.Events, restricted)

		known := roster.KnownPlayers(fight.Events)
		r.Kinds.Annotate(fight.Events, known)

		for i := range fight.Events {
			fight.Events[i].FightID = fight.ID
		}

		log.Info("fight segmented", "fight", fight.ID,
			"events", len(fight.Events), "others", len(fight.Others))
		res.Fights = append(res.Fights, fight)
	}

	return res, nil
}

// classifyFiles is the second pass. Lines before the first listener marker
// have no identity to attribute events to and are skipped outright. The
// listener's own ship/affiliation comes from the session-wide timeline; the
// per-fight enrichment later refines it with fight-local lookups.
func (r *Runner) classifyFiles(files []File, tl timeline.Timeline) ([]combat.Event, []combat.Other) {
	var events []combat.Event
	var others []combat.Other

	for _, file := range files {
		listener := ""
		for i, raw := range file.Lines {
			cleaned := logtext.CleanLine(raw)
			if name, ok := logtext.ParseListener(cleaned); ok {
				listener = name
				continue
			}
			ln, ok := logtext.ParseLine(cleaned)
			if !ok || listener == "" {
				continue
			}
			origin := combat.Origin{File: file.Name, Line: i + 1, Text: cleaned}

			if !strings.EqualFold(ln.Channel, "combat") {
				others = append(others, otherRecord(ln, listener, origin))
				continue
			}
			ship, alliance, corp := tl.Lookup(listener, ln.Timestamp)
			state := combat.ListenerState{Ship: ship, Alliance: alliance, Corp: corp}
			evs, matched := r.Classifier.Classify(ln, listener, state, origin)
			if !matched {
				others = append(others, otherRecord(ln, listener, origin))
				continue
			}
			events = append(events, evs...)
		}
	}
	return events, others
}

func otherRecord(ln logtext.Line, listener string, origin combat.Origin) combat.Other {
	return combat.Other{
		Timestamp:    ln.Timestamp,
		RawTimestamp: ln.RawTimestamp,
		Channel:      ln.Channel,
		Listener:     listener,
		Text:         ln.Body,
		Origin:       origin,
	}
}

// dedupJamAttempts merges duplicate scramble/disruption attempts. Two logs
// of the same fight report the same attempt once each; rows agreeing on
// attempt type, module and both pilots within one second are one attempt.
// The survivor keeps every merged row's origin for auditability.
func dedupJamAttempts(events []combat.Event) []combat.Event {
	type key struct {
		attempt string
		module  string
		source  string
		target  string
	}
	lastIdx := map[key]int{}

	out := events[:0]
	for i := range events {
		ev := events[i]
		if ev.Kind != combat.KindPropulsionJamAttempt {
			out = append(out, ev)
			continue
		}
		k := key{
			attempt: ev.AttemptType,
			module:  ev.Module,
			source:  logtext.NormalizeKey(ev.Source.Pilot),
			target:  logtext.NormalizeKey(ev.Target.Pilot),
		}
		if j, ok := lastIdx[k]; ok {
			prev := &out[j]
			if absDuration(ev.Timestamp.Sub(prev.Timestamp)) <= time.Second {
				prev.MergedOrigins = append(prev.MergedOrigins, ev.Origin)
				continue
			}
		}
		out = append(out, ev)
		lastIdx[k] = len(out) - 1
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
