package pipeline

import (
	"strings"
	"time"

	"github.com/solfleet/combatlog/pkg/affiliation"
	"github.com/solfleet/combatlog/pkg/entity"
	"github.com/solfleet/combatlog/pkg/logtext"
	"github.com/solfleet/combatlog/pkg/timeline"
)

// surveyFiles is the first pass: before any event is classified, walk every
// file and harvest ship sightings and corp/alliance pairs. The second pass
// then classifies with the whole session's knowledge available, so a pilot
// whose ship is only named at the end of a fight still resolves at its
// start.
func surveyFiles(files []File) (timeline.Timeline, affiliation.DB) {
	tl := timeline.New()
	affLog := affiliation.DB{}

	for _, file := range files {
		listener := ""
		for _, raw := range file.Lines {
			cleaned := logtext.CleanLine(raw)
			if name, ok := logtext.ParseListener(cleaned); ok {
				listener = name
				continue
			}
			ln, ok := logtext.ParseLine(cleaned)
			if !ok || listener == "" {
				continue
			}

			switch strings.ToLower(ln.Channel) {
			case "notify":
				if strings.Contains(ln.Body, "Disembarking from ship") {
					tl.AddBoundary(listener, ln.Timestamp)
				}
			case "combat":
				surveyCombatLine(tl, affLog, ln)
			}
		}
	}

	tl.Finalize()
	return tl, affLog
}

func learnSighting(tl timeline.Timeline, affLog affiliation.DB, t time.Time, pilot, ship, alliance, corp string) {
	tl.Add(pilot, t, ship, alliance, corp)
	affLog.Update(corp, alliance, t)
}

func surveyCombatLine(tl timeline.Timeline, affLog affiliation.DB, ln logtext.Line) {
	body := ln.Body

	// Jam attempts name both parties with full brackets, the richest
	// sighting a line can offer.
	if (strings.Contains(body, "Warp scramble attempt") || strings.Contains(body, "Warp disruption attempt")) &&
		strings.Contains(body, " from ") && strings.Contains(body, " to ") {
		_, rest, _ := strings.Cut(body, " from ")
		srcPart, tgtRest, _ := strings.Cut(rest, " to ")
		tgtPart, _, _ := strings.Cut(tgtRest, " - ")
		for _, seg := range []string{srcPart, tgtPart} {
			seg = strings.TrimSuffix(strings.TrimSpace(seg), "-")
			p, s, a, c := entity.ParseAny(strings.TrimSpace(seg))
			learnSighting(tl, affLog, ln.Timestamp, p, s, a, c)
		}
		return
	}

	// Incoming EWAR names the aggressor. No early return: some of these
	// lines also match the phrasings below.
	if strings.HasPrefix(body, "You're ") && strings.Contains(body, " by ") && strings.Contains(body, " - ") {
		_, rest, _ := strings.Cut(body, " by ")
		seg, _, _ := strings.Cut(rest, " - ")
		p, s, a, c := entity.ParseAny(strings.TrimSpace(seg))
		learnSighting(tl, affLog, ln.Timestamp, p, s, a, c)
	}

	for _, phrase := range []string{"remote shield boosted by", "remote shield boosted to"} {
		if !strings.Contains(body, phrase) {
			continue
		}
		_, rest, _ := strings.Cut(body, phrase)
		seg, _, ok := strings.Cut(strings.TrimSpace(rest), " - ")
		if !ok {
			continue
		}
		p, s, a, c := entity.ParseRepParty(seg)
		learnSighting(tl, affLog, ln.Timestamp, p, s, a, c)
		return
	}

	// Damage lines carry Name[CORP](Ship) entities. Even non-damage lines
	// are worth probing: the entity parse simply fails on anything else.
	for _, sep := range []string{"from ", "to "} {
		if !strings.Contains(body, " "+sep) {
			continue
		}
		_, rest, _ := strings.Cut(body, sep)
		seg, _, _ := strings.Cut(rest, " - ")
		p, c, s := entity.ParseDamage(strings.TrimSpace(seg))
		learnSighting(tl, affLog, ln.Timestamp, p, s, "", c)
		return
	}
}
