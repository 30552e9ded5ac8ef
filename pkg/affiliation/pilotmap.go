package affiliation

import (
	"github.com/solfleet/combatlog/pkg/combat"
)

// BuildPilotCorpMap collects pilot -> corp ticker for every party where
// both are present within the event set.
func BuildPilotCorpMap(events []combat.Event) map[string]string {
	m := make(map[string]string)
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Pilot == "" || p.Corp == "" {
				continue
			}
			m[pilotKey(p.Pilot)] = p.Corp
		}
	}
	return m
}

// FillMissingCorps fills blank corp columns for pilots whose corp was seen
// elsewhere in the fight. Returns the number filled; a non-zero return is
// the cue to re-run alliance filling, since new corps may now resolve.
func FillMissingCorps(events []combat.Event, pilotCorp map[string]string) int {
	filled := 0
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Pilot == "" || p.Corp != "" {
				continue
			}
			if corp, ok := pilotCorp[pilotKey(p.Pilot)]; ok && corp != "" {
				p.Corp = corp
				filled++
			}
		}
	}
	return filled
}
