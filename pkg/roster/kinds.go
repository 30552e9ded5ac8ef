package roster

import (
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/logtext"
)

// ============================================================================
// Lexical keyword sets
// ============================================================================

var droneKeywords = []string{"drone", "sentry", "fighter"}

// Common drone model families. Checked as name prefixes, which survives the
// tier suffixes ("Hobgoblin II", "Warden II").
var dronePrefixes = []string{
	"warrior", "hobgoblin", "hammerhead", "ogre",
	"infiltrator", "praetor", "vespa", "hornet",
	"garde", "curator", "warden", "bouncer", "gecko",
}

// Tier suffixes like "Acolyte II". Space-prefixed so "Ni" does not match.
var romanSuffixes = []string{
	" i", " ii", " iii", " iv", " v", " vi", " vii", " viii", " ix", " x",
}

var chargeKeywords = []string{
	"missile", "torpedo", "rocket", "bomb", "charge", "crystal",
	"shell", "slug", "projectile", "warhead", "ammo",
}

// ============================================================================
// KindClassifier
// ============================================================================

// KindClassifier decides whether an entity name denotes a drone, a charge,
// a player or an NPC. Keyword scanning runs on Aho-Corasick automatons so
// every keyword is checked in one pass over the name.
type KindClassifier struct {
	droneAC  *ahocorasick.Automaton
	chargeAC *ahocorasick.Automaton
	names    *Dictionary
}

// NewKindClassifier compiles the keyword automatons. names may be nil or
// empty, in which case classification runs purely lexically.
func NewKindClassifier(names *Dictionary) (*KindClassifier, error) {
	droneAC, err := ahocorasick.NewBuilder().
		AddStrings(droneKeywords).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	chargeAC, err := ahocorasick.NewBuilder().
		AddStrings(chargeKeywords).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &KindClassifier{droneAC: droneAC, chargeAC: chargeAC, names: names}, nil
}

func kindKey(name string) string {
	return strings.ToLower(strings.TrimSpace(logtext.NormalizeKey(name)))
}

// LooksLikeDrone reports whether name lexically denotes a drone. When a
// reference dictionary is loaded the lexical hit must also be a known item
// name, so pilots called "Warrior Queen" stay pilots.
func (kc *KindClassifier) LooksLikeDrone(name string) bool {
	key := kindKey(name)
	if key == "" {
		return false
	}

	hit := len(kc.droneAC.FindAllOverlapping([]byte(key))) > 0
	if !hit {
		for _, p := range dronePrefixes {
			if key == p || strings.HasPrefix(key, p+" ") {
				hit = true
				break
			}
		}
	}
	if !hit && strings.Contains(key, " ec-") {
		hit = true
	}
	if !hit {
		for _, s := range romanSuffixes {
			if strings.HasSuffix(key, s) {
				hit = true
				break
			}
		}
	}
	if !hit {
		return false
	}
	if !kc.names.Empty() {
		return kc.names.Contains(name)
	}
	return true
}

// LooksLikeCharge reports whether name lexically denotes ammunition. A
// keyword hit is enough when no reference dictionary is loaded or the name
// is a known item; names absent from the dictionary are still accepted
// when they end in an ammo token.
func (kc *KindClassifier) LooksLikeCharge(name string) bool {
	key := kindKey(name)
	if key == "" {
		return false
	}
	if len(kc.chargeAC.FindAllOverlapping([]byte(key))) == 0 {
		return false
	}
	if kc.names.Empty() || kc.names.Contains(name) {
		return true
	}
	toks := strings.Fields(key)
	last := toks[len(toks)-1]
	for _, kw := range chargeKeywords {
		if last == kw {
			return true
		}
	}
	return false
}

// ClassifyName resolves the kind of a bare entity name. hasTicker marks
// entities that appeared with a corp or alliance ticker; known holds pilot
// names already established as players.
func (kc *KindClassifier) ClassifyName(name string, hasTicker bool, known map[string]bool) combat.PartyKind {
	switch {
	case kc.LooksLikeDrone(name):
		return combat.PartyDrone
	case kc.LooksLikeCharge(name):
		return combat.PartyCharge
	case hasTicker:
		return combat.PartyPlayer
	case known[kindKey(name)]:
		return combat.PartyPlayer
	default:
		return combat.PartyNPC
	}
}

// KnownPlayers collects pilot names that appear with a corp or alliance
// ticker anywhere in the event set. The resulting set lets the second look
// at a bare name ("Bob - Stasis Web") classify Bob as a player because an
// earlier damage line carried his ticker.
func KnownPlayers(events []combat.Event) map[string]bool {
	known := make(map[string]bool)
	for i := range events {
		for _, p := range events[i].Parties() {
			if p.Pilot == "" {
				continue
			}
			if p.Corp != "" || p.Alliance != "" {
				known[kindKey(p.Pilot)] = true
			}
		}
		if events[i].Listener != "" {
			known[kindKey(events[i].Listener)] = true
		}
	}
	return known
}

// Annotate stamps a kind onto every party of every event. The listener is
// always a player unless their name is drone- or charge-like, which happens
// when entity parsing misfiled a drone into the pilot column.
func (kc *KindClassifier) Annotate(events []combat.Event, known map[string]bool) {
	for i := range events {
		ev := &events[i]
		for _, p := range ev.Parties() {
			if p.Pilot == "" {
				continue
			}
			if p.Pilot == ev.Listener && !kc.LooksLikeDrone(p.Pilot) && !kc.LooksLikeCharge(p.Pilot) {
				p.Kind = combat.PartyPlayer
				continue
			}
			p.Kind = kc.ClassifyName(p.Pilot, p.Corp != "" || p.Alliance != "", known)

			// Drones, charges and item-named NPCs usually arrive with an
			// empty ship column; the name itself is the type, so surface it
			// there for readability.
			if p.Ship == "" {
				switch p.Kind {
				case combat.PartyDrone, combat.PartyCharge:
					p.Ship = p.Pilot
				case combat.PartyNPC:
					if kc.names.Contains(p.Pilot) {
						p.Ship = p.Pilot
					}
				}
			}
		}
	}
}
