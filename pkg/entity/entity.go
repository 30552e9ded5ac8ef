// Package entity parses free-text party descriptors into
// (pilot, ship, alliance, corp). Logs render entities in several dialects
// depending on the player's UI settings, so parsing is layered: two
// independent grammars plus a last-resort fallback. Parsing is pure and
// never fails; unresolved fields come back as empty strings.
package entity

import (
	"regexp"
	"strings"
)

// Damage-style entities look like "Name[CORP](ShipType)".
var damageEntityRE = regexp.MustCompile(`^(.*?)\[([^\]]+)\]\(([^)]+)\)$`)

var (
	tickerRE       = regexp.MustCompile(`\[([^\]]+)\]`)
	trailingDashRE = regexp.MustCompile("[\\s\\-–—]+$")
	bracketRE      = regexp.MustCompile(`\[[^\]]+\]`)
	spaceRE        = regexp.MustCompile(`\s+`)
)

// ParseDamage parses a damage-style entity. When the pattern does not match,
// the whole text is returned as the pilot name.
func ParseDamage(text string) (pilot, corp, ship string) {
	text = strings.TrimSpace(text)
	m := damageEntityRE.FindStringSubmatch(text)
	if m == nil {
		return text, "", ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
}

// ParseRepParty parses a rep/ewar-style entity.
//
// Format A (pilot-first, common):
//
//	Pilot [ALL] [CORP] Ship
//	Pilot [CORP] Ship
//
// Format B (ship-first, seen in some logs):
//
//	Ship [ALL] [Pilot]
//	Ship [ALL] [CORP] [Pilot]
//
// Returns (pilot, ship, alliance, corp).
func ParseRepParty(segment string) (pilot, ship, alliance, corp string) {
	segment = strings.TrimSpace(segment)
	// Many lines render entities with a trailing dash artifact, e.g.
	// "Sleipnir [ECHO.] [INOU] [Turix] -". Without stripping it, Format B
	// detection never triggers and ship names leak into the pilot column.
	segment = strings.TrimSpace(trailingDashRE.ReplaceAllString(segment, ""))

	var tickers []string
	for _, m := range tickerRE.FindAllStringSubmatch(segment, -1) {
		tickers = append(tickers, strings.TrimSpace(m[1]))
	}

	// Assume Format A first.
	switch {
	case len(tickers) >= 2:
		alliance = tickers[0]
		corp = tickers[1]
	case len(tickers) == 1:
		corp = tickers[0]
	}

	if i := strings.Index(segment, "["); i >= 0 {
		pilot = strings.TrimSpace(segment[:i])
	}
	if i := strings.LastIndex(segment, "]"); i >= 0 {
		ship = strings.TrimSpace(segment[i+1:])
	}

	// Format B: the segment ends with ']' (no trailing ship token). The
	// leading bare token is the ship and the last bracket token is the pilot.
	if strings.HasSuffix(segment, "]") && ship == "" && len(tickers) > 0 {
		shipGuess := pilot
		pilotGuess := tickers[len(tickers)-1]
		switch {
		case len(tickers) >= 3:
			alliance = tickers[0]
			corp = tickers[1]
		case len(tickers) == 2:
			alliance = tickers[0]
			corp = "" // unknown in this format; may be filled later
		default:
			alliance = ""
			corp = ""
		}
		pilot = pilotGuess
		ship = shipGuess
	}

	// Last resort. Splitting "<pilot> <ship>" on the final whitespace token is
	// unsafe for multi-word pilot names, so it only applies when the segment
	// had bracket structure; bare text is treated as a pilot name only.
	if pilot == "" || ship == "" {
		noBrackets := strings.TrimSpace(bracketRE.ReplaceAllString(segment, ""))
		noBrackets = spaceRE.ReplaceAllString(noBrackets, " ")

		hasBrackets := strings.ContainsAny(segment, "[]")
		if !hasBrackets {
			if pilot == "" {
				pilot = noBrackets
			}
		} else if strings.Contains(noBrackets, " ") {
			parts := strings.Split(noBrackets, " ")
			if pilot == "" {
				pilot = strings.TrimSpace(strings.Join(parts[:len(parts)-1], " "))
			}
			if ship == "" {
				ship = strings.TrimSpace(parts[len(parts)-1])
			}
		} else if pilot == "" {
			pilot = noBrackets
		}
	}

	// Some logs repeat the ship type in the pilot bracket, e.g.
	// "Loki [ECHO.] [Loki] -". Treat the pilot as unknown rather than let
	// ship names pollute pilot rosters.
	if pilot != "" && ship != "" && strings.EqualFold(strings.TrimSpace(pilot), strings.TrimSpace(ship)) {
		pilot = ""
	}

	return pilot, ship, alliance, corp
}

// ParseAny tries the rep grammar first and falls back to damage-style only
// when the rep attempt produced neither a ship nor a corp.
func ParseAny(text string) (pilot, ship, alliance, corp string) {
	pilot, ship, alliance, corp = ParseRepParty(text)
	if corp == "" && ship == "" {
		p, c, s := ParseDamage(text)
		return p, s, "", c
	}
	return pilot, ship, alliance, corp
}
