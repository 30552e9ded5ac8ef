package combat

import (
	"regexp"
	"strings"
)

// EWAR result names.
const (
	EffectECM               = "ECM"
	EffectEnergyNeutralizer = "Energy Neutralizer"
	EffectEnergyNosferatu   = "Energy Nosferatu"
	EffectWarpScrambler     = "Warp Scrambler"
	EffectWarpDisruptor     = "Warp Disruptor"
	EffectStasisWeb         = "Stasis Web"
	EffectSensorDampener    = "Sensor Dampener"
	EffectTrackingDisruptor = "Tracking Disruptor"
	EffectTargetPainter     = "Target Painter"

	effectUnknown = ""
)

// ewarKeywords maps body substrings to effect names. Order matters: the
// first match wins, and longer phrasings must come before their suffixes
// ("energy neutralized" before "neutralized").
var ewarKeywords = []struct {
	keyword string
	effect  string
}{
	{"jammed", EffectECM},
	{"energy neutralized", EffectEnergyNeutralizer},
	{"neutralized", EffectEnergyNeutralizer},
	{"energy drained", EffectEnergyNosferatu},
	{"drained", EffectEnergyNosferatu},
	{"nosferatu", EffectEnergyNosferatu},
	{"warp scrambled", EffectWarpScrambler},
	{"warp disrupted", EffectWarpDisruptor},
	{"webbed", EffectStasisWeb},
	{"dampened", EffectSensorDampener},
	{"tracking disrupted", EffectTrackingDisruptor},
	{"painted", EffectTargetPainter},
}

// ClassifyEwar resolves an EWAR effect name from free text. Returns ""
// when no keyword matches.
func ClassifyEwar(text string) string {
	t := strings.ToLower(text)
	for _, kv := range ewarKeywords {
		if strings.Contains(t, kv.keyword) {
			return kv.effect
		}
	}
	return effectUnknown
}

// isCapWarfare reports whether an effect belongs in the cap_warfare buckets
// rather than ewar_effects.
func isCapWarfare(effect string) bool {
	return effect == EffectEnergyNeutralizer || effect == EffectEnergyNosferatu
}

// Cap-warfare phrasings that carry an explicit amount.
var (
	energyNeutAmountRE = regexp.MustCompile(
		`(?i)^(\d+)\s+GJ\s+energy\s+neutralized\s+(.+?)\s+-\s+(.+)$`)
	energyDrainAmountRE = regexp.MustCompile(
		`(?i)^(-)?(\d+)\s+GJ\s+energy\s+drained\s+to\s+(.+?)\s+-\s+(.+)$`)
)
