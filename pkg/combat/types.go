// Package combat defines the typed combat event model and the ordered
// classification chain that turns lexed log lines into events.
package combat

import "time"

// Kind is the event bucket a classified line lands in. Done/received is
// always relative to the log's listener.
type Kind string

const (
	KindRepairsDone          Kind = "repairs_done"
	KindRepairsReceived      Kind = "repairs_received"
	KindDamageDone           Kind = "damage_done"
	KindDamageReceived       Kind = "damage_received"
	KindEwarEffectsDone      Kind = "ewar_effects_done"
	KindEwarEffectsReceived  Kind = "ewar_effects_received"
	KindCapWarfareDone       Kind = "cap_warfare_done"
	KindCapWarfareReceived   Kind = "cap_warfare_received"
	KindCapacitorDone        Kind = "capacitor_done"
	KindCapacitorReceived    Kind = "capacitor_received"
	KindPropulsionJamAttempt Kind = "propulsion_jam_attempt"
)

// Kinds lists every combat kind in output order.
var Kinds = []Kind{
	KindRepairsDone, KindRepairsReceived,
	KindDamageDone, KindDamageReceived,
	KindEwarEffectsDone, KindEwarEffectsReceived,
	KindCapWarfareDone, KindCapWarfareReceived,
	KindCapacitorDone, KindCapacitorReceived,
	KindPropulsionJamAttempt,
}

// PartyKind tags what a party descriptor actually refers to.
type PartyKind string

const (
	PartyPlayer PartyKind = "player"
	PartyNPC    PartyKind = "npc"
	PartyDrone  PartyKind = "drone"
	PartyCharge PartyKind = "charge"
)

// Party is one side of a combat event. Fields are filled once by the
// parser/enrichment passes and never overwritten once non-empty.
type Party struct {
	Pilot    string
	Ship     string
	Alliance string
	Corp     string
	Kind     PartyKind
}

// Origin records where an event came from.
type Origin struct {
	File string
	Line int // 1-based
	Text string
}

// Event is one classified combat line.
type Event struct {
	Timestamp    time.Time
	RawTimestamp string
	Kind         Kind
	Amount       int
	HasAmount    bool
	Listener     string
	Source       Party
	Target       Party
	Module       string
	AttemptType  string
	Result       string
	FightID      string
	Origin       Origin

	// Extra origins accumulated when duplicate rows from overlapping logs
	// are merged (propulsion jam attempts only).
	MergedOrigins []Origin
}

// Parties returns both sides for enrichment passes that treat source and
// target uniformly.
func (e *Event) Parties() [2]*Party {
	return [2]*Party{&e.Source, &e.Target}
}

// Other is a combat-channel line that matched no classifier rule. Nothing
// is discarded; these are kept for auditability.
type Other struct {
	Timestamp    time.Time
	RawTimestamp string
	Channel      string
	Listener     string
	Text         string
	Origin       Origin
}
