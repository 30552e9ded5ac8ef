package combat

import (
	"regexp"
	"strings"

	"github.com/solfleet/combatlog/pkg/entity"
	"github.com/solfleet/combatlog/pkg/logtext"
)

// ListenerState is the listener's own ship/affiliation at a given moment,
// resolved by the caller from the ship timeline before classification.
type ListenerState struct {
	Ship     string
	Alliance string
	Corp     string
}

// Classifier turns combat-channel lines into typed events via an ordered,
// first-match rule chain. It is stateless apart from the optional reference
// name set used to sanity-check module names.
type Classifier struct {
	ItemNames NameChecker
}

var (
	groupMissRE = regexp.MustCompile(
		`(?i)^Your group of (.+?) misses (.+?) completely\s*-\s*(.+?)\s*$`)
	droneMissRE = regexp.MustCompile(
		`(?i)^(.+?)\s+belonging\s+to\s+(.+?)\s+misses\s+you\s+completely\s*-\s*(.+?)\s*$`)
)

// lineInput carries one lexed line plus listener context through the rule
// chain.
type lineInput struct {
	line     logtext.Line
	listener string
	me       Party
	origin   Origin
}

func (in *lineInput) event(kind Kind) Event {
	return Event{
		Timestamp:    in.line.Timestamp,
		RawTimestamp: in.line.RawTimestamp,
		Kind:         kind,
		Listener:     in.listener,
		Origin:       in.origin,
	}
}

// rule is one matcher in the chain. A nil/empty result means "no opinion";
// the first rule returning events wins, so no line maps to two kinds.
type rule struct {
	name  string
	match func(c *Classifier, in *lineInput) []Event
}

// Rule order is load-bearing: earlier, more specific grammars must win over
// the generic numeric damage patterns.
var rules = []rule{
	{"repairs_done", matchRepairsDone},
	{"repairs_received", matchRepairsReceived},
	{"neut_amount", matchNeutAmount},
	{"drain_amount", matchDrainAmount},
	{"ewar_received", matchEwarReceived},
	{"capacitor_transfer", matchCapacitorTransfer},
	{"group_miss", matchGroupMiss},
	{"ewar_done", matchEwarDone},
	{"damage_received", matchDamageReceived},
	{"damage_done", matchDamageDone},
	{"drone_miss", matchDroneMiss},
	{"jam_attempt", matchJamAttempt},
}

// Classify runs the rule chain over one combat-channel line. ok reports
// whether any rule matched; unmatched lines become Other records upstream.
func (c *Classifier) Classify(line logtext.Line, listener string, state ListenerState, origin Origin) ([]Event, bool) {
	in := &lineInput{
		line:     line,
		listener: listener,
		me: Party{
			Pilot:    listener,
			Ship:     state.Ship,
			Alliance: state.Alliance,
			Corp:     state.Corp,
		},
		origin: origin,
	}
	for _, r := range rules {
		if evs := r.match(c, in); len(evs) > 0 {
			return evs, true
		}
	}
	return nil, false
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func partition(s, sep string) (string, string, bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func repParty(segment string) Party {
	p, s, a, c := entity.ParseRepParty(segment)
	return Party{Pilot: p, Ship: s, Alliance: a, Corp: c}
}

func anyParty(segment string) Party {
	p, s, a, c := entity.ParseAny(segment)
	return Party{Pilot: p, Ship: s, Alliance: a, Corp: c}
}

func matchRepairsDone(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	left, right, ok := partition(body, "remote shield boosted to")
	if !ok {
		return nil
	}
	amountStr := firstToken(left)
	if !isDigits(amountStr) {
		return nil
	}
	partyPart, module, sep := partition(strings.TrimSpace(right), " - ")
	if !sep {
		return nil
	}
	ev := in.event(KindRepairsDone)
	ev.Amount, ev.HasAmount = atoi(amountStr), true
	ev.Source = in.me
	ev.Target = repParty(partyPart)
	ev.Module = strings.TrimSpace(module)
	return []Event{ev}
}

func matchRepairsReceived(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	left, right, ok := partition(body, "remote shield boosted by")
	if !ok {
		return nil
	}
	amountStr := firstToken(left)
	if !isDigits(amountStr) {
		return nil
	}
	partyPart, module, sep := partition(strings.TrimSpace(right), " - ")
	if !sep {
		return nil
	}
	ev := in.event(KindRepairsReceived)
	ev.Amount, ev.HasAmount = atoi(amountStr), true
	ev.Source = repParty(partyPart)
	ev.Target = in.me
	ev.Module = strings.TrimSpace(module)
	return []Event{ev}
}

// "123 GJ energy neutralized <entity> - <module>", always received by the
// listener.
func matchNeutAmount(c *Classifier, in *lineInput) []Event {
	m := energyNeutAmountRE.FindStringSubmatch(in.line.Body)
	if m == nil {
		return nil
	}
	ev := in.event(KindCapWarfareReceived)
	ev.Amount, ev.HasAmount = atoi(m[1]), true
	ev.Source = anyParty(strings.TrimSpace(m[2]))
	ev.Target = in.me
	ev.Module = CleanModuleName(m[3], c.ItemNames)
	ev.Result = EffectEnergyNeutralizer
	return []Event{ev}
}

// "-123 GJ energy drained to <entity> - <module>"; the sign is dropped and
// the amount recorded as absolute.
func matchDrainAmount(c *Classifier, in *lineInput) []Event {
	m := energyDrainAmountRE.FindStringSubmatch(in.line.Body)
	if m == nil {
		return nil
	}
	ev := in.event(KindCapWarfareReceived)
	ev.Amount, ev.HasAmount = atoi(m[2]), true
	ev.Source = anyParty(strings.TrimSpace(m[3]))
	ev.Target = in.me
	ev.Module = CleanModuleName(m[4], c.ItemNames)
	ev.Result = EffectEnergyNosferatu
	return []Event{ev}
}

// "You're <effect> by <entity> - <module>", received by the listener.
// Neut/nos route to cap warfare, everything else to ewar effects.
func matchEwarReceived(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	if !strings.HasPrefix(body, "You're ") || !strings.Contains(body, " by ") || !strings.Contains(body, " - ") {
		return nil
	}
	left, rest, _ := partition(body, " by ")
	effect := ClassifyEwar(left)
	if effect == effectUnknown {
		return nil
	}
	entityPart, module, _ := partition(rest, " - ")
	kind := KindEwarEffectsReceived
	if isCapWarfare(effect) {
		kind = KindCapWarfareReceived
	}
	ev := in.event(kind)
	ev.Source = anyParty(entityPart)
	ev.Target = in.me
	ev.Module = CleanModuleName(module, c.ItemNames)
	ev.Result = effect
	return []Event{ev}
}

// Remote capacitor transfer. Two directions:
//
//	"351 remote capacitor transmitted by <entity> - <module>"  (listener receives)
//	"351 remote capacitor transmitted to <entity> - <module>"  (listener sends)
//
// The "by" variant yields a paired done+received view of the same transfer.
func matchCapacitorTransfer(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	if !strings.Contains(body, "remote capacitor transmitted") {
		return nil
	}
	amountStr := firstToken(body)
	if !isDigits(amountStr) {
		return nil
	}
	amount := atoi(amountStr)

	if strings.Contains(body, " transmitted by ") {
		_, right, _ := partition(body, "transmitted by")
		partyPart, module, sep := partition(strings.TrimSpace(right), " - ")
		if !sep {
			return nil
		}
		src := repParty(partyPart)
		mod := CleanModuleName(module, c.ItemNames)

		done := in.event(KindCapacitorDone)
		done.Amount, done.HasAmount = amount, true
		done.Source, done.Target = src, in.me
		done.Module, done.Result = mod, "Remote Capacitor Transfer"

		recv := done
		recv.Kind = KindCapacitorReceived
		return []Event{done, recv}
	}

	if strings.Contains(body, " transmitted to ") {
		_, right, _ := partition(body, "transmitted to")
		partyPart, module, sep := partition(strings.TrimSpace(right), " - ")
		if !sep {
			return nil
		}
		done := in.event(KindCapacitorDone)
		done.Amount, done.HasAmount = amount, true
		done.Source, done.Target = in.me, repParty(partyPart)
		done.Module = CleanModuleName(module, c.ItemNames)
		done.Result = "Remote Capacitor Transfer"
		return []Event{done}
	}
	return nil
}

// "Your group of <weapon> misses <target> completely - <module>": a shot
// fired that did zero damage, kept as damage done with amount 0.
func matchGroupMiss(c *Classifier, in *lineInput) []Event {
	m := groupMissRE.FindStringSubmatch(in.line.Body)
	if m == nil {
		return nil
	}
	weapon := strings.TrimSpace(m[1])
	module := strings.TrimSpace(m[3])
	ev := in.event(KindDamageDone)
	ev.Amount, ev.HasAmount = 0, true
	ev.Source = in.me
	ev.Target = anyParty(strings.TrimSpace(m[2]))
	if module != "" {
		ev.Module = module
	} else {
		ev.Module = weapon
	}
	ev.Result = "Misses completely"
	return []Event{ev}
}

// Best-effort "You <effect> <entity> - <module>" (done by the listener).
func matchEwarDone(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	if !strings.HasPrefix(body, "You ") || !strings.Contains(body, " - ") {
		return nil
	}
	effect := ClassifyEwar(body)
	if effect == effectUnknown {
		return nil
	}
	left, module, _ := partition(body, " - ")
	left = strings.TrimSpace(strings.TrimPrefix(left, "You"))
	kind := KindEwarEffectsDone
	if isCapWarfare(effect) {
		kind = KindCapWarfareDone
	}
	ev := in.event(kind)
	ev.Source = in.me
	ev.Target = anyParty(left)
	ev.Module = CleanModuleName(module, c.ItemNames)
	ev.Result = effect
	return []Event{ev}
}

// "<amount> from <entity> - <weapon> - <result...>". At least three
// dash-delimited segments are required after the entity to avoid eating
// rep/ewar phrasings that also contain "from".
func matchDamageReceived(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	if !strings.Contains(body, " from ") {
		return nil
	}
	amountStr := firstToken(body)
	if !isDigits(amountStr) {
		return nil
	}
	_, rest, _ := partition(body, "from ")
	parts := strings.Split(rest, " - ")
	if len(parts) < 3 {
		return nil
	}
	pilot, corp, ship := entity.ParseDamage(strings.TrimSpace(parts[0]))
	ev := in.event(KindDamageReceived)
	ev.Amount, ev.HasAmount = atoi(amountStr), true
	ev.Source = Party{Pilot: pilot, Ship: ship, Corp: corp}
	ev.Target = in.me
	ev.Module = strings.TrimSpace(parts[1])
	ev.Result = strings.TrimSpace(strings.Join(parts[2:], " - "))
	return []Event{ev}
}

// "<amount> to <entity> - <weapon> - <result...>".
func matchDamageDone(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	if !strings.Contains(body, " to ") {
		return nil
	}
	amountStr := firstToken(body)
	if !isDigits(amountStr) {
		return nil
	}
	_, rest, _ := partition(body, "to ")
	parts := strings.Split(rest, " - ")
	if len(parts) < 3 {
		return nil
	}
	pilot, corp, ship := entity.ParseDamage(strings.TrimSpace(parts[0]))
	ev := in.event(KindDamageDone)
	ev.Amount, ev.HasAmount = atoi(amountStr), true
	ev.Source = in.me
	ev.Target = Party{Pilot: pilot, Ship: ship, Corp: corp}
	ev.Module = strings.TrimSpace(parts[1])
	ev.Result = strings.TrimSpace(strings.Join(parts[2:], " - "))
	return []Event{ev}
}

// "<Drone> belonging to <Pilot> misses you completely - <module>": damage
// received with amount 0, the drone recorded as the owner's ship.
func matchDroneMiss(c *Classifier, in *lineInput) []Event {
	m := droneMissRE.FindStringSubmatch(in.line.Body)
	if m == nil {
		return nil
	}
	ev := in.event(KindDamageReceived)
	ev.Amount, ev.HasAmount = 0, true
	ev.Source = Party{Pilot: strings.TrimSpace(m[2]), Ship: strings.TrimSpace(m[1])}
	ev.Target = in.me
	ev.Module = strings.TrimSpace(m[3])
	ev.Result = "Misses completely"
	return []Event{ev}
}

func isYouToken(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "you", "you!", "you !":
		return true
	}
	return false
}

// "Warp scramble attempt from <entity> - to <entity> - <module>". A "you"
// target resolves to the listener's own identity and ship state.
func matchJamAttempt(c *Classifier, in *lineInput) []Event {
	body := in.line.Body
	var attemptType string
	switch {
	case strings.Contains(body, "Warp scramble attempt") &&
		strings.Contains(body, " from ") && strings.Contains(body, " to "):
		attemptType = "Warp scramble attempt"
	case strings.Contains(body, "Warp disruption attempt") &&
		strings.Contains(body, " from ") && strings.Contains(body, " to "):
		attemptType = "Warp disruption attempt"
	default:
		return nil
	}

	_, rest, _ := partition(body, " from ")
	srcPart, tgtRest, _ := partition(rest, " to ")
	tgtPart, modulePart, _ := partition(tgtRest, " - ")

	// The attempt line usually reads "... from <entity> - to <entity>";
	// without stripping the dangling dash, entity parsing shifts the ship
	// name into the pilot column.
	sp := strings.TrimSuffix(strings.TrimSpace(srcPart), "-")
	tp := strings.TrimSuffix(strings.TrimSpace(tgtPart), "-")

	ev := in.event(KindPropulsionJamAttempt)
	ev.Source = anyParty(strings.TrimSpace(sp))
	ev.Target = anyParty(strings.TrimSpace(tp))
	if isYouToken(ev.Target.Pilot) {
		ev.Target = in.me
	}
	ev.AttemptType = attemptType
	ev.Module = CleanModuleName(modulePart, c.ItemNames)
	ev.Result = "Attempt"
	return []Event{ev}
}
