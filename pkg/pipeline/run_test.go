package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solfleet/combatlog/pkg/affiliation"
	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/roster"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	kinds, err := roster.NewKindClassifier(nil)
	if err != nil {
		t.Fatalf("NewKindClassifier: %v", err)
	}
	return &Runner{
		Classifier: &combat.Classifier{},
		Kinds:      kinds,
		Resolver: &affiliation.Resolver{
			Persistent: affiliation.PilotDB{},
			AffLog:     affiliation.DB{},
			AffLookup:  affiliation.DB{},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	r := newTestRunner(t)

	main := File{Name: "main.txt", Lines: []string{
		"Listener: Alice Trax",
		"[ 2026.02.14 21:00:00 ] (combat) 227 to Bob Naari[XYZ](Rifter) - Light Neutron Blaster II - Penetrates",
		"[ 2026.02.14 21:00:05 ] (combat) 498 remote shield boosted by Turix [ECHO.] [INOU] Basilisk - Large Remote Shield Booster II",
		"[ 2026.02.14 21:00:08 ] (notify) Docking request accepted",
		"[ 2026.02.14 21:00:10 ] (combat) Warp scramble attempt from Kira Voss [NADA] [KV] Maulus - to you!",
		"[ 2026.02.14 21:30:00 ] (combat) 100 from Bob Naari[XYZ](Rifter) - 200mm AutoCannon II - Hits",
	}}
	// A second log of the same session repeats the scramble attempt.
	overlap := File{Name: "overlap.txt", Lines: []string{
		"Listener: Alice Trax",
		"[ 2026.02.14 21:00:11 ] (combat) Warp scramble attempt from Kira Voss [NADA] [KV] Maulus - to you!",
	}}

	res, err := r.Run([]File{main, overlap})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Error("empty run id")
	}
	if res.Files != 2 {
		t.Errorf("Files = %d", res.Files)
	}

	// The 30 minute gap splits the session into two fights.
	if len(res.Fights) != 2 {
		t.Fatalf("got %d fights", len(res.Fights))
	}
	if !strings.HasPrefix(res.Fights[0].ID, "fight_001_20260214_210000") {
		t.Errorf("fight id = %q", res.Fights[0].ID)
	}

	first := res.Fights[0]

	// The duplicated scramble attempt collapses to one event that remembers
	// both origins.
	var jams []combat.Event
	for _, ev := range first.Events {
		if ev.Kind == combat.KindPropulsionJamAttempt {
			jams = append(jams, ev)
		}
	}
	if len(jams) != 1 {
		t.Fatalf("got %d jam attempts", len(jams))
	}
	if len(jams[0].MergedOrigins) != 1 {
		t.Errorf("MergedOrigins = %+v", jams[0].MergedOrigins)
	}
	if jams[0].Target.Pilot != "Alice Trax" {
		t.Errorf("jam target = %+v", jams[0].Target)
	}

	// Kind annotation: tickered names are players.
	for _, ev := range first.Events {
		for _, p := range ev.Parties() {
			if p.Pilot == "Bob Naari" && p.Kind != combat.PartyPlayer {
				t.Errorf("Bob kind = %s", p.Kind)
			}
			if p.Pilot == "Kira Voss" && p.Kind != combat.PartyPlayer {
				t.Errorf("Kira kind = %s", p.Kind)
			}
		}
	}

	// The notify line survives as an unclassified record in the first fight.
	foundNotify := false
	for _, o := range first.Others {
		if o.Channel == "notify" {
			foundNotify = true
		}
	}
	if !foundNotify {
		t.Error("notify line lost")
	}

	// Every event carries its fight id.
	for _, f := range res.Fights {
		for _, ev := range f.Events {
			if ev.FightID != f.ID {
				t.Errorf("FightID = %q in fight %q", ev.FightID, f.ID)
			}
		}
	}

	// Corp/alliance pairs seen on lines land in the affiliation log.
	if res.AffLog.Lookup("KV") != "NADA" {
		t.Errorf("AffLog KV = %q", res.AffLog.Lookup("KV"))
	}
	if res.AffLog.Lookup("INOU") != "ECHO." {
		t.Errorf("AffLog INOU = %q", res.AffLog.Lookup("INOU"))
	}
}

func TestRunBackfillsBareSightings(t *testing.T) {
	r := newTestRunner(t)

	file := File{Name: "log.txt", Lines: []string{
		"Listener: Alice Trax",
		// First line names Bob with corp and ship; the webbed line only has
		// his bare name. Enrichment ties them together.
		"[ 2026.02.14 21:00:00 ] (combat) 227 to Bob Naari[XYZ](Rifter) - Blaster - Hits",
		"[ 2026.02.14 21:00:05 ] (combat) You're webbed by Bob Naari - Stasis Webifier II",
	}}

	res, err := r.Run([]File{file})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Fights) != 1 {
		t.Fatalf("got %d fights", len(res.Fights))
	}
	for _, ev := range res.Fights[0].Events {
		for _, p := range ev.Parties() {
			if p.Pilot != "Bob Naari" {
				continue
			}
			if p.Corp != "XYZ" {
				t.Errorf("Bob corp = %q on %s", p.Corp, ev.Kind)
			}
			if p.Ship != "Rifter" {
				t.Errorf("Bob ship = %q on %s", p.Ship, ev.Kind)
			}
		}
	}
}

func TestRunSkipsLinesBeforeListener(t *testing.T) {
	r := newTestRunner(t)

	file := File{Name: "log.txt", Lines: []string{
		"[ 2026.02.14 21:00:00 ] (combat) 227 to Bob Naari[XYZ](Rifter) - Blaster - Hits",
		"Listener: Alice Trax",
		"[ 2026.02.14 21:00:05 ] (combat) 300 to Bob Naari[XYZ](Rifter) - Blaster - Hits",
	}}
	res, err := r.Run([]File{file})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Events != 1 {
		t.Errorf("Events = %d, want the pre-listener line dropped", res.Events)
	}
}

func TestReadFolder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("b.txt", "line1\nline2\n")
	write("a.txt", "only\n")
	write("ignore.csv", "nope\n")

	files, err := ReadFolder(dir)
	if err != nil {
		t.Fatalf("ReadFolder: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files", len(files))
	}
	if files[0].Name != "a.txt" || files[1].Name != "b.txt" {
		t.Errorf("order = %s, %s", files[0].Name, files[1].Name)
	}
	if len(files[1].Lines) != 2 {
		t.Errorf("b.txt lines = %d", len(files[1].Lines))
	}
}
