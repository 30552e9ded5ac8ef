// Package export writes per-fight CSV files, one per event kind plus an
// audit file for unclassified lines.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/logtext"
)

var eventHeader = []string{
	"timestamp", "fight_id", "kind", "amount", "listener",
	"source_pilot", "source_ship", "source_alliance", "source_corp", "source_kind",
	"target_pilot", "target_ship", "target_alliance", "target_corp", "target_kind",
	"module", "attempt_type", "result",
	"source_file", "source_line",
}

var otherHeader = []string{
	"timestamp", "channel", "listener", "text", "source_file", "source_line",
}

func eventRow(ev *combat.Event) []string {
	amount := ""
	if ev.HasAmount {
		amount = strconv.Itoa(ev.Amount)
	}
	return []string{
		ev.Timestamp.Format(logtext.TimestampFormat),
		ev.FightID,
		string(ev.Kind),
		amount,
		ev.Listener,
		ev.Source.Pilot, ev.Source.Ship, ev.Source.Alliance, ev.Source.Corp, string(ev.Source.Kind),
		ev.Target.Pilot, ev.Target.Ship, ev.Target.Alliance, ev.Target.Corp, string(ev.Target.Kind),
		ev.Module,
		ev.AttemptType,
		ev.Result,
		ev.Origin.File,
		strconv.Itoa(ev.Origin.Line),
	}
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteFight writes one fight's events into dir, one CSV per kind that has
// rows, plus others.csv when unclassified lines fall inside the fight.
// Empty kinds produce no file, so a fight folder only shows what happened.
func WriteFight(dir string, events []combat.Event, others []combat.Other) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	byKind := make(map[combat.Kind][][]string)
	for i := range events {
		ev := &events[i]
		byKind[ev.Kind] = append(byKind[ev.Kind], eventRow(ev))
	}

	for _, kind := range combat.Kinds {
		rows := byKind[kind]
		if len(rows) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.csv", kind))
		if err := writeCSV(path, eventHeader, rows); err != nil {
			return fmt.Errorf("export %s: %w", kind, err)
		}
	}

	if len(others) > 0 {
		rows := make([][]string, 0, len(others))
		for i := range others {
			o := &others[i]
			rows = append(rows, []string{
				o.Timestamp.Format(logtext.TimestampFormat),
				o.Channel,
				o.Listener,
				o.Text,
				o.Origin.File,
				strconv.Itoa(o.Origin.Line),
			})
		}
		if err := writeCSV(filepath.Join(dir, "others.csv"), otherHeader, rows); err != nil {
			return fmt.Errorf("export others: %w", err)
		}
	}
	return nil
}
