package fights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfleet/combatlog/pkg/combat"
)

func evAt(t time.Time) combat.Event {
	return combat.Event{Timestamp: t, Kind: combat.KindDamageDone}
}

func TestSplitOnGap(t *testing.T) {
	base := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	events := []combat.Event{
		evAt(base),
		evAt(base.Add(1 * time.Minute)),
		evAt(base.Add(20 * time.Minute)),
		evAt(base.Add(21 * time.Minute)),
	}

	windows := Split(events, 15*time.Minute)
	require.Len(t, windows, 2)

	assert.Equal(t, base, windows[0].Start)
	assert.Equal(t, base.Add(1*time.Minute), windows[0].End)
	assert.Equal(t, base.Add(20*time.Minute), windows[1].Start)
	assert.Equal(t, base.Add(21*time.Minute), windows[1].End)
}

func TestSplitUnsortedInput(t *testing.T) {
	base := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	events := []combat.Event{
		evAt(base.Add(30 * time.Minute)),
		evAt(base),
	}
	windows := Split(events, 15*time.Minute)
	require.Len(t, windows, 2)
	assert.Equal(t, base, windows[0].Start)
}

func TestSplitIgnoresZeroTimestamps(t *testing.T) {
	base := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	events := []combat.Event{
		{Kind: combat.KindDamageDone},
		evAt(base),
	}
	windows := Split(events, 0)
	require.Len(t, windows, 1)
	assert.Equal(t, Window{Start: base, End: base}, windows[0])
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split(nil, time.Minute))
}

func TestWindowLabel(t *testing.T) {
	w := Window{
		Start: time.Date(2026, 2, 14, 21, 5, 2, 0, time.UTC),
		End:   time.Date(2026, 2, 14, 21, 27, 33, 0, time.UTC),
	}
	assert.Equal(t, "20260214_210502-20260214_212733", w.Label())
	assert.Equal(t, "fight_001_20260214_210502-20260214_212733", w.FolderName(1))
}

func TestWindowContainsBounds(t *testing.T) {
	base := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	w := Window{Start: base, End: base.Add(time.Minute)}
	assert.True(t, w.Contains(base))
	assert.True(t, w.Contains(base.Add(time.Minute)))
	assert.False(t, w.Contains(base.Add(time.Minute+time.Second)))
	assert.False(t, w.Contains(base.Add(-time.Second)))
}

func TestFilterByWindowCopies(t *testing.T) {
	base := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	events := []combat.Event{evAt(base), evAt(base.Add(time.Hour))}
	w := Window{Start: base, End: base.Add(time.Minute)}

	got := FilterByWindow(events, w)
	require.Len(t, got, 1)

	// Mutating the filtered copy must not touch the source slice.
	got[0].Source.Ship = "Sleipnir"
	assert.Empty(t, events[0].Source.Ship)
}

func TestFilterOthers(t *testing.T) {
	base := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	others := []combat.Other{
		{Timestamp: base, Text: "inside"},
		{Timestamp: base.Add(time.Hour), Text: "outside"},
	}
	w := Window{Start: base, End: base.Add(time.Minute)}
	got := FilterOthers(others, w)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].Text)
}
