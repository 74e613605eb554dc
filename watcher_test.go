package serialline

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanLine_SingleMatchOncePerLine(t *testing.T) {
	var reg watcherRegistry
	var got []string
	reg.add(MustPattern(`^J`), func(m string, _ *Pattern) { got = append(got, m) })

	scanLine(reg.snapshot(), "Just nod if you can hear me.")
	require.Equal(t, []string{"J"}, got)
}

func TestScanLine_GlobalOncePerOccurrence(t *testing.T) {
	var reg watcherRegistry
	var got []string
	reg.add(NewGlobalPattern(regexp.MustCompile(`(?i)[A-E]`)), func(m string, _ *Pattern) {
		got = append(got, m)
	})

	scanLine(reg.snapshot(), "Is there anyone at home?")
	require.Len(t, got, 6)
	require.Equal(t, []string{"e", "e", "a", "e", "a", "e"}, got)
}

func TestScanLine_CaptureGroupPattern(t *testing.T) {
	var reg watcherRegistry
	var got []string
	reg.add(NewGlobalPattern(regexp.MustCompile(`%(.*?)%`)), func(m string, _ *Pattern) {
		got = append(got, m)
	})

	scanLine(reg.snapshot(), "Well I can ease your %pain%")
	require.Equal(t, []string{"%pain%"}, got)
}

func TestScanLine_PassesOwningPattern(t *testing.T) {
	var reg watcherRegistry
	p := MustPattern(`ping`)
	var seen *Pattern
	reg.add(p, func(_ string, got *Pattern) { seen = got })

	scanLine(reg.snapshot(), "ping")
	require.Same(t, p, seen)
}

func TestScanLine_MultipleWatchersAllFire(t *testing.T) {
	var reg watcherRegistry
	var order []string
	reg.add(MustPattern(`a`), func(string, *Pattern) { order = append(order, "first") })
	reg.add(MustPattern(`a`), func(string, *Pattern) { order = append(order, "second") })

	scanLine(reg.snapshot(), "a")
	require.Equal(t, []string{"first", "second"}, order)
}

func TestWatcherRegistry_Remove(t *testing.T) {
	var reg watcherRegistry
	var calls int
	w := reg.add(MustPattern(`x`), func(string, *Pattern) { calls++ })

	require.True(t, reg.remove(w))
	require.False(t, reg.remove(w))

	scanLine(reg.snapshot(), "x")
	require.Zero(t, calls)
}

func TestWatcherRegistry_SnapshotIsStable(t *testing.T) {
	var reg watcherRegistry
	reg.add(MustPattern(`x`), func(string, *Pattern) {})
	snap := reg.snapshot()
	reg.clear()
	require.Len(t, snap, 1)
	require.Empty(t, reg.snapshot())
}
