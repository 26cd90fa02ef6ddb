package voice

import (
	"testing"

	"github.com/wavecore/synth/pkg/graph"
)

// noopSubGraph is a minimal SubGraph for tests that never need to inspect
// actual audio output, only voice bookkeeping.
type noopSubGraph struct {
	graph.Base
}

func newNoopSubGraph() SubGraph {
	g := &noopSubGraph{}
	g.Base = graph.NewBase(nil, nil)
	return g
}

func (g *noopSubGraph) Process(int) {}
func (g *noopSubGraph) Reset()      {}

func newTestHandler(maxAggregates int) *Handler {
	return NewHandler(maxAggregates, func() SubGraph { return newNoopSubGraph() })
}

func TestNoteOnAllocatesVoiceInPolyMode(t *testing.T) {
	h := newTestHandler(2) // polyphony 4
	h.SetMode(ModePoly)

	h.NoteOn(60, 1.0, 0, 0)
	h.PrepareTriggers(64)

	if h.ActiveVoiceCount() != 1 {
		t.Fatalf("ActiveVoiceCount = %d, want 1", h.ActiveVoiceCount())
	}
}

func TestVoiceConservationInvariant(t *testing.T) {
	h := newTestHandler(2) // 4 total voices
	totalVoices := len(h.Aggregates()) * VoicesPerAggregate

	h.NoteOn(60, 1.0, 0, 0)
	h.NoteOn(64, 1.0, 0, 0)
	h.PrepareTriggers(64)

	if h.ActiveVoiceCount()+h.FreeVoiceCount() != totalVoices {
		t.Fatalf("active(%d) + free(%d) != total(%d)",
			h.ActiveVoiceCount(), h.FreeVoiceCount(), totalVoices)
	}
	if h.ActiveVoiceCount() > h.polyphony {
		t.Fatalf("active voices %d exceeds polyphony %d", h.ActiveVoiceCount(), h.polyphony)
	}
}

func TestNoteOffReleasesVoice(t *testing.T) {
	h := newTestHandler(1)
	h.SetMode(ModePoly)

	h.NoteOn(60, 1.0, 0, 0)
	h.PrepareTriggers(64)
	h.NoteOff(60, 0.0, 0, 0)
	h.PrepareTriggers(64)

	agg := h.Aggregates()[0]
	found := false
	for _, v := range agg.Voices() {
		if v.MidiNote == 60 {
			found = true
			if v.State() != Released {
				t.Fatalf("voice state = %v, want Released", v.State())
			}
		}
	}
	if !found {
		t.Fatal("expected to find the note-60 voice")
	}
}

func TestSustainPedalDefersRelease(t *testing.T) {
	h := newTestHandler(1)
	h.SetMode(ModePoly)

	h.NoteOn(60, 1.0, 0, 0)
	h.PrepareTriggers(64)
	h.SustainOn(0)
	h.NoteOff(60, 0.0, 0, 0)
	h.PrepareTriggers(64)

	agg := h.Aggregates()[0]
	for _, v := range agg.Voices() {
		if v.MidiNote == 60 && v.State() != Held {
			t.Fatalf("voice state = %v, want Held (sustain pedal down defers release)", v.State())
		}
	}

	h.SustainOff(0, 0)
	h.PrepareTriggers(64)
	for _, v := range agg.Voices() {
		if v.MidiNote == 60 && v.State() != Released {
			t.Fatalf("voice state = %v, want Released after sustain off", v.State())
		}
	}
}

func TestVoiceStealingKillsOldestWhenOverflowing(t *testing.T) {
	h := newTestHandler(1) // polyphony 2
	h.SetMode(ModePoly)
	h.SetOverride(OverrideKill)
	h.SetPriority(PriorityOldest)

	h.NoteOn(60, 1.0, 0, 0)
	h.PrepareTriggers(64)
	h.NoteOn(64, 1.0, 0, 0)
	h.PrepareTriggers(64)
	// Both lanes full now; a third note must steal.
	h.NoteOn(67, 1.0, 0, 0)
	h.PrepareTriggers(64)

	if h.ActiveVoiceCount() > h.polyphony {
		t.Fatalf("active voice count %d exceeds polyphony %d", h.ActiveVoiceCount(), h.polyphony)
	}
}

func TestMonitorVoiceKillersReclaimsSilentReleasedVoice(t *testing.T) {
	h := newTestHandler(1)
	h.SetMode(ModePoly)

	h.NoteOn(60, 1.0, 0, 0)
	h.PrepareTriggers(64)
	h.NoteOff(60, 0.0, 0, 0)
	h.PrepareTriggers(64)

	h.MonitorVoiceKillers(func(agg *AggregateVoice, lane int) float64 {
		return 0.0 // silent
	})
	h.PrepareTriggers(64)

	if h.ActiveVoiceCount() != 0 {
		t.Fatalf("ActiveVoiceCount = %d, want 0 after voice killer reclaims", h.ActiveVoiceCount())
	}
}
