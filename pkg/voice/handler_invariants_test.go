package voice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestActiveVoiceCountNeverExceedsCapacity locks in the conservation
// invariant handler_test.go's TestVoiceConservationInvariant checks with
// plain stdlib testing, rendered with testify/require so the multi-note
// stress case below reads as one assertion chain rather than a string of
// manual if-Fatalf blocks, per spec.md §8's invariant-test style for
// pkg/voice.
func TestActiveVoiceCountNeverExceedsCapacity(t *testing.T) {
	h := newTestHandler(4) // 8 total voices
	h.SetMode(ModePoly)
	total := len(h.Aggregates()) * VoicesPerAggregate

	for note := uint8(60); note < 60+12; note++ {
		h.NoteOn(note, 1.0, 0, 0)
	}
	h.PrepareTriggers(64)

	require.LessOrEqual(t, h.ActiveVoiceCount(), total)
	require.Equal(t, total, h.ActiveVoiceCount()+h.FreeVoiceCount())
}

// TestAllNotesOffReleasesEveryVoice checks that AllNotesOff leaves no
// voice reporting Held/Sustained/Triggering state.
func TestAllNotesOffReleasesEveryVoice(t *testing.T) {
	h := newTestHandler(2)
	h.SetMode(ModePoly)

	h.NoteOn(60, 1.0, 0, 0)
	h.NoteOn(64, 1.0, 0, 0)
	h.PrepareTriggers(64)
	require.Equal(t, 2, h.ActiveVoiceCount())

	h.AllNotesOff(0, 0, false)
	h.PrepareTriggers(64)

	for _, agg := range h.Aggregates() {
		for _, v := range agg.Voices() {
			require.NotEqual(t, Held, v.State(), "AllNotesOff must not leave a voice Held")
			require.NotEqual(t, Triggering, v.State(), "AllNotesOff must not leave a voice Triggering")
		}
	}
}
