package midi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestNoteFrequencyRoundTrip property-tests NoteToFrequency/FrequencyToNote
// as inverses for every representable MIDI note, using pgregory.net/rapid
// the way github.com/doismellburning/samoyed's fx25_send_test.go fuzzes
// its frame encoder/decoder pair.
func TestNoteFrequencyRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		note := uint8(rapid.IntRange(0, 127).Draw(rt, "note"))
		tuningA4 := rapid.SampledFrom([]float64{415.0, 432.0, 440.0, 442.0, 0}).Draw(rt, "tuningA4")

		freq := NoteToFrequency(note, tuningA4)
		require.Greater(rt, freq, 0.0, "frequency must be positive for note %d", note)

		roundTripped := FrequencyToNote(freq, tuningA4)
		require.Equal(rt, note, roundTripped, "round trip through Hz should recover the original note")
	})
}

// TestDrainEventsInRangeRemovesReturnedEvents locks in the fix that makes
// DrainEventsInRange a genuine read-and-remove: a second drain over the
// same range must come back empty.
func TestDrainEventsInRangeRemovesReturnedEvents(t *testing.T) {
	q := NewEventQueue()
	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 10}, NoteNumber: 60, Velocity: 100})
	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 20}, NoteNumber: 64, Velocity: 100})

	first := q.DrainEventsInRange(0, 32)
	require.Len(t, first, 2)

	second := q.DrainEventsInRange(0, 32)
	require.Empty(t, second, "events already drained must not be redelivered")
}
