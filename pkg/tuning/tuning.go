// Package tuning implements the Tuning entity from spec.md §3: a pure
// mapping from MIDI note number to a tuned note number (in fractional
// semitones relative to A4), letting the engine support microtonal scales
// without any change to the Voice or VoiceHandler machinery.
//
// Grounded on the teacher's pkg/midi note<->frequency helpers
// (NoteToFrequency/FrequencyToNote in pkg/midi/events.go), generalized
// from "always 12-TET" to an arbitrary per-note offset table.
package tuning

import "math"

// A4Frequency is the reference pitch in Hz for MIDI note 69.
const A4Frequency = 440.0

// A4MidiNote is the MIDI note number tuning offsets are measured against.
const A4MidiNote = 69

// Table is a pure function over MIDI note numbers: midi_note -> tuned_note
// (in fractional semitones from A4). The zero value is standard 12-TET
// (Table.Offsets is nil, every note maps to itself).
type Table struct {
	// Offsets, if non-nil, holds a per-note-class (mod 12) semitone
	// offset from standard 12-TET, the simplest useful microtonal
	// scale representation (e.g. a meantone or just-intonation scale
	// repeating every octave).
	Offsets [12]float64
}

// Standard12TET is the default Table: no offsets, straightforward 12-tone
// equal temperament.
var Standard12TET = Table{}

// Tune maps a MIDI note number to its tuned note number in fractional
// semitones from A4.
func (t Table) Tune(midiNote uint8) float64 {
	base := float64(int(midiNote) - A4MidiNote)
	offset := t.Offsets[int(midiNote)%12]
	return base + offset
}

// Frequency converts a tuned note number (fractional semitones from A4)
// to a frequency in Hz.
func Frequency(tunedNote float64) float64 {
	return A4Frequency * math.Pow(2, tunedNote/12.0)
}

// NoteFrequency is a convenience combining Tune and Frequency.
func (t Table) NoteFrequency(midiNote uint8) float64 {
	return Frequency(t.Tune(midiNote))
}
