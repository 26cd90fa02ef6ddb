// Package voice implements the polyphonic voice lifecycle and scheduler:
// the Voice state machine, SIMD-lane-packed AggregateVoice, and the
// VoiceHandler that allocates, steals, and prepares per-block triggers for
// them.
//
// Grounded on the teacher's pkg/framework/voice.Allocator (poly/mono/
// legato/unison modes, five stealing policies), generalized from "one
// Voice per MIDI note, one Voice per slice of the voices slice" to "one
// Voice per MIDI note, packed two-to-an-AggregateVoice so the engine
// processes voice pairs through one shared sub-graph clone", per spec.md
// §4.3's aggregate-voice packing requirement — an axis the teacher's
// allocator has no equivalent of, since vst3go targets an unpacked
// instrument plugin. The voice_killer concept is grounded on
// original_source/src/synthesis/framework/voice_handler.cpp.
package voice

import "github.com/wavecore/synth/pkg/poly"

// State is the Voice key-state machine named in spec.md §4.3.
type State int

const (
	// Dead voices hold no note and are available for allocation.
	Dead State = iota
	// Triggering voices have a pending note-on not yet applied (applied
	// at the end of the block it was issued in).
	Triggering
	// Held voices are sounding and not yet released.
	Held
	// Sustained voices received a note-off while the sustain pedal was
	// down; they behave like Held until the pedal lifts.
	Sustained
	// Released voices are decaying toward silence.
	Released
)

// String renders State for logging/debugging.
func (s State) String() string {
	switch s {
	case Dead:
		return "Dead"
	case Triggering:
		return "Triggering"
	case Held:
		return "Held"
	case Sustained:
		return "Sustained"
	case Released:
		return "Released"
	default:
		return "Unknown"
	}
}

// TriggerEvent is the discrete event a VoiceState trigger carries, per
// spec.md §3's "VoiceState trigger" row.
type TriggerEvent int

const (
	// VoiceIdle carries no event; the trigger is not due this block.
	VoiceIdle TriggerEvent = iota
	VoiceOn
	VoiceOff
	VoiceKill
	VoiceHold
	VoiceDecay
)

// PendingEvent is a trigger awaiting its sample offset within the current
// or a future block. Offsets are decremented by block_size at the end of
// every block that doesn't consume them, per spec.md §4.3.
type PendingEvent struct {
	Event        TriggerEvent
	SampleOffset int
}

// Voice is one playing (or free) note slot. Fields mirror spec.md §3's
// Voice row exactly.
type Voice struct {
	state State

	MidiNote  uint8
	TunedNote float64 // after Tuning lookup
	Velocity  float64
	Lift      float64 // release velocity

	LocalPitchBend float64
	Channel        uint8
	Sostenuto      bool

	Pending     PendingEvent
	Aftertouch  float64
	AftertouchOffset int
	Slide       float64
	SlideOffset int

	// Parent and lane identify this Voice's place in its AggregateVoice:
	// Lane selects which stereo-pair of poly.Lanes this voice occupies
	// (0 for lanes {0,1}, 1 for lanes {2,3}), and LaneMask is the
	// precomputed poly.Mask selecting exactly those lanes.
	Parent   *AggregateVoice
	Lane     int
	LaneMask poly.Mask

	age     int64 // insertion counter, for Oldest/Newest ordering
	kill    bool  // a kill was requested; next Dead transition reclaims
}

// State returns the voice's current key-state.
func (v *Voice) State() State { return v.state }

// IsActive reports whether the voice currently occupies a lane (anything
// but Dead).
func (v *Voice) IsActive() bool { return v.state != Dead }

// IsFree reports whether the voice is available for (re)allocation.
func (v *Voice) IsFree() bool { return v.state == Dead }

// Age returns the voice's insertion counter, used by the Oldest/Newest
// voice-priority orderings.
func (v *Voice) Age() int64 { return v.age }

// trigger queues a PendingEvent at the given in-block sample offset,
// overwriting any not-yet-fired pending event (the teacher's allocator
// "retrigger the note on existing voice" behavior, generalized to the
// offset-stamped model).
func (v *Voice) trigger(event TriggerEvent, sampleOffset int) {
	v.Pending = PendingEvent{Event: event, SampleOffset: sampleOffset}
}

// applyTrigger performs the key-state transition for a fired trigger, per
// the diagram in spec.md §4.3.
func (v *Voice) applyTrigger(event TriggerEvent) {
	switch event {
	case VoiceOn:
		v.state = Held
	case VoiceOff:
		v.state = Released
	case VoiceKill:
		v.kill = true
		v.state = Released
	case VoiceHold:
		v.state = Sustained
	case VoiceDecay:
		v.state = Dead
	}
}

// reset clears a Voice back to its Dead, unallocated initial state.
func (v *Voice) reset() {
	*v = Voice{Parent: v.Parent, Lane: v.Lane, LaneMask: v.LaneMask}
}
