package voice

import "sort"

// AllocationMode mirrors the teacher's voice.AllocationMode, unchanged in
// meaning: how incoming notes map onto voice lanes.
type AllocationMode int

const (
	ModePoly AllocationMode = iota
	ModeMono
	ModeLegato
	ModeUnison
)

// StealOverride is spec.md §4.3's voice_override: what the handler does
// when polyphony is exceeded.
type StealOverride int

const (
	// OverrideKill selects a victim by priority {any Released, else any
	// Sustained, else oldest Held}, issues VoiceKill, and reassigns once
	// the victim reaches Dead after its kill-time ramp.
	OverrideKill StealOverride = iota
	// OverrideSteal reassigns an existing Held voice in place without
	// retrigger, only legal together with ModeLegato.
	OverrideSteal
)

// Priority is spec.md §4.3's voice_priority: the ordering used to pick
// which voice becomes the new note when more than one candidate ties.
type Priority int

const (
	PriorityNewest Priority = iota
	PriorityOldest
	PriorityHighest
	PriorityLowest
	PriorityRoundRobin
)

// Factory creates a fresh SubGraph clone for a newly allocated
// AggregateVoice. The engine supplies this, typically cloning a template
// oscillator/filter/envelope sub-router once per aggregate.
type Factory func() SubGraph

// Handler is the polyphonic voice scheduler: spec.md §4.3's VoiceHandler.
// It owns every AggregateVoice, allocates/steals voices on note events,
// and prepares per-block triggers for the aggregates it owns.
type Handler struct {
	aggregates []*AggregateVoice
	polyphony  int

	mode     AllocationMode
	override StealOverride
	priority Priority

	noteToVoice map[uint8][]*Voice
	sustainPedal bool
	sustainedNotes map[uint8]bool

	// mono/legato state
	currentNote  uint8
	hasCurrent   bool

	nextAge      int64
	roundRobin   int
}

// NewHandler creates a Handler that lazily grows up to maxAggregates
// AggregateVoices (each VoicesPerAggregate voices wide) via factory,
// giving a maximum polyphony of maxAggregates*VoicesPerAggregate.
func NewHandler(maxAggregates int, factory Factory) *Handler {
	h := &Handler{
		polyphony:      maxAggregates * VoicesPerAggregate,
		noteToVoice:    make(map[uint8][]*Voice),
		sustainedNotes: make(map[uint8]bool),
	}
	for i := 0; i < maxAggregates; i++ {
		h.aggregates = append(h.aggregates, NewAggregateVoice(factory()))
	}
	return h
}

// SetMode sets the allocation mode, resetting all voices on change (the
// teacher's Allocator.SetMode behavior).
func (h *Handler) SetMode(mode AllocationMode) {
	h.mode = mode
	h.AllSoundsOff()
}

// Mode reports the current allocation mode, used by the engine to decide
// whether a voice's pitch should glide (Mono/Legato) rather than jump.
func (h *Handler) Mode() AllocationMode { return h.mode }

// HeldNoteCount reports how many distinct notes are currently tracked,
// the numNotesPressed PortamentoSlope's non-force glide rule consults.
func (h *Handler) HeldNoteCount() int { return len(h.noteToVoice) }

// SetOverride sets the voice-stealing override policy.
func (h *Handler) SetOverride(o StealOverride) { h.override = o }

// SetPriority sets the voice-priority ordering used for tie-breaking.
func (h *Handler) SetPriority(p Priority) { h.priority = p }

// SetPolyphony caps the number of simultaneously active voices at n,
// clamped to the handler's allocated aggregate capacity.
func (h *Handler) SetPolyphony(n int) {
	max := len(h.aggregates) * VoicesPerAggregate
	if n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	h.polyphony = n
}

// Aggregates returns every AggregateVoice the handler owns, for the
// engine to add as Router children.
func (h *Handler) Aggregates() []*AggregateVoice {
	return h.aggregates
}

// ActiveVoiceCount returns the number of non-Dead voices across all
// aggregates.
func (h *Handler) ActiveVoiceCount() int {
	count := 0
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			if v.IsActive() {
				count++
			}
		}
	}
	return count
}

// FreeVoiceCount returns the number of Dead voices across all aggregates,
// for the voice-conservation invariant in spec.md §8.
func (h *Handler) FreeVoiceCount() int {
	total := len(h.aggregates) * VoicesPerAggregate
	return total - h.ActiveVoiceCount()
}

// NoteOn handles note_on(note, velocity, sample_offset) at the engine's
// external-interface boundary, deferring the actual state transition to a
// PendingEvent consumed at PrepareTriggers time, per spec.md §2's
// "Control flow for events."
func (h *Handler) NoteOn(note uint8, velocity float64, sampleOffset int, channel uint8) {
	switch h.mode {
	case ModeMono, ModeLegato:
		h.noteOnMono(note, velocity, sampleOffset, channel)
	case ModeUnison:
		h.noteOnUnison(note, velocity, sampleOffset, channel)
	default:
		h.noteOnPoly(note, velocity, sampleOffset, channel)
	}
}

// NoteOff handles note_off(note, lift, sample_offset). If the sustain
// pedal is down, the note is marked sustained instead of released,
// mirroring the teacher's Allocator.NoteOff.
func (h *Handler) NoteOff(note uint8, lift float64, sampleOffset int, channel uint8) {
	if h.sustainPedal {
		h.sustainedNotes[note] = true
		for _, v := range h.noteToVoice[note] {
			v.Lift = lift
			v.trigger(VoiceHold, sampleOffset)
		}
		return
	}
	for _, v := range h.noteToVoice[note] {
		v.Lift = lift
		v.trigger(VoiceOff, sampleOffset)
	}
}

// SustainOn/SustainOff implement the sustain pedal controller calls named
// in spec.md §6.
func (h *Handler) SustainOn(channel uint8) { h.sustainPedal = true }

func (h *Handler) SustainOff(channel uint8, sampleOffset int) {
	h.sustainPedal = false
	for note := range h.sustainedNotes {
		if h.noteToVoice[note] != nil {
			for _, v := range h.noteToVoice[note] {
				if !v.Sostenuto {
					v.trigger(VoiceOff, sampleOffset)
				}
			}
		}
	}
	h.sustainedNotes = make(map[uint8]bool)
}

// AllSoundsOff immediately kills every voice, per spec.md §5's
// "Cancellation" all-sounds-off contract — synchronous, no ramp.
func (h *Handler) AllSoundsOff() {
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			v.reset()
		}
		agg.graph.Reset()
	}
	h.noteToVoice = make(map[uint8][]*Voice)
	h.sustainedNotes = make(map[uint8]bool)
	h.sustainPedal = false
	h.hasCurrent = false
}

// AllNotesOff releases (not kills) every currently held/sustained note on
// the given channel, or every channel if channel < 0.
func (h *Handler) AllNotesOff(sampleOffset int, channel int, hasChannel bool) {
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			if v.IsActive() && v.state != Released && (!hasChannel || int(v.Channel) == channel) {
				v.trigger(VoiceOff, sampleOffset)
			}
		}
	}
}

func (h *Handler) noteOnPoly(note uint8, velocity float64, sampleOffset int, channel uint8) {
	if existing := h.noteToVoice[note]; len(existing) > 0 {
		for _, v := range existing {
			v.Velocity = velocity
			v.trigger(VoiceOn, sampleOffset)
		}
		return
	}

	v := h.grabVoice()
	if v == nil {
		return
	}
	h.allocate(v, note, velocity, channel)
	v.trigger(VoiceOn, sampleOffset)
	h.noteToVoice[note] = []*Voice{v}
}

func (h *Handler) noteOnMono(note uint8, velocity float64, sampleOffset int, channel uint8) {
	if !h.hasCurrent {
		v := h.grabVoice()
		if v == nil {
			return
		}
		h.allocate(v, note, velocity, channel)
		v.trigger(VoiceOn, sampleOffset)
		h.noteToVoice = map[uint8][]*Voice{note: {v}}
		h.currentNote = note
		h.hasCurrent = true
		return
	}

	// Legato/mono glide: reassign the existing voice's note without
	// retriggering the envelope, per spec.md's "Steal: reassign an
	// existing voice in place without retrigger if legato and key_state
	// == Held."
	prevNote := h.currentNote
	if existing := h.noteToVoice[prevNote]; len(existing) > 0 {
		v := existing[0]
		v.MidiNote = note
		v.Velocity = velocity
		delete(h.noteToVoice, prevNote)
		h.noteToVoice[note] = []*Voice{v}
		h.currentNote = note
		if h.mode == ModePoly {
			v.trigger(VoiceOn, sampleOffset)
		}
		// ModeLegato/ModeMono: no trigger event, pitch glides via the
		// engine's PortamentoSlope reading the new MidiNote directly.
	}
}

func (h *Handler) noteOnUnison(note uint8, velocity float64, sampleOffset int, channel uint8) {
	var voices []*Voice
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			if len(voices) >= h.polyphony {
				break
			}
			if v.IsFree() {
				h.allocate(v, note, velocity, channel)
				v.trigger(VoiceOn, sampleOffset)
				voices = append(voices, v)
			}
		}
	}
	h.noteToVoice[note] = voices
	h.currentNote = note
	h.hasCurrent = true
}

// grabVoice implements spec.md §4.3's "prefers a free lane in an already-
// active aggregate [...] before allocating a new aggregate", falling back
// to stealing per the configured override when every lane is occupied.
func (h *Handler) grabVoice() *Voice {
	// Once the configured polyphony is already saturated, a physically
	// free lane elsewhere must not be handed out — that would let
	// active_voices exceed polyphony, violating spec.md §8's voice
	// conservation invariant. Go straight to the stealing policy instead.
	if h.ActiveVoiceCount() >= h.polyphony {
		return h.stealVoice()
	}

	// First pass: a free lane in an aggregate that already has an active
	// sibling, to keep the shared sub-graph warm and SIMD-dense.
	for _, agg := range h.aggregates {
		if !agg.IsFullyActive() && !h.allLanesFree(agg) {
			if v := agg.FreeLane(); v != nil {
				return v
			}
		}
	}
	// Second pass: any free lane at all, including a cold aggregate.
	for _, agg := range h.aggregates {
		if v := agg.FreeLane(); v != nil {
			return v
		}
	}
	// No free lane anywhere: invoke the stealing policy.
	return h.stealVoice()
}

func (h *Handler) allLanesFree(agg *AggregateVoice) bool {
	for _, v := range agg.voices {
		if v.IsActive() {
			return false
		}
	}
	return true
}

// stealVoice implements spec.md §4.3's voice-stealing priority: any
// Released, else any Sustained, else the oldest Held, ordered further by
// the configured Priority when multiple candidates tie at the same
// category.
func (h *Handler) stealVoice() *Voice {
	if h.override != OverrideKill {
		return nil
	}

	var candidates []*Voice
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			if v.IsActive() {
				candidates = append(candidates, v)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	byCategory := func(v *Voice) int {
		switch v.state {
		case Released:
			return 0
		case Sustained:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := byCategory(candidates[i]), byCategory(candidates[j])
		if ci != cj {
			return ci < cj
		}
		return h.less(candidates[i], candidates[j])
	})

	victim := candidates[0]
	for _, n := range h.notesFor(victim) {
		delete(h.noteToVoice, n)
	}
	victim.trigger(VoiceKill, 0)
	victim.applyTrigger(VoiceKill)
	return victim
}

// less orders two voices per the configured Priority, used both for
// stealing tie-breaks and for any future "reactivate next note" policy.
func (h *Handler) less(a, b *Voice) bool {
	switch h.priority {
	case PriorityNewest:
		return a.age > b.age
	case PriorityOldest:
		return a.age < b.age
	case PriorityHighest:
		return a.MidiNote > b.MidiNote
	case PriorityLowest:
		return a.MidiNote < b.MidiNote
	default: // PriorityRoundRobin
		return a.age < b.age
	}
}

func (h *Handler) notesFor(v *Voice) []uint8 {
	var notes []uint8
	for note, voices := range h.noteToVoice {
		for _, cand := range voices {
			if cand == v {
				notes = append(notes, note)
			}
		}
	}
	return notes
}

func (h *Handler) allocate(v *Voice, note uint8, velocity float64, channel uint8) {
	v.MidiNote = note
	v.TunedNote = float64(note)
	v.Velocity = velocity
	v.Channel = channel
	v.kill = false
	v.age = h.nextAge
	h.nextAge++
	v.state = Triggering
}

// PrepareTriggers walks every aggregate's voices once per block: any
// voice whose pending event's sample offset lies in [0, blockSize) fires
// (the handler applies its state transition), otherwise the offset is
// decremented by blockSize for the next block, per spec.md §4.3.
func (h *Handler) PrepareTriggers(blockSize int) {
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			if v.Pending.Event == VoiceIdle {
				continue
			}
			if v.Pending.SampleOffset >= 0 && v.Pending.SampleOffset < blockSize {
				v.applyTrigger(v.Pending.Event)
				v.Pending = PendingEvent{Event: VoiceIdle}
				if v.state == Dead {
					h.reclaim(v)
				}
			} else {
				v.Pending.SampleOffset -= blockSize
			}
		}
	}
}

func (h *Handler) reclaim(v *Voice) {
	for _, n := range h.notesFor(v) {
		voices := h.noteToVoice[n]
		for i, cand := range voices {
			if cand == v {
				h.noteToVoice[n] = append(voices[:i], voices[i+1:]...)
			}
		}
		if len(h.noteToVoice[n]) == 0 {
			delete(h.noteToVoice, n)
		}
	}
	v.reset()
}
