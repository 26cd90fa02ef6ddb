package voice

import "github.com/wavecore/synth/pkg/graph"

// VoicesPerAggregate is the SIMD width in voices: with poly.Lanes == 4
// lanes packing 2 stereo voices, exactly 2 sibling Voices share one
// AggregateVoice's cloned sub-graph, per spec.md §3's "Exactly N Voices
// per AggregateVoice (SIMD width)" with N = 4 lanes / 2 (stereo) = 2.
const VoicesPerAggregate = 2

// SubGraph is the cloned per-aggregate processor graph a VoiceHandler
// drives: typically a *graph.Router wrapping the oscillator/filter/
// envelope template shared by both of the aggregate's voices. It is a
// plain graph.Processor; VoiceHandler only needs Process/Reset/Enabled.
type SubGraph = graph.Processor

// AggregateVoice packs VoicesPerAggregate sibling Voices that all run
// through one shared SubGraph clone, masked per-voice via each Voice's
// LaneMask. This is the Go rendition of spec.md §3's AggregateVoice row:
// "N sibling Voices sharing one cloned sub-graph."
type AggregateVoice struct {
	voices [VoicesPerAggregate]*Voice
	graph  SubGraph

	// activeMask is the union of currently-occupied voices' LaneMasks,
	// recomputed whenever a voice's state changes; the shared graph masks
	// its per-lane work against it so idle lanes don't do wasted (but
	// harmless) arithmetic.
	activeMask [4]bool
}

// NewAggregateVoice creates an AggregateVoice wrapping the given cloned
// SubGraph, with VoicesPerAggregate fresh Dead Voices occupying lanes
// {0,1} and {2,3} respectively.
func NewAggregateVoice(subGraph SubGraph) *AggregateVoice {
	a := &AggregateVoice{graph: subGraph}
	for i := 0; i < VoicesPerAggregate; i++ {
		lane := i
		mask := laneMaskFor(lane)
		a.voices[i] = &Voice{Lane: lane, LaneMask: mask}
		a.voices[i].Parent = a
	}
	return a
}

func laneMaskFor(lane int) [4]bool {
	var m [4]bool
	m[lane*2] = true
	m[lane*2+1] = true
	return m
}

// Voices returns the aggregate's sibling Voice slots.
func (a *AggregateVoice) Voices() [VoicesPerAggregate]*Voice {
	return a.voices
}

// Graph returns the aggregate's shared cloned sub-graph.
func (a *AggregateVoice) Graph() SubGraph {
	return a.graph
}

// HasFreeLane reports whether any of the aggregate's voice lanes is Dead.
func (a *AggregateVoice) HasFreeLane() bool {
	for _, v := range a.voices {
		if v.IsFree() {
			return true
		}
	}
	return false
}

// IsFullyActive reports whether every lane is occupied.
func (a *AggregateVoice) IsFullyActive() bool {
	for _, v := range a.voices {
		if v.IsFree() {
			return false
		}
	}
	return true
}

// FreeLane returns the first free Voice slot, or nil if the aggregate is
// fully occupied.
func (a *AggregateVoice) FreeLane() *Voice {
	for _, v := range a.voices {
		if v.IsFree() {
			return v
		}
	}
	return nil
}

// Process runs the shared sub-graph for numSamples, producing audio (or
// control-rate values) for both lanes at once — the whole point of
// packing: one Process call services both sibling voices.
func (a *AggregateVoice) Process(numSamples int) {
	if a.graph != nil && a.graph.Enabled() {
		a.graph.Process(numSamples)
	}
}

// ResetLane reinitializes just one voice's lane back to quiescent state
// (spec.md §4.1's reset(mask)), without disturbing the sibling lane.
func (a *AggregateVoice) ResetLane(lane int) {
	a.voices[lane].reset()
	a.voices[lane].Lane = lane
	a.voices[lane].LaneMask = laneMaskFor(lane)
	a.voices[lane].Parent = a
}
