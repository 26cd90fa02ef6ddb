package engine

import (
	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/synthmodule"
)

// sourceEntry is one registered modulation source: its Output plus
// whether it defaults to Bipolar per spec.md §4.4 step 2 (the LFOs, the
// random sources, pitch_wheel and stereo are bipolar; velocity,
// aftertouch, mod_wheel and the other scalar host-state sources are
// unipolar).
type sourceEntry struct {
	output  *graph.Output
	bipolar bool
}

// engineResolver implements modulation.Resolver against the set of
// modulation sources the engine owns directly (LFOs, random generators,
// scalar host-driven sources) plus every destination registered on the
// voice graphs' synthmodule.Module trees, grounded on vital's
// SynthModule::getModulationSource/getPolyModulationDestination dispatch
// generalized from "ask this one big tree" to "ask the engine's source
// table, then fall back to each voice graph's tree."
type engineResolver struct {
	sources map[string]sourceEntry
	voices  []*synthmodule.Module
}

func newEngineResolver() *engineResolver {
	return &engineResolver{sources: make(map[string]sourceEntry)}
}

// registerSource adds a source the engine itself drives (as opposed to
// one declared by a synthmodule.Module), such as an LFO or a scalar
// host-state source.
func (r *engineResolver) registerSource(name string, output *graph.Output, bipolar bool) {
	r.sources[name] = sourceEntry{output: output, bipolar: bipolar}
}

// registerVoiceGraph folds a voiceGraph's own registered modulation
// sources (if any) and destinations into the resolver's search.
func (r *engineResolver) registerVoiceGraph(m *synthmodule.Module) {
	r.voices = append(r.voices, m)
}

// ResolveSource implements modulation.Resolver.
func (r *engineResolver) ResolveSource(name string) (*graph.Output, bool) {
	if e, ok := r.sources[name]; ok {
		return e.output, true
	}
	for _, v := range r.voices {
		if o, ok := v.GetModulationSource(name); ok {
			return o, true
		}
	}
	return nil, false
}

// ResolveDestination implements modulation.Resolver. Destinations are
// only ever declared on voice graphs (filter cutoff, osc level, envelope
// times, ...); a name resolves to the Input of the first voice graph
// that declares it (its poly destination before its mono one). The
// other voice graphs' destinations of the same name are not returned.
func (r *engineResolver) ResolveDestination(name string) (*graph.Input, bool) {
	for _, v := range r.voices {
		if in, ok := v.GetModulationDestination(name, true); ok {
			return in, true
		}
		if in, ok := v.GetModulationDestination(name, false); ok {
			return in, true
		}
	}
	return nil, false
}

// SourceIsBipolar implements modulation.Resolver.
func (r *engineResolver) SourceIsBipolar(name string) bool {
	if e, ok := r.sources[name]; ok {
		return e.bipolar
	}
	return false
}

// SetModulationSwitch implements modulation.Resolver, fanning the switch
// out to every voice graph that declares destName (only the one that
// actually owns it will have any effect; the rest are harmless no-ops
// via synthmodule.Module.SetModulationSwitch's map-miss recursion).
func (r *engineResolver) SetModulationSwitch(destName string, on bool) {
	for _, v := range r.voices {
		v.SetModulationSwitch(destName, on)
	}
}
