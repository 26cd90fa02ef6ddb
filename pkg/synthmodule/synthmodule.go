// Package synthmodule implements SynthModule: a graph.Router that also
// knows how to declare parameters, modulation sources/destinations, and
// status outputs, the way every DSP component in the engine is built.
//
// Grounded on original_source/src/synthesis/framework/synth_module.h
// (vital's SynthModule/ModuleData), translated from a C++ class hierarchy
// with a shared_ptr<ModuleData> into a plain Go struct embedding
// graph.Router, and from vital's own poly_float-typed StatusOutput into
// this package's StatusOutput over pkg/poly.Float.
package synthmodule

import (
	"fmt"

	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/param"
	"github.com/wavecore/synth/pkg/poly"
)

// StatusOutput reports a module's current output value to a non-audio
// collaborator (e.g. a UI meter), sampled once per block rather than
// read sample-by-sample, grounded on vital's StatusOutput (synth_module.h).
type StatusOutput struct {
	source *graph.Output
	value  poly.Float
}

// NewStatusOutput wraps source, initially zero.
func NewStatusOutput(source *graph.Output) *StatusOutput {
	return &StatusOutput{source: source}
}

// Value returns the last-sampled value.
func (s *StatusOutput) Value() poly.Float { return s.value }

// Update samples the source's first sample this block, masked to the
// given voice's active lanes, mirroring vital's masked update() overload
// used when a status output is read per-voice rather than globally.
func (s *StatusOutput) Update(voiceMask poly.Mask) {
	if s.source == nil || len(s.source.Buffer()) == 0 {
		return
	}
	masked := poly.Select(voiceMask, s.source.Buffer()[0], poly.Zero())
	s.value = masked
}

// UpdateGlobal samples the source's first sample this block unmasked,
// mirroring vital's unmasked update() overload for mono status outputs.
func (s *StatusOutput) UpdateGlobal() {
	if s.source == nil || len(s.source.Buffer()) == 0 {
		return
	}
	s.value = s.source.Buffer()[0]
}

// ModulationSwitch gates whether a destination's modulation summing input
// is currently considered "live" — flipped by modulation.Bank.Connect/
// Disconnect via the Resolver contract, grounded on vital's ValueSwitch
// used the same way in getModulationSwitch/updateAllModulationSwitches.
type ModulationSwitch struct {
	On bool
}

// Data holds everything a SynthModule declares about itself, the Go
// analogue of vital's ModuleData (shared_ptr<ModuleData> in the original,
// here a plain embedded value since Go has no equivalent motivation for
// shared ownership across submodule clones).
type Data struct {
	Controls               map[string]*param.Value
	ModSources             map[string]*graph.Output
	StatusOutputs          map[string]*StatusOutput
	MonoModDestinations    map[string]*graph.Input
	PolyModDestinations    map[string]*graph.Input
	MonoModulationSwitches map[string]*ModulationSwitch
	PolyModulationSwitches map[string]*ModulationSwitch
	SubModules             []*Module
}

func newData() Data {
	return Data{
		Controls:               make(map[string]*param.Value),
		ModSources:             make(map[string]*graph.Output),
		StatusOutputs:          make(map[string]*StatusOutput),
		MonoModDestinations:    make(map[string]*graph.Input),
		PolyModDestinations:    make(map[string]*graph.Input),
		MonoModulationSwitches: make(map[string]*ModulationSwitch),
		PolyModulationSwitches: make(map[string]*ModulationSwitch),
	}
}

// Module is a graph.Router that also declares parameters and modulation
// endpoints, the unit every oscillator/filter/envelope/effect in the
// engine is built from, per spec.md §4.1's Processor contract plus §4.4's
// modulation-destination registration.
type Module struct {
	*graph.Router
	Name string
	data Data
}

// New creates a named Module with the given number of audio inputs/outputs
// (each sized at construction time; resized by the owning engine on block
// size or sample rate change).
func New(name string, numInputs, numOutputs, blockSize int) *Module {
	inputs := make([]*graph.Input, numInputs)
	for i := range inputs {
		inputs[i] = graph.NewInput(fmt.Sprintf("in_%d", i))
	}
	outputs := make([]*graph.Output, numOutputs)
	for i := range outputs {
		outputs[i] = graph.NewOutput(fmt.Sprintf("out_%d", i), blockSize)
	}
	return &Module{
		Router: graph.NewRouter(inputs, outputs),
		Name:   name,
		data:   newData(),
	}
}

// Controls returns every parameter this module (and its submodules)
// declared, mirroring vital's getControls() walking sub_modules.
func (m *Module) Controls() map[string]*param.Value {
	all := make(map[string]*param.Value, len(m.data.Controls))
	for k, v := range m.data.Controls {
		all[k] = v
	}
	for _, sub := range m.data.SubModules {
		for k, v := range sub.Controls() {
			all[k] = v
		}
	}
	return all
}

// AddSubmodule registers a child Module whose controls/mod sources are
// folded into this module's own lookups, grounded on vital's
// addSubmodule/sub_modules walk.
func (m *Module) AddSubmodule(sub *Module) {
	m.data.SubModules = append(m.data.SubModules, sub)
}

// CreateBaseControl declares a plain (non-modulatable) parameter, the
// Go analogue of vital's createBaseControl: a named param.Value with no
// associated summing node.
func (m *Module) CreateBaseControl(name string, scale param.Scale, defaultPlain float64) *param.Value {
	v := param.NewValue(name, scale, defaultPlain)
	m.data.Controls[name] = v
	return v
}

// CreateMonoModControl declares a parameter that can be modulated
// monophonically: the smoothed control value plus a summing Output any
// number of modulation Connections can add into, grounded on vital's
// createMonoModControl (the Output it returns is the "modulated value"
// signal, which is what destinations downstream actually read).
func (m *Module) CreateMonoModControl(name string, scale param.Scale, defaultPlain float64, blockSize int) (*param.Value, *graph.Output) {
	v := m.CreateBaseControl(name, scale, defaultPlain)
	sum := newSummingControl(name, v, blockSize)
	m.AddProcessor(sum)
	out := sum.Output(name)
	m.data.MonoModDestinations[name] = sum.Input("modulation")
	m.data.MonoModulationSwitches[name] = &ModulationSwitch{}
	return v, out
}

// CreatePolyModControl declares a parameter that can be modulated both
// monophonically and polyphonically (i.e. per-voice), grounded on vital's
// createPolyModControl. The poly destination input is distinct from the
// mono one so per-voice modulation connections do not collide with
// global ones; its contribution is summed on top of the mono control's
// output by an adderNode rather than re-applying the base parameter
// value a second time.
func (m *Module) CreatePolyModControl(name string, scale param.Scale, defaultPlain float64, blockSize int) (*param.Value, *graph.Output) {
	v, monoOut := m.CreateMonoModControl(name, scale, defaultPlain, blockSize)

	polyName := name + "_poly"
	polySum := newModSumNode(polyName, blockSize)
	m.AddProcessor(polySum)
	m.data.PolyModDestinations[name] = polySum.Input("modulation")
	m.data.PolyModulationSwitches[name] = &ModulationSwitch{}

	combined := newAdderNode(name+"_combined", blockSize)
	combined.Input("a").Connect(monoOut)
	combined.Input("b").Connect(polySum.Output(polyName))
	m.AddProcessor(combined)

	return v, combined.Output(name + "_combined")
}

// CreateStatusOutput registers source under name for external monitoring,
// grounded on vital's createStatusOutput.
func (m *Module) CreateStatusOutput(name string, source *graph.Output) *StatusOutput {
	s := NewStatusOutput(source)
	m.data.StatusOutputs[name] = s
	return s
}

// GetModulationSource looks up a registered modulation source Output by
// name, grounded on vital's getModulationSource.
func (m *Module) GetModulationSource(name string) (*graph.Output, bool) {
	if o, ok := m.data.ModSources[name]; ok {
		return o, true
	}
	for _, sub := range m.data.SubModules {
		if o, ok := sub.GetModulationSource(name); ok {
			return o, true
		}
	}
	return nil, false
}

// RegisterModulationSource exposes output as a modulation source under
// name, the registration half of getModulationSource's lookup contract.
func (m *Module) RegisterModulationSource(name string, output *graph.Output) {
	m.data.ModSources[name] = output
}

// GetModulationDestination looks up a registered mono or poly destination
// summing Input by name, grounded on vital's
// getMonoModulationDestination/getPolyModulationDestination.
func (m *Module) GetModulationDestination(name string, isPoly bool) (*graph.Input, bool) {
	var table map[string]*graph.Input
	if isPoly {
		table = m.data.PolyModDestinations
	} else {
		table = m.data.MonoModDestinations
	}
	if in, ok := table[name]; ok {
		return in, true
	}
	for _, sub := range m.data.SubModules {
		if in, ok := sub.GetModulationDestination(name, isPoly); ok {
			return in, true
		}
	}
	return nil, false
}

// GetStatusOutput looks up a registered StatusOutput by name.
func (m *Module) GetStatusOutput(name string) (*StatusOutput, bool) {
	if s, ok := m.data.StatusOutputs[name]; ok {
		return s, true
	}
	for _, sub := range m.data.SubModules {
		if s, ok := sub.GetStatusOutput(name); ok {
			return s, true
		}
	}
	return nil, false
}

// SetModulationSwitch flips the mono (or, if no mono destination exists,
// poly) switch for destName, implementing the write side of
// modulation.Resolver, grounded on vital's updateAllModulationSwitches.
func (m *Module) SetModulationSwitch(destName string, on bool) {
	if sw, ok := m.data.MonoModulationSwitches[destName]; ok {
		sw.On = on
		return
	}
	if sw, ok := m.data.PolyModulationSwitches[destName]; ok {
		sw.On = on
		return
	}
	for _, sub := range m.data.SubModules {
		sub.SetModulationSwitch(destName, on)
	}
}
