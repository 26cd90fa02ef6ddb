package engine

import (
	dsplfo "github.com/wavecore/synth/pkg/dsp/modulation"
	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/poly"
)

// lfoSourceNode runs one dsp/modulation.LFO and broadcasts its mono value
// to every poly lane, backing the lfo_1..lfo_8 modulation sources
// (spec.md §6's source name list), grounded on the
// teacher's LFO generalized from a per-channel modulation effect into a
// global modulation-matrix source.
type lfoSourceNode struct {
	graph.Base
	lfo *dsplfo.LFO
}

func newLFOSourceNode(name string, sampleRate float64, waveform dsplfo.Waveform, blockSize int) *lfoSourceNode {
	n := &lfoSourceNode{lfo: dsplfo.NewLFO(sampleRate)}
	n.lfo.SetWaveform(waveform)
	n.Base = graph.NewBase(nil, []*graph.Output{graph.NewOutput(name, blockSize)})
	return n
}

func (n *lfoSourceNode) Process(numSamples int) {
	out := n.Output(n.Outputs()[0].Name).Buffer()
	for i := 0; i < numSamples; i++ {
		v := float32(n.lfo.Process())
		out[i] = poly.Splat(v)
	}
}

func (n *lfoSourceNode) Reset() { n.lfo.Reset() }

// SetFrequency passes through to the underlying LFO.
func (n *lfoSourceNode) SetFrequency(hz float64) { n.lfo.SetFrequency(hz) }

// randomSourceNode runs one dsp/modulation.RandomLFO, backing the
// random_1..random_4 modulation sources with the four aperiodic styles
// (Perlin, SampleAndHold, SinInterpolate, LorenzAttractor) spec.md §4.7
// names without detail, grounded on SPEC_FULL.md §11's random_lfo.cpp
// reconstruction rather than reusing LFO's plain sample-and-hold waveform.
type randomSourceNode struct {
	graph.Base
	random *dsplfo.RandomLFO
}

func newRandomSourceNode(name string, sampleRate float64, style dsplfo.RandomStyle, blockSize int) *randomSourceNode {
	n := &randomSourceNode{random: dsplfo.NewRandomLFO(sampleRate)}
	n.random.SetStyle(style)
	n.Base = graph.NewBase(nil, []*graph.Output{graph.NewOutput(name, blockSize)})
	return n
}

func (n *randomSourceNode) Process(numSamples int) {
	out := n.Output(n.Outputs()[0].Name).Buffer()
	for i := 0; i < numSamples; i++ {
		v := float32(n.random.Process())
		out[i] = poly.Splat(v)
	}
}

func (n *randomSourceNode) Reset() { n.random.Reset() }

// SetFrequency passes through to the underlying RandomLFO.
func (n *randomSourceNode) SetFrequency(hz float64) { n.random.SetFrequency(hz) }

// SetStyle passes through to the underlying RandomLFO.
func (n *randomSourceNode) SetStyle(s dsplfo.RandomStyle) { n.random.SetStyle(s) }

// scalarSource is a modulation source with no DSP behavior of its own: a
// plain Output the engine writes a single broadcast value into once per
// block (velocity, aftertouch, mod_wheel, pitch_wheel, macro controls,
// and the fixed note/note_in_octave/stereo/lift/slide sources), mirroring
// vital's mono control-rate modulation sources that are just "whatever
// the host/MIDI layer last reported," with no internal state machine.
type scalarSource struct {
	output *graph.Output
}

func newScalarSource(name string, blockSize int) *scalarSource {
	return &scalarSource{output: graph.NewOutput(name, blockSize)}
}

// Set broadcasts v to every sample/lane of the source's buffer for the
// current block.
func (s *scalarSource) Set(v float32) {
	value := poly.Splat(v)
	buf := s.output.Buffer()
	for i := range buf {
		buf[i] = value
	}
}

// SetLanes writes distinct per-lane values (used for "stereo", which is
// -1 on left lanes and +1 on right lanes).
func (s *scalarSource) SetLanes(v poly.Float) {
	buf := s.output.Buffer()
	for i := range buf {
		buf[i] = v
	}
}

func (s *scalarSource) Output() *graph.Output { return s.output }
