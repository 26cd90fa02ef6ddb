package engine

import (
	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/param"
	"github.com/wavecore/synth/pkg/poly"
	"github.com/wavecore/synth/pkg/synthmodule"
)

// voiceGraph is the per-AggregateVoice SubGraph: oscillator -> filter ->
// envelope-controlled gain, wired as a synthmodule.Module so its
// parameters (osc_*_level, filter_*_cutoff, env_*_attack, ...) register
// in the engine-wide param.Catalog the way every other component does.
//
// Grounded on examples/simplesynth's single-oscillator-plus-envelope
// voice chain (deleted per DESIGN.md, logic generalized here rather than
// lost), restructured onto the graph.Router/poly.Float contract instead
// of the VST3 ABI buffer shape it originally processed.
type voiceGraph struct {
	*synthmodule.Module

	noteFreq *graph.Output // written directly by the engine each block
	osc      *oscillatorNode
	filt     *filterNode
	env      *envelopeNode
	ampGain  *gainNode

	// Out is the voice's final output buffer, read directly by the engine
	// when summing all AggregateVoices into the effects chain input
	// (the Module's own Router-level Outputs are left empty since this
	// module has no declared audio outputs of its own — see newVoiceGraph).
	Out *graph.Output

	levelParam *param.Value
}

func newVoiceGraph(index int, sampleRate float64, blockSize int) *voiceGraph {
	name := moduleName("voice", index)
	m := synthmodule.New(name, 0, 0, blockSize)

	vg := &voiceGraph{Module: m}
	vg.noteFreq = graph.NewOutput("note_freq", blockSize)

	vg.osc = newOscillatorNode(sampleRate, WaveSaw, blockSize)
	vg.osc.Input("frequency").Connect(vg.noteFreq)
	m.AddProcessor(vg.osc)

	_, cutoffOut := m.CreatePolyModControl(paramName("filter", index, "cutoff"), param.Exponential{Min: 20, Max: 20000}, 2000, blockSize)
	_, resonanceOut := m.CreatePolyModControl(paramName("filter", index, "resonance"), param.Linear{Min: 0.5, Max: 10}, 0.7, blockSize)

	vg.filt = newFilterNode(sampleRate, blockSize)
	vg.filt.Input("in").Connect(vg.osc.Output("out"))
	vg.filt.Input("cutoff").Connect(cutoffOut)
	vg.filt.Input("resonance").Connect(resonanceOut)
	m.AddProcessor(vg.filt)

	vg.env = newEnvelopeNode(sampleRate, blockSize)
	m.AddProcessor(vg.env)

	vg.levelParam, levelOut := m.CreateMonoModControl(paramName("osc", index, "level"), param.Linear{Min: 0, Max: 1}, 0.8, blockSize)

	envGain := newGainNode(blockSize)
	envGain.Input("in").Connect(vg.filt.Output("out"))
	envGain.Input("gain").Connect(vg.env.Output("out"))
	m.AddProcessor(envGain)

	vg.ampGain = newGainNode(blockSize)
	vg.ampGain.Input("in").Connect(envGain.Output("out"))
	vg.ampGain.Input("gain").Connect(levelOut)
	m.AddProcessor(vg.ampGain)

	vg.Out = vg.ampGain.Output("out")

	return vg
}

// moduleName builds a submodule's display name, e.g. "voice_0".
func moduleName(prefix string, index int) string {
	return prefix + "_" + itoa(index)
}

// paramName builds a namespaced parameter name per spec.md §6's
// convention, e.g. "filter_1_cutoff" (1-indexed to match the external
// interface's documented examples).
func paramName(prefix string, index int, suffix string) string {
	return prefix + "_" + itoa(index+1) + "_" + suffix
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// trigger starts this voice's envelope on the given lane.
func (vg *voiceGraph) trigger(lane int) { vg.env.Trigger(lane) }

// release starts this voice's envelope release stage on the given lane.
func (vg *voiceGraph) release(lane int) { vg.env.Release(lane) }

// killerLevel reports the lane's current envelope amplitude, the
// voice.KillerSource reference output.
func (vg *voiceGraph) killerLevel(lane int) float64 { return vg.env.Level(lane) }

// setFrequencies writes this block's per-lane oscillator frequency
// directly into the voice graph's note source, bypassing the smoothed
// parameter path since MIDI note numbers are discrete events rather than
// continuously modulated controls (spec.md §4.3's per-voice pitch is
// driven by the voice scheduler, not the modulation matrix).
func (vg *voiceGraph) setFrequencies(freqs poly.Float) {
	buf := vg.noteFreq.Buffer()
	for i := range buf {
		buf[i] = freqs
	}
}
