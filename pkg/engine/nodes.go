package engine

import (
	"github.com/wavecore/synth/pkg/dsp/envelope"
	"github.com/wavecore/synth/pkg/dsp/filter"
	"github.com/wavecore/synth/pkg/dsp/oscillator"
	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/poly"
)

// oscillatorNode runs four independent oscillator.Oscillator instances,
// one per poly lane, so a single AggregateVoice (two voices x stereo)
// gets independent phase accumulators per lane while still producing a
// single packed poly.Float stream, grounded on the adapter pattern in
// pkg/framework/dsp/adapters.go generalized from mono buffer-at-a-time
// processing to four parallel lanes.
type oscillatorNode struct {
	graph.Base
	oscs     [poly.Lanes]*oscillator.Oscillator
	waveform Waveform
}

// Waveform selects which oscillator.Oscillator waveform method a node
// calls each sample.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

func newOscillatorNode(sampleRate float64, wave Waveform, blockSize int) *oscillatorNode {
	n := &oscillatorNode{waveform: wave}
	for i := range n.oscs {
		n.oscs[i] = oscillator.New(sampleRate)
	}
	n.Base = graph.NewBase(
		[]*graph.Input{graph.NewInput("frequency")},
		[]*graph.Output{graph.NewOutput("out", blockSize)},
	)
	return n
}

func (n *oscillatorNode) Process(numSamples int) {
	freq := n.Input("frequency")
	out := n.Output("out").Buffer()
	for i := 0; i < numSamples; i++ {
		f := freq.At(i)
		var sample poly.Float
		for lane := 0; lane < poly.Lanes; lane++ {
			n.oscs[lane].SetFrequency(float64(f[lane]))
			sample[lane] = n.nextSample(lane)
		}
		out[i] = sample
	}
}

func (n *oscillatorNode) nextSample(lane int) float32 {
	switch n.waveform {
	case WaveSaw:
		return n.oscs[lane].Saw()
	case WaveSquare:
		return n.oscs[lane].Square()
	case WaveTriangle:
		return n.oscs[lane].Triangle()
	default:
		return n.oscs[lane].Sine()
	}
}

func (n *oscillatorNode) Reset() {
	for _, o := range n.oscs {
		o.Reset()
	}
}

// envelopeNode runs four independent envelope.ADSR instances, one per
// lane, driven by per-lane Trigger/Release calls from the voice
// scheduler rather than a shared input signal.
type envelopeNode struct {
	graph.Base
	envs [poly.Lanes]*envelope.ADSR
	last [poly.Lanes]float32
}

func newEnvelopeNode(sampleRate float64, blockSize int) *envelopeNode {
	n := &envelopeNode{}
	for i := range n.envs {
		n.envs[i] = envelope.New(sampleRate)
	}
	n.Base = graph.NewBase(nil, []*graph.Output{graph.NewOutput("out", blockSize)})
	return n
}

func (n *envelopeNode) Process(numSamples int) {
	out := n.Output("out").Buffer()
	for i := 0; i < numSamples; i++ {
		var sample poly.Float
		for lane := 0; lane < poly.Lanes; lane++ {
			sample[lane] = n.envs[lane].Next()
			n.last[lane] = sample[lane]
		}
		out[i] = sample
	}
}

func (n *envelopeNode) Reset() {
	for _, e := range n.envs {
		e.Reset()
	}
}

// Trigger starts the attack stage on one lane, called by the voice
// scheduler when a Voice transitions Triggering -> Held.
func (n *envelopeNode) Trigger(lane int) { n.envs[lane].Trigger() }

// Release starts the release stage on one lane, called on Held/Sustained
// -> Released.
func (n *envelopeNode) Release(lane int) { n.envs[lane].Release() }

// IsActive reports whether a lane's envelope is still running (has not
// yet reached idle), the voice-killer reference output per spec.md §4.3.
func (n *envelopeNode) IsActive(lane int) bool { return n.envs[lane].IsActive() }

// Level returns the lane's last-produced envelope value without
// advancing it, used as the voice.KillerSource reference output per
// spec.md §4.3.
func (n *envelopeNode) Level(lane int) float64 {
	return float64(n.last[lane])
}

// filterNode wraps a multi-channel filter.SVF, one channel per lane,
// applying a single lowpass cutoff/resonance shared across lanes (the
// per-voice cutoff modulation comes from the cutoff control's own
// modulation sum, already folded into the "cutoff" input before this
// node runs).
type filterNode struct {
	graph.Base
	svf        *filter.SVF
	sampleRate float64
}

func newFilterNode(sampleRate float64, blockSize int) *filterNode {
	n := &filterNode{svf: filter.NewSVF(poly.Lanes), sampleRate: sampleRate}
	n.Base = graph.NewBase(
		[]*graph.Input{graph.NewInput("in"), graph.NewInput("cutoff"), graph.NewInput("resonance")},
		[]*graph.Output{graph.NewOutput("out", blockSize)},
	)
	return n
}

func (n *filterNode) Process(numSamples int) {
	in := n.Input("in")
	cutoff := n.Input("cutoff")
	resonance := n.Input("resonance")
	out := n.Output("out").Buffer()

	for i := 0; i < numSamples; i++ {
		x := in.At(i)
		cut := cutoff.At(i)
		q := resonance.At(i)
		var sample poly.Float
		for lane := 0; lane < poly.Lanes; lane++ {
			n.svf.SetFrequencyAndQ(n.sampleRate, float64(cut[lane]), float64(q[lane]))
			outs := n.svf.ProcessSample(x[lane], lane)
			sample[lane] = outs.Lowpass
		}
		out[i] = sample
	}
}

func (n *filterNode) Reset() { n.svf.Reset() }

// gainNode scales its input by a smoothed parameter each sample, the
// shared shape behind both per-voice amplitude and the master output gain.
type gainNode struct {
	graph.Base
}

func newGainNode(blockSize int) *gainNode {
	n := &gainNode{}
	n.Base = graph.NewBase(
		[]*graph.Input{graph.NewInput("in"), graph.NewInput("gain")},
		[]*graph.Output{graph.NewOutput("out", blockSize)},
	)
	return n
}

func (n *gainNode) Process(numSamples int) {
	in := n.Input("in")
	gain := n.Input("gain")
	out := n.Output("out").Buffer()
	for i := 0; i < numSamples; i++ {
		out[i] = in.At(i).Mul(gain.At(i))
	}
}

func (n *gainNode) Reset() {}
