// Package oversample implements the engine's internal oversampling:
// a polyphase FIR upsampler and half-band FIR downsampler running the
// voice graph and effects chain at an integer multiple of the host's
// sample rate, per spec.md §4.6.
//
// Grounded on pkg/dsp/interpolation's windowed-sinc design (teacher),
// generalized from a single fractional-delay interpolator into the fixed-
// factor polyphase filter bank an oversampler needs, with tap counts
// spec.md §4.6 names explicitly (52-tap upsample / 55-tap downsample).
package oversample

import "math"

// Factor is the internal-to-host sample-rate multiplier, restricted to
// the four values spec.md §4.6 allows.
type Factor int

const (
	Factor1 Factor = 1
	Factor2 Factor = 2
	Factor4 Factor = 4
	Factor8 Factor = 8
)

// UpsampleTaps and DownsampleTaps are the FIR lengths spec.md §4.6 names
// explicitly.
const (
	UpsampleTaps   = 52
	DownsampleTaps = 55
)

// maxBufferSize bounds the combined host_rate * oversample buffer size,
// per spec.md §4.6's "internal buffers never exceed kMaxBufferSize × 8".
const maxBufferSize = 8192

// Processor upsamples a host-rate block to internal rate, lets the
// caller run the voice/effects graph at that rate, then downsamples back.
// Changing Factor or the host sample rate requires HardReset, matching
// spec.md §7's "Oversample/sample-rate change mid-block: not allowed."
type Processor struct {
	factor      Factor
	hostRate    float64
	upTaps      []float64
	downTaps    []float64
	upHistory   []float64
	downHistory []float64
}

// New creates a Processor at the given host sample rate and factor.
func New(hostRate float64, factor Factor) *Processor {
	p := &Processor{}
	p.HardReset(hostRate, factor)
	return p
}

// HardReset recomputes the polyphase filter coefficients for a new host
// rate/factor pair and clears all FIR history, per spec.md §4.6's "hard
// reset of rate-dependent processors."
func (p *Processor) HardReset(hostRate float64, factor Factor) {
	p.hostRate = hostRate
	p.factor = factor
	p.upTaps = windowedSincLowpass(UpsampleTaps, 1.0/float64(factor))
	p.downTaps = windowedSincLowpass(DownsampleTaps, 1.0/float64(factor))
	p.upHistory = make([]float64, UpsampleTaps)
	p.downHistory = make([]float64, DownsampleTaps)
}

// Factor returns the current oversample factor.
func (p *Processor) Factor() Factor { return p.factor }

// InternalBlockSize returns the internal-rate block size for a given
// host-rate block size, clamped to the engine's maximum internal buffer
// size per spec.md §4.6.
func (p *Processor) InternalBlockSize(hostBlockSize int) int {
	n := hostBlockSize * int(p.factor)
	if n > maxBufferSize {
		n = maxBufferSize
	}
	return n
}

// Upsample fills internalOut (length hostIn*factor) from hostIn by
// zero-stuffing followed by polyphase FIR lowpass filtering (the standard
// interpolation-by-zero-insertion-then-filter structure).
func (p *Processor) Upsample(hostIn []float64, internalOut []float64) {
	factor := int(p.factor)
	if factor == 1 {
		copy(internalOut, hostIn)
		return
	}
	for i, x := range hostIn {
		for k := 0; k < factor; k++ {
			idx := i*factor + k
			if idx >= len(internalOut) {
				break
			}
			sample := 0.0
			if k == 0 {
				sample = x
			}
			internalOut[idx] = p.firStep(p.upTaps, p.upHistory, sample) * float64(factor)
		}
	}
}

// Downsample fills hostOut (length internalIn/factor) by polyphase FIR
// lowpass filtering internalIn followed by decimation.
func (p *Processor) Downsample(internalIn []float64, hostOut []float64) {
	factor := int(p.factor)
	if factor == 1 {
		copy(hostOut, internalIn)
		return
	}
	outIdx := 0
	for i, x := range internalIn {
		filtered := p.firStep(p.downTaps, p.downHistory, x)
		if i%factor == 0 && outIdx < len(hostOut) {
			hostOut[outIdx] = filtered
			outIdx++
		}
	}
}

// firStep shifts x into history and returns the FIR convolution with
// taps, the direct-form-I structure the teacher's delay lines already use
// elsewhere (pkg/dsp/delay.Line).
func (p *Processor) firStep(taps []float64, history []float64, x float64) float64 {
	copy(history[1:], history[:len(history)-1])
	history[0] = x

	sum := 0.0
	for i, t := range taps {
		if i < len(history) {
			sum += t * history[i]
		}
	}
	return sum
}

// windowedSincLowpass generates a Blackman-windowed sinc lowpass FIR with
// the given tap count and normalized cutoff (fraction of Nyquist),
// grounded on pkg/dsp/interpolation.Sinc's Blackman-windowed sinc
// approach, generalized from a fractional-delay kernel to a fixed
// lowpass coefficient set computed once at construction/HardReset time.
func windowedSincLowpass(taps int, cutoff float64) []float64 {
	coeffs := make([]float64, taps)
	center := float64(taps-1) / 2.0
	sum := 0.0
	for i := 0; i < taps; i++ {
		x := float64(i) - center
		var sinc float64
		if x == 0 {
			sinc = cutoff
		} else {
			sinc = math.Sin(math.Pi*cutoff*x) / (math.Pi * x)
		}
		w := 0.42 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(taps-1)) +
			0.08*math.Cos(4*math.Pi*float64(i)/float64(taps-1))
		coeffs[i] = sinc * w
		sum += coeffs[i]
	}
	if sum != 0 {
		for i := range coeffs {
			coeffs[i] /= sum
		}
	}
	return coeffs
}
