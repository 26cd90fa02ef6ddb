package modulation

import "math"

// RandomStyle selects the generation algorithm a RandomLFO samples from,
// grounded on original_source/src/synthesis/modulators/random_lfo.h's
// RandomType enum.
type RandomStyle int

const (
	// RandomPerlin interpolates between successive random held values with
	// a smoothstep-shaped ease curve, the way Perlin noise eases between
	// lattice points.
	RandomPerlin RandomStyle = iota
	// RandomSampleAndHold jumps discretely to a new random value once per
	// cycle with no interpolation.
	RandomSampleAndHold
	// RandomSinInterpolate interpolates between successive random held
	// values along a sine ease curve instead of Perlin's smoothstep.
	RandomSinInterpolate
	// RandomLorenzAttractor drives the output from the x-coordinate of a
	// continuously-integrated Lorenz system, producing chaotic but smooth
	// wandering motion rather than a held-and-interpolated sequence.
	RandomLorenzAttractor
)

// Lorenz system constants, ground truth from random_lfo.cpp's anonymous
// namespace: the classic Lorenz '63 parameters. lorenzScale maps the
// x-coordinate's natural wandering range (about ±20) onto roughly
// [-0.5, 0.5], which processLorenz then offsets onto [0, 1].
const (
	lorenzInitial3 = 37.6
	lorenzA        = 10.0
	lorenzB        = 28.0
	lorenzC        = 8.0 / 3.0
	lorenzSize     = 40.0
	lorenzScale    = 1.0 / lorenzSize
	lorenzMaxFreq  = 0.01
)

// RandomLFO produces a slowly-wandering unipolar [0, 1] modulation signal
// from one of four styles, grounded on
// original_source/src/synthesis/modulators/random_lfo.cpp. Unlike LFO's
// periodic waveforms, every style here is aperiodic: Perlin/SinInterpolate
// ease between freshly drawn random targets, SampleAndHold jumps between
// them, and LorenzAttractor never repeats at all.
type RandomLFO struct {
	sampleRate float64
	frequency  float64
	style      RandomStyle
	rng        func() float64

	phase    float64
	lastRand float64
	nextRand float64
	lastOut  float64

	x, y, z float64
}

// NewRandomLFO builds a RandomLFO seeded with the standard library's
// math/rand-free linear congruential source used elsewhere in this package
// (see randFloat in lfo.go), kept dependency-free the way the teacher's own
// modulation sources are.
func NewRandomLFO(sampleRate float64) *RandomLFO {
	r := &RandomLFO{
		sampleRate: sampleRate,
		frequency:  1.0,
		rng:        randFloat,
	}
	r.lastRand = 2.0*r.rng() - 1.0
	r.nextRand = 2.0*r.rng() - 1.0
	r.x, r.y, r.z = 0.0, 0.0, lorenzInitial3
	r.lastOut = r.lastRand*0.5 + 0.5
	return r
}

// SetFrequency sets the cycle rate for Perlin/SampleAndHold/SinInterpolate
// and the (capped) integration rate for LorenzAttractor.
func (r *RandomLFO) SetFrequency(hz float64) { r.frequency = hz }

// SetStyle selects the generation algorithm.
func (r *RandomLFO) SetStyle(s RandomStyle) { r.style = s }

// Reset reinitializes phase and chaotic state, the way doReset/Lorenz's
// reset_mask branch reseeds on a new voice trigger.
func (r *RandomLFO) Reset() {
	r.phase = 0
	r.lastRand = 2.0*r.rng() - 1.0
	r.nextRand = 2.0*r.rng() - 1.0
	r.lastOut = r.lastRand*0.5 + 0.5
	r.x, r.y, r.z = 0.0, 0.0, lorenzInitial3
}

// Process advances the generator by one sample and returns the next
// unipolar [0, 1] output value.
func (r *RandomLFO) Process() float64 {
	switch r.style {
	case RandomLorenzAttractor:
		return r.processLorenz()
	case RandomSampleAndHold:
		return r.processSampleAndHold()
	default:
		return r.processInterpolated()
	}
}

func (r *RandomLFO) advancePhase() {
	if r.sampleRate <= 0 {
		return
	}
	delta := r.frequency / r.sampleRate
	r.phase += delta
	if r.phase >= 1.0 {
		r.phase -= math.Floor(r.phase)
		r.lastRand = r.nextRand
		r.nextRand = 2.0*r.rng() - 1.0
	}
}

func (r *RandomLFO) processInterpolated() float64 {
	r.advancePhase()

	var eased float64
	switch r.style {
	case RandomSinInterpolate:
		eased = sinInterpolate(r.lastRand, r.nextRand, r.phase)
	default:
		eased = perlinInterpolate(r.lastRand, r.nextRand, r.phase)
	}

	out := eased*0.5 + 0.5
	r.lastOut = out
	return out
}

func (r *RandomLFO) processSampleAndHold() float64 {
	r.advancePhase()
	out := r.lastRand*0.5 + 0.5
	r.lastOut = out
	return out
}

func (r *RandomLFO) processLorenz() float64 {
	t := math.Min(lorenzMaxFreq, r.frequency*0.5/math.Max(r.sampleRate, 1.0))

	dx := (r.y - r.x) * lorenzA
	dy := (-r.z+lorenzB)*r.x - r.y
	dz := r.x*r.y - r.z*lorenzC
	r.x += dx * t
	r.y += dy * t
	r.z += dz * t

	out := r.x*lorenzScale + 0.5
	r.lastOut = out
	return out
}

// perlinInterpolate eases between a and b along a smoothstep curve
// (3t^2 - 2t^3), matching utils::perlinInterpolate's ease shape.
func perlinInterpolate(a, b, t float64) float64 {
	ease := t * t * (3.0 - 2.0*t)
	return a + (b-a)*ease
}

// sinInterpolate eases between a and b along a raised-cosine curve,
// matching futils::sinInterpolate's ease shape.
func sinInterpolate(a, b, t float64) float64 {
	ease := 0.5 - 0.5*math.Cos(t*math.Pi)
	return a + (b-a)*ease
}
