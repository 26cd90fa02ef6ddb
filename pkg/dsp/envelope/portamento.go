package envelope

import "math"

// MinPortamentoTime is the glide time below which Portamento bypasses
// straight to the target note, grounded on
// original_source/src/synthesis/utilities/portamento_slope.cpp's
// kMinPortamentoTime.
const MinPortamentoTime = 0.001

const notesPerOctave = 12.0

// Portamento glides a monophonic voice's note value from a source note to
// a target note over a settable time, grounded on
// original_source/src/synthesis/utilities/portamento_slope.{h,cpp}. It
// backs spec.md §4.7's PortamentoSlope leaf, whose "force"/"scale" flags
// the distillation names without detail:
//
//   - force: when false (the default), a glide only starts if a note was
//     already held when the new one arrived (legato); the very first note
//     out of silence jumps straight to its target with no glide. When
//     true, every new note glides from the previous target regardless of
//     how many notes were held.
//   - scale: when true, the configured glide time is scaled by the size
//     of the interval being crossed (in octaves), so a minor second
//     glides faster than an octave leap at the same nominal time.
type Portamento struct {
	sampleRate float64

	time       float64
	force      bool
	scale      bool
	slopePower float64

	position float64
	source   float64
	target   float64
}

// NewPortamento returns a Portamento with glide disabled (time 0, so
// Process always bypasses to the target note) until SetTime is called.
func NewPortamento(sampleRate float64) *Portamento {
	return &Portamento{sampleRate: sampleRate}
}

// SetTime sets the nominal glide duration in seconds.
func (p *Portamento) SetTime(seconds float64) { p.time = seconds }

// SetForce sets the force flag (see type doc).
func (p *Portamento) SetForce(force bool) { p.force = force }

// SetScale sets the scale flag (see type doc).
func (p *Portamento) SetScale(scale bool) { p.scale = scale }

// SetSlopePower sets the glide's ease curve exponent; 0 is linear, positive
// values bow the glide toward the target (matching futils::powerScale's
// sign convention of negating the configured power before applying it).
func (p *Portamento) SetSlopePower(power float64) { p.slopePower = power }

// Start begins a glide from the voice's current note toward targetNote.
// numNotesPressed is the number of notes currently held, including the one
// that just triggered this call; the legato (non-force) rule only starts
// a glide when more than one note is held.
func (p *Portamento) Start(targetNote float64, numNotesPressed int) {
	if p.force || numNotesPressed > 1 {
		p.position = 0.0
	} else {
		p.position = 1.0
	}
	p.source = p.target
	p.target = targetNote
}

// Seed sets both the source and target note with no glide in progress,
// for a voice's very first note.
func (p *Portamento) Seed(note float64) {
	p.source = note
	p.target = note
	p.position = 1.0
}

// Process advances the glide by numSamples and returns the current note
// value. Once time is at or below MinPortamentoTime, it bypasses straight
// to the target, matching processBypass's immediate-jump behavior.
func (p *Portamento) Process(numSamples int) float64 {
	if p.time <= MinPortamentoTime {
		p.position = 1.0
		return p.target
	}

	runSeconds := p.time
	if p.scale {
		delta := math.Abs(p.target - p.source)
		runSeconds *= delta / notesPerOctave
	}
	if runSeconds <= MinPortamentoTime {
		p.position = 1.0
		return p.target
	}

	delta := float64(numSamples) / (runSeconds * p.sampleRate)
	p.position = clamp01(p.position + delta)

	adjusted := powerScale(p.position, -p.slopePower)
	return p.source + (p.target-p.source)*adjusted
}

// Done reports whether the glide has reached its target.
func (p *Portamento) Done() bool { return p.position >= 1.0 }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// powerScale bows a [0,1] position by power, matching futils::powerScale:
// power 0 is the identity (linear), positive power bows the curve toward
// finishing late, negative power toward finishing early.
func powerScale(position, power float64) float64 {
	if power == 0 {
		return position
	}
	denom := 1.0 - math.Exp(power)
	if denom == 0 {
		return position
	}
	return (1.0 - math.Exp(power*position)) / denom
}
