// Package modulation implements the fixed 64-slot modulation-routing
// matrix: the Connection transform (clamp -> remap -> bipolar -> power
// curve -> amount/destination/stereo scale) and the Bank that allocates,
// connects, and disconnects slots under the control-thread/audio-thread
// split spec.md §5 requires.
//
// Grounded on original_source/src/synthesis/modulators and
// effects_engine/effects_modulation_handler.cpp, since the teacher
// (justyntemme/vst3go) has no modulation matrix of its own — its examples
// wire parameters directly. Rendered in the teacher's graph.Processor idiom.
package modulation

import (
	"math"

	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/poly"
)

// RemapCurve is an optional 1-D lookup table applied to the source value
// before the bipolar/power transform, the Go rendition of spec.md §4.4's
// "remap_line(x)" cubic-interpolated LUT.
type RemapCurve struct {
	// Points holds R equally spaced samples over [0,1]; Lookup performs
	// Catmull-Rom interpolation between them, mirroring pkg/dsp/delay's
	// ring-buffer interpolation style used elsewhere in the teacher's
	// leaf processors.
	Points []float64
}

// Lookup interpolates the curve at x in [0,1].
func (c RemapCurve) Lookup(x float64) float64 {
	n := len(c.Points)
	if n == 0 {
		return x
	}
	if n == 1 {
		return c.Points[0]
	}
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}

	pos := x * float64(n-1)
	i0 := int(math.Floor(pos))
	if i0 >= n-1 {
		return c.Points[n-1]
	}
	frac := pos - float64(i0)

	get := func(i int) float64 {
		if i < 0 {
			i = 0
		}
		if i > n-1 {
			i = n - 1
		}
		return c.Points[i]
	}

	p0, p1, p2, p3 := get(i0-1), get(i0), get(i0+1), get(i0+2)
	return catmullRom(p0, p1, p2, p3, frac)
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// Connection is one slot's wiring: a source name, a destination name, and
// the ModulationConnectionProcessor that transforms the source signal into
// the destination's units each block. An empty SourceName/DestName pair
// means the slot is free, per spec.md §3's "slot is free iff both names
// empty" invariant.
type Connection struct {
	graph.Base

	SourceName string
	DestName   string

	Bipolar  bool
	Stereo   bool
	Remap    *RemapCurve
	Power    float64 // powerScale exponent; 0 = linear passthrough
	DestMin  float64
	DestMax  float64

	amount *graph.Input
	source *graph.Input

	scaled          *graph.Output
	preScale        *graph.Output
	sourcePassthrough *graph.Output
}

// NewConnection constructs an unwired Connection with the I/O slots
// spec.md §4.4 names: inputs {source_output, amount}, outputs
// {scaled, pre_scale, source_passthrough}. blockSize sizes the audio-rate
// output buffers.
func NewConnection(blockSize int) *Connection {
	source := graph.NewInput("source")
	amount := graph.NewInput("amount")
	scaled := graph.NewOutput("scaled", blockSize)
	preScale := graph.NewOutput("pre_scale", blockSize)
	passthrough := graph.NewOutput("source_passthrough", blockSize)

	c := &Connection{
		source:            source,
		amount:            amount,
		scaled:            scaled,
		preScale:          preScale,
		sourcePassthrough: passthrough,
		DestMin:           0,
		DestMax:           1,
	}
	c.Base = graph.NewBase(
		[]*graph.Input{source, amount},
		[]*graph.Output{scaled, preScale, passthrough},
	)
	return c
}

// IsFree reports whether this slot holds no connection.
func (c *Connection) IsFree() bool {
	return c.SourceName == "" && c.DestName == ""
}

// Scaled returns the transformed, destination-scaled output Output.
func (c *Connection) Scaled() *graph.Output { return c.scaled }

// SourceInput returns the slot's source input, for the Bank to connect.
func (c *Connection) SourceInput() *graph.Input { return c.source }

// AmountInput returns the slot's amount input (a control-rate modulation
// depth), for the Bank to connect to the modulation_N_amount parameter.
func (c *Connection) AmountInput() *graph.Input { return c.amount }

// destinationScale is DestMax - DestMin, spec.md §4.4's "parameter's
// numeric range".
func (c *Connection) destinationScale() float64 {
	return c.DestMax - c.DestMin
}

// powerScale implements spec.md §4.4's monotone S-curve over x in [0,1]:
// (1 - e^(-p*x)) / (1 - e^(-p)), with powerScale(x, 0) == x by the limit
// as p -> 0 (L'Hopital), matching the spec's edge-case requirement exactly.
func powerScale(p, x float64) float64 {
	if p == 0 {
		return x
	}
	denom := 1 - math.Exp(-p)
	if denom == 0 {
		return x
	}
	return (1 - math.Exp(-p*x)) / denom
}

// Process implements the per-sample transform from spec.md §4.4:
//
//	x  = clamp(source, 0, 1)
//	x' = remap(x) if a remap curve is set, else x
//	s  = 2x' - 1 if bipolar else x'
//	y  = sign(s) * powerScale(power, |s|)
//	pre = amount * y
//	out = pre * destination_scale * stereo_scale
//
// Lanes 1 and 3 (the right stereo channel of each voice, per pkg/poly's
// lane layout) are sign-flipped when Stereo is set, matching "stereo_scale
// flips the right lane to +/-1".
func (c *Connection) Process(numSamples int) {
	amt := c.amount.At(0) // amount is control-rate: read once per block.
	destScale := float32(c.destinationScale())

	for i := 0; i < numSamples; i++ {
		src := c.source.At(i)
		pre := poly.Zero()
		out := poly.Zero()

		for lane := 0; lane < poly.Lanes; lane++ {
			x := float64(src[lane])
			if x < 0 {
				x = 0
			} else if x > 1 {
				x = 1
			}

			xp := x
			if c.Remap != nil {
				xp = c.Remap.Lookup(x)
			}

			s := xp
			if c.Bipolar {
				s = 2*xp - 1
			}

			sign := 1.0
			if s < 0 {
				sign = -1.0
			}
			y := sign * powerScale(c.Power, math.Abs(s))

			a := float64(amt[lane])
			preVal := a * y
			pre[lane] = float32(preVal)

			stereoScale := 1.0
			if c.Stereo && (lane == 1 || lane == 3) {
				stereoScale = -1.0
			}
			out[lane] = float32(preVal) * destScale * float32(stereoScale)
		}

		c.preScale.Buffer()[i] = pre
		c.scaled.Buffer()[i] = out
		c.sourcePassthrough.Buffer()[i] = src
	}
}

// Reset clears the connection's output buffers (no internal filter state
// to clear: the transform is purely memoryless per-sample).
func (c *Connection) Reset() {
	c.scaled.Buffer().Clear()
	c.preScale.Buffer().Clear()
	c.sourcePassthrough.Buffer().Clear()
}
