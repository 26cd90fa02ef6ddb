// Package poly implements the fixed-width lane values the engine schedules
// voices in four at a time: two voices processed in stereo, packed into a
// single value so the graph can treat a mono-rate processor and a pair of
// stereo voices with the same arithmetic.
package poly

import "math"

// Lanes is the number of float32 lanes packed into a Float. The engine packs
// two voices of stereo audio per Float, matching the teacher's stereo
// process-buffer shape doubled for voice pairing.
const Lanes = 4

// Float is a 4-lane packed value. It has no relation to real SIMD registers;
// it is the idiomatic Go rendition of the original engine's poly_float,
// implemented as a plain array with loop-unrolled arithmetic the way the
// teacher writes its per-channel DSP loops (pkg/dsp/filter/svf.go,
// pkg/dsp/delay/delay.go).
type Float [Lanes]float32

// Mask is a 4-lane boolean mask produced by comparisons and consumed by
// masked load/store operations.
type Mask [Lanes]bool

// Splat returns a Float with all lanes set to v.
func Splat(v float32) Float {
	return Float{v, v, v, v}
}

// Zero returns a Float with all lanes at zero.
func Zero() Float {
	return Float{}
}

// Add returns the lane-wise sum.
func (a Float) Add(b Float) Float {
	return Float{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

// Sub returns the lane-wise difference.
func (a Float) Sub(b Float) Float {
	return Float{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// Mul returns the lane-wise product.
func (a Float) Mul(b Float) Float {
	return Float{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// MulScalar scales every lane by s.
func (a Float) MulScalar(s float32) Float {
	return Float{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

// Div returns the lane-wise quotient. Division by zero in a lane yields
// +/-Inf or NaN, per normal float32 semantics; callers that cannot tolerate
// that should check with Mask first.
func (a Float) Div(b Float) Float {
	return Float{a[0] / b[0], a[1] / b[1], a[2] / b[2], a[3] / b[3]}
}

// Min returns the lane-wise minimum.
func (a Float) Min(b Float) Float {
	r := Float{}
	for i := range a {
		if a[i] < b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Max returns the lane-wise maximum.
func (a Float) Max(b Float) Float {
	r := Float{}
	for i := range a {
		if a[i] > b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Clamp restricts every lane to [lo, hi].
func (a Float) Clamp(lo, hi float32) Float {
	r := Float{}
	for i := range a {
		v := a[i]
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		r[i] = v
	}
	return r
}

// GreaterThan returns a Mask with true lanes where a[i] > b[i].
func (a Float) GreaterThan(b Float) Mask {
	m := Mask{}
	for i := range a {
		m[i] = a[i] > b[i]
	}
	return m
}

// Equal returns a Mask with true lanes where a[i] == b[i].
func (a Float) Equal(b Float) Mask {
	m := Mask{}
	for i := range a {
		m[i] = a[i] == b[i]
	}
	return m
}

// Select returns a[i] where mask[i] is true, otherwise b[i]. This is the
// masked-load/masked-store primitive spec.md's invariants require: lanes
// outside the mask are left untouched by the caller's intent even though
// the underlying array has no per-lane write protection of its own.
func Select(mask Mask, a, b Float) Float {
	r := Float{}
	for i := range r {
		if mask[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Any reports whether any lane in the mask is set.
func (m Mask) Any() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// All reports whether every lane in the mask is set.
func (m Mask) All() bool {
	for _, v := range m {
		if !v {
			return false
		}
	}
	return true
}

// Sum returns the sum of all lanes.
func (a Float) Sum() float32 {
	return a[0] + a[1] + a[2] + a[3]
}

// IsFinite reports whether every lane holds a finite value. Used only from
// debug-build assertions (internal/assert); never called on the hot path in
// release builds.
func (a Float) IsFinite() bool {
	for _, v := range a {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
