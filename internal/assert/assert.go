//go:build debug

// Package assert provides debug-build-only invariant checks for the audio
// graph: finite-value assertions that would be too costly to run on every
// sample of a release build, mirroring the teacher's own pattern of
// gating expensive diagnostics behind a build tag rather than a runtime
// flag (checked once at compile time, zero cost in a release binary).
package assert

import (
	"fmt"
	"math"

	"github.com/wavecore/synth/pkg/poly"
)

// Finite panics if v is NaN or +/-Inf, identifying the offending
// Processor/Output by name. Only compiled into binaries built with
// -tags debug; see assert_release.go for the no-op release stub.
func Finite(where string, v float32) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic(fmt.Sprintf("assert: non-finite value %v at %s", v, where))
	}
}

// FiniteBuffer checks every lane of every packed sample in buf, used by
// graph.Router after each child Processor runs to catch a NaN/Inf leak
// at its source instead of downstream where the offending node is no
// longer apparent.
func FiniteBuffer(where string, buf []poly.Float) {
	for i, v := range buf {
		for lane, x := range v {
			f := float64(x)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				panic(fmt.Sprintf("assert: non-finite value %v at %s[%d] lane %d", x, where, i, lane))
			}
		}
	}
}

// Enabled reports whether debug assertions are compiled in, for callers
// that want to skip building diagnostic arguments entirely when they
// aren't.
const Enabled = true
