//go:build !debug

// Package assert, release build: every check compiles away to nothing so
// a release binary pays zero cost for the debug build's finite-value
// scanning. Kept in lockstep with assert.go's signatures so callers never
// need a build tag of their own.
package assert

import "github.com/wavecore/synth/pkg/poly"

// Finite is a no-op in release builds.
func Finite(where string, v float32) {}

// FiniteBuffer is a no-op in release builds.
func FiniteBuffer(where string, buf []poly.Float) {}

// Enabled reports whether debug assertions are compiled in.
const Enabled = false
