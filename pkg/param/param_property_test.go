package param

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestScaleRoundTripProperty generalizes TestScaleRoundTrip's fixed-point
// table into a property over every normalized position in [0,1], the way
// github.com/doismellburning/samoyed's fx25_send_test.go fuzzes an
// encode/decode pair with pgregory.net/rapid instead of a handful of
// hand-picked cases.
func TestScaleRoundTripProperty(t *testing.T) {
	scales := map[string]Scale{
		"Linear":      Linear{Min: 20, Max: 20000},
		"Quadratic":   Quadratic{Min: 0, Max: 1},
		"Cubic":       Cubic{Min: -1, Max: 1},
		"Quartic":     Quartic{Min: 0, Max: 10},
		"SquareRoot":  SquareRoot{Min: 0, Max: 1},
		"Exponential": Exponential{Min: 20, Max: 20000},
	}

	for name, scale := range scales {
		scale := scale
		t.Run(name, func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				n := rapid.Float64Range(0, 1).Draw(rt, "n")
				plain := scale.Map(n)
				back := scale.Unmap(plain)
				require.InDelta(rt, n, back, 1e-6)
			})
		})
	}
}

// TestValueSetPlainRoundTripsThroughNormalized checks that SetPlain
// followed by Plain recovers the input for any in-range value on a
// Linear scale, catching a clamp/scale-inversion mismatch a fixed table
// of cases could miss.
func TestValueSetPlainRoundTripsThroughNormalized(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		plain := rapid.Float64Range(0, 1).Draw(rt, "plain")
		v := NewValue("test_param", Linear{Min: 0, Max: 1}, 0)
		v.SetPlain(plain)
		require.InDelta(rt, plain, v.Plain(), 1e-9)
	})
}
