package poly

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func rapidFloat(t *rapid.T, label string) Float {
	return Float{
		float32(rapid.Float64Range(-1000, 1000).Draw(t, label+"0")),
		float32(rapid.Float64Range(-1000, 1000).Draw(t, label+"1")),
		float32(rapid.Float64Range(-1000, 1000).Draw(t, label+"2")),
		float32(rapid.Float64Range(-1000, 1000).Draw(t, label+"3")),
	}
}

func rapidMask(t *rapid.T) Mask {
	var m Mask
	for lane := range m {
		m[lane] = rapid.Bool().Draw(t, "lane")
	}
	return m
}

// TestSelectIsLaneWiseMaskedLoad property-tests Select against the
// per-lane definition directly, mirroring
// github.com/doismellburning/samoyed's masked-load-style fuzz tests
// (fx25_send_test.go) but for this engine's 4-lane packed value.
func TestSelectIsLaneWiseMaskedLoad(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mask := rapidMask(rt)
		a := rapidFloat(rt, "a")
		b := rapidFloat(rt, "b")

		got := Select(mask, a, b)
		for lane := 0; lane < Lanes; lane++ {
			want := b[lane]
			if mask[lane] {
				want = a[lane]
			}
			require.Equal(rt, want, got[lane], "lane %d", lane)
		}
	})
}

// TestSelectWithAllTrueIsA and TestSelectWithAllFalseIsB lock in the two
// edge cases a masked load must satisfy.
func TestSelectWithAllTrueIsA(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapidFloat(rt, "a")
		b := rapidFloat(rt, "b")
		got := Select(Mask{true, true, true, true}, a, b)
		require.Equal(rt, a, got)
	})
}

func TestSelectWithAllFalseIsB(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapidFloat(rt, "a")
		b := rapidFloat(rt, "b")
		got := Select(Mask{false, false, false, false}, a, b)
		require.Equal(rt, b, got)
	})
}

// TestAddCommutes is a small algebraic sanity property: lane-wise
// addition must not depend on operand order.
func TestAddCommutes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapidFloat(rt, "a")
		b := rapidFloat(rt, "b")
		require.Equal(rt, a.Add(b), b.Add(a))
	})
}
