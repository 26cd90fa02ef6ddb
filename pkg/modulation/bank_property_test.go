package modulation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/wavecore/synth/pkg/graph"
)

// newMultiTestBank builds a Bank whose resolver knows n distinct sources
// and n distinct destinations, for property tests that connect several
// slots at once.
func newMultiTestBank(blockSize, n int) (*Bank, *fakeResolver) {
	r := newFakeResolver()
	for i := 0; i < n; i++ {
		src := fmt.Sprintf("src_%d", i)
		dst := fmt.Sprintf("dst_%d", i)
		r.sources[src] = graph.NewOutput(src, blockSize)
		r.destinations[dst] = graph.NewInput(dst)
	}
	return NewBank(blockSize, r), r
}

type connPair struct{ src, dst string }

// TestConnectOrderIndependence property-tests that connecting the same
// set of (source, destination) pairs in any order leaves the Bank with
// the same set of occupied connections, regardless of which permutation
// of Connect calls produced them — grounded on the same
// pgregory.net/rapid permutation-fuzzing idiom
// github.com/doismellburning/samoyed's scripts_test.go uses for its
// command-ordering checks.
func TestConnectOrderIndependence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, SlotCount).Draw(rt, "n")
		pairs := make([]connPair, n)
		for i := 0; i < n; i++ {
			pairs[i] = connPair{src: fmt.Sprintf("src_%d", i), dst: fmt.Sprintf("dst_%d", i)}
		}

		perm := rapid.Permutation(pairs).Draw(rt, "order")

		bank, _ := newMultiTestBank(16, n)
		for _, p := range perm {
			_, err := bank.Connect(p.src, p.dst)
			require.NoError(rt, err)
		}

		got := make(map[connPair]bool)
		for _, slot := range bank.Slots() {
			if !slot.IsFree() {
				got[connPair{src: slot.SourceName, dst: slot.DestName}] = true
			}
		}

		for _, p := range pairs {
			require.True(rt, got[p], "expected %+v to be connected regardless of connect order", p)
		}
		require.Len(rt, got, n)
	})
}
