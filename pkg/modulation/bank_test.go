package modulation

import (
	"fmt"
	"testing"

	"github.com/wavecore/synth/pkg/graph"
)

// fakeResolver is a minimal Resolver backed by plain maps, standing in for
// engine.SoundEngine's SynthModule-tree-backed implementation.
type fakeResolver struct {
	sources      map[string]*graph.Output
	destinations map[string]*graph.Input
	bipolar      map[string]bool
	switches     map[string]bool
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		sources:      make(map[string]*graph.Output),
		destinations: make(map[string]*graph.Input),
		bipolar:      make(map[string]bool),
		switches:     make(map[string]bool),
	}
}

func (f *fakeResolver) ResolveSource(name string) (*graph.Output, bool) {
	o, ok := f.sources[name]
	return o, ok
}

func (f *fakeResolver) ResolveDestination(name string) (*graph.Input, bool) {
	in, ok := f.destinations[name]
	return in, ok
}

func (f *fakeResolver) SourceIsBipolar(name string) bool {
	return f.bipolar[name]
}

func (f *fakeResolver) SetModulationSwitch(destName string, on bool) {
	f.switches[destName] = on
}

func newTestBank(blockSize int) (*Bank, *fakeResolver) {
	r := newFakeResolver()
	r.sources["lfo_1"] = graph.NewOutput("lfo_1", blockSize)
	r.destinations["osc_1_level"] = graph.NewInput("osc_1_level")
	r.bipolar["lfo_1"] = true
	return NewBank(blockSize, r), r
}

func TestConnectRejectsSelfModulation(t *testing.T) {
	bank, r := newTestBank(16)
	r.sources["modulation_1_amount"] = graph.NewOutput("modulation_1_amount", 16)
	r.destinations["modulation_1_amount"] = graph.NewInput("modulation_1_amount")

	_, err := bank.Connect("modulation_1_amount", "modulation_1_amount")
	if err != ErrSelfModulation {
		t.Fatalf("err = %v, want ErrSelfModulation", err)
	}
}

func TestConnectFlipsModulationSwitch(t *testing.T) {
	bank, r := newTestBank(16)

	idx, err := bank.Connect("lfo_1", "osc_1_level")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !r.switches["osc_1_level"] {
		t.Fatal("expected osc_1_level modulation switch to be on")
	}

	if err := bank.Disconnect(idx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if r.switches["osc_1_level"] {
		t.Fatal("expected osc_1_level modulation switch to be off after disconnect")
	}
}

func TestConnectExhaustsSlots(t *testing.T) {
	bank, r := newTestBank(16)
	connected := 0
	for i := 0; i < SlotCount+1; i++ {
		destName := fmt.Sprintf("dest_%d", i)
		r.destinations[destName] = graph.NewInput(destName)
		if _, err := bank.Connect("lfo_1", destName); err != nil {
			if err != ErrNoFreeSlot {
				t.Fatalf("unexpected error: %v", err)
			}
			break
		}
		connected++
	}
	if connected != SlotCount {
		t.Fatalf("connected %d slots, want %d", connected, SlotCount)
	}
}

func TestClearModulationsFreesEverySlot(t *testing.T) {
	bank, _ := newTestBank(16)
	if _, err := bank.Connect("lfo_1", "osc_1_level"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	bank.ClearModulations()
	for i, s := range bank.Slots() {
		if !s.IsFree() {
			t.Fatalf("slot %d still occupied after ClearModulations", i)
		}
	}
}

func TestPowerScaleIdentityAtZero(t *testing.T) {
	for _, x := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		got := powerScale(0, x)
		if got != x {
			t.Fatalf("powerScale(0, %v) = %v, want %v", x, got, x)
		}
	}
}
