package synthmodule

import (
	"testing"

	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/param"
	"github.com/wavecore/synth/pkg/poly"
)

func TestCreateBaseControlRegistersParameter(t *testing.T) {
	m := New("osc", 0, 1, 64)
	v := m.CreateBaseControl("osc_1_level", param.Linear{Min: 0, Max: 1}, 0.8)

	if got := m.Controls()["osc_1_level"]; got != v {
		t.Fatalf("Controls()[osc_1_level] = %v, want the created Value", got)
	}
}

func TestCreateMonoModControlSumsModulationIntoValue(t *testing.T) {
	m := New("filter", 0, 1, 8)
	_, out := m.CreateMonoModControl("filter_1_cutoff", param.Linear{Min: 0, Max: 20000}, 1000, 8)

	m.Process(8)
	for i, sample := range out.Buffer() {
		if sample.Sum() == 0 {
			t.Fatalf("sample %d: expected non-zero smoothed control output", i)
		}
	}
}

func TestSubmoduleControlsAreVisibleFromParent(t *testing.T) {
	parent := New("voice", 0, 1, 32)
	child := New("env_1", 0, 1, 32)
	child.CreateBaseControl("env_1_attack", param.Linear{Min: 0, Max: 10}, 0.01)
	parent.AddSubmodule(child)

	if _, ok := parent.Controls()["env_1_attack"]; !ok {
		t.Fatal("expected parent.Controls() to include submodule's parameter")
	}
}

func TestModulationSwitchFlipsOnRegisteredDestination(t *testing.T) {
	m := New("amp", 0, 1, 16)
	m.CreateMonoModControl("amp_1_gain", param.Linear{Min: 0, Max: 1}, 1.0, 16)

	m.SetModulationSwitch("amp_1_gain", true)
	sw := m.data.MonoModulationSwitches["amp_1_gain"]
	if sw == nil || !sw.On {
		t.Fatal("expected amp_1_gain's modulation switch to be on")
	}
}

func TestStatusOutputUpdateMasksInactiveLanes(t *testing.T) {
	src := graph.NewOutput("src", 4)
	src.Buffer()[0] = poly.Float{1, 2, 3, 4}

	status := NewStatusOutput(src)
	status.Update(poly.Mask{true, false, true, false})

	got := status.Value()
	if got[1] != 0 || got[3] != 0 {
		t.Fatalf("expected masked-off lanes to be zero, got %v", got)
	}
	if got[0] != 1 || got[2] != 3 {
		t.Fatalf("expected masked-on lanes preserved, got %v", got)
	}
}
