package preset

import (
	"bytes"
	"testing"

	"github.com/wavecore/synth/pkg/param"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cat := param.NewCatalog()
	gain := param.NewValue("master_gain", param.Linear{Min: 0, Max: 1}, 0.5)
	cutoff := param.NewValue("filter_1_cutoff", param.Linear{Min: 0, Max: 1}, 0.2)
	if err := cat.Add(gain, cutoff); err != nil {
		t.Fatalf("Add: %v", err)
	}

	gain.SetNormalized(0.75)
	cutoff.SetNormalized(0.1)

	var buf bytes.Buffer
	if err := NewManager(cat).Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Reset to defaults, then reload.
	gain.SetNormalized(0)
	cutoff.SetNormalized(0)

	if err := NewManager(cat).Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := gain.Normalized(); got != 0.75 {
		t.Errorf("master_gain = %v, want 0.75", got)
	}
	if got := cutoff.Normalized(); got != 0.1 {
		t.Errorf("filter_1_cutoff = %v, want 0.1", got)
	}
}

func TestLoadSkipsUnknownNames(t *testing.T) {
	saveCat := param.NewCatalog()
	onlyOnSave := param.NewValue("osc_2_level", param.Linear{Min: 0, Max: 1}, 0.9)
	if err := saveCat.Add(onlyOnSave); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := NewManager(saveCat).Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loadCat := param.NewCatalog()
	if err := NewManager(loadCat).Load(&buf); err != nil {
		t.Fatalf("Load into a catalog missing the saved name should not error: %v", err)
	}
}

func TestLoadRejectsBadHeader(t *testing.T) {
	cat := param.NewCatalog()
	if err := NewManager(cat).Load(bytes.NewReader([]byte("not a preset file"))); err == nil {
		t.Error("expected an error loading a non-preset stream")
	}
}
