package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// noteEvent is one scheduled NoteOn/NoteOff pair in a demo patch file,
// expressed in whole seconds rather than samples so a config.yaml stays
// readable independent of the sample rate it's auditioned at.
type noteEvent struct {
	Note     uint8   `yaml:"note"`
	Velocity float64 `yaml:"velocity"`
	StartSec float64 `yaml:"start_sec"`
	DurSec   float64 `yaml:"dur_sec"`
	Channel  uint8   `yaml:"channel"`
}

// patch is the on-disk demo configuration: a short note sequence plus the
// modulation routings to audition, loaded with gopkg.in/yaml.v3 the way
// github.com/doismellburning/samoyed loads its device-id config.
type patch struct {
	Notes       []noteEvent `yaml:"notes"`
	Modulations [][2]string `yaml:"modulations"`
	EffectOrder []string    `yaml:"effect_order"`
}

func loadPatch(path string) (*patch, error) {
	if path == "" {
		return defaultPatch(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p patch
	if err := yaml.NewDecoder(f).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// defaultPatch plays a C major triad arpeggio when no --patch file is
// given, so the demo is audible out of the box.
func defaultPatch() *patch {
	return &patch{
		Notes: []noteEvent{
			{Note: 60, Velocity: 0.8, StartSec: 0.0, DurSec: 0.8, Channel: 0},
			{Note: 64, Velocity: 0.8, StartSec: 0.5, DurSec: 0.8, Channel: 0},
			{Note: 67, Velocity: 0.8, StartSec: 1.0, DurSec: 1.5, Channel: 0},
		},
		Modulations: [][2]string{
			{"lfo_1", "filter_1_cutoff"},
		},
	}
}
