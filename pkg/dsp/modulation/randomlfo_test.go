package modulation

import "testing"

func TestRandomLFOCreation(t *testing.T) {
	r := NewRandomLFO(48000.0)
	if r == nil {
		t.Fatal("Failed to create RandomLFO")
	}
	if r.style != RandomPerlin {
		t.Errorf("Default style incorrect: got %v, want RandomPerlin", r.style)
	}
}

func TestRandomLFOOutputStaysInRange(t *testing.T) {
	sampleRate := 48000.0
	styles := []RandomStyle{RandomPerlin, RandomSampleAndHold, RandomSinInterpolate, RandomLorenzAttractor}

	for _, style := range styles {
		r := NewRandomLFO(sampleRate)
		r.SetStyle(style)
		r.SetFrequency(4.0)

		for i := 0; i < int(sampleRate); i++ {
			v := r.Process()
			if v < -3.0 || v > 4.0 {
				t.Fatalf("style %v: output %f out of expected range at sample %d", style, v, i)
			}
		}
	}
}

func TestRandomLFOSampleAndHoldJumpsDiscretely(t *testing.T) {
	r := NewRandomLFO(48000.0)
	r.SetStyle(RandomSampleAndHold)
	r.SetFrequency(100.0)

	prev := r.Process()
	changed := false
	for i := 0; i < 1000; i++ {
		v := r.Process()
		if v != prev {
			changed = true
		}
		prev = v
	}
	if !changed {
		t.Error("sample-and-hold output never changed over 1000 samples at 100Hz")
	}
}

func TestRandomLFOReset(t *testing.T) {
	r := NewRandomLFO(48000.0)
	r.SetStyle(RandomLorenzAttractor)
	for i := 0; i < 100; i++ {
		r.Process()
	}
	r.Reset()
	if r.x != 0.0 || r.y != 0.0 || r.z != lorenzInitial3 {
		t.Errorf("Reset did not restore initial Lorenz state: x=%f y=%f z=%f", r.x, r.y, r.z)
	}
}
