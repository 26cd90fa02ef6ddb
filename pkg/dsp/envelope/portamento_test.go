package envelope

import (
	"math"
	"testing"
)

func TestPortamentoBypassBelowMinTime(t *testing.T) {
	p := NewPortamento(48000.0)
	p.Seed(60)
	p.Start(72, 2)
	// time defaults to 0, below MinPortamentoTime, so Process must jump
	// straight to the target.
	got := p.Process(64)
	if got != 72 {
		t.Errorf("got %f, want 72 (immediate bypass)", got)
	}
}

func TestPortamentoGlidesTowardTarget(t *testing.T) {
	p := NewPortamento(48000.0)
	p.SetTime(0.1)
	p.Seed(60)
	p.Start(72, 2)

	first := p.Process(64)
	if first <= 60 || first >= 72 {
		t.Fatalf("first step out of glide range: got %f, want in (60, 72)", first)
	}

	var last float64
	for i := 0; i < 200; i++ {
		last = p.Process(64)
	}
	if math.Abs(last-72) > 0.01 {
		t.Errorf("glide did not converge to target: got %f, want ~72", last)
	}
	if !p.Done() {
		t.Error("Done() should report true once the glide has converged")
	}
}

func TestPortamentoNonForceSkipsGlideFromSilence(t *testing.T) {
	p := NewPortamento(48000.0)
	p.SetTime(0.5)
	p.SetForce(false)
	p.Seed(60)

	// Only one note held: non-force mode must jump immediately rather
	// than glide.
	p.Start(72, 1)
	if !p.Done() {
		t.Error("non-force glide with a single held note must not start a glide")
	}
}

func TestPortamentoForceAlwaysGlides(t *testing.T) {
	p := NewPortamento(48000.0)
	p.SetTime(0.5)
	p.SetForce(true)
	p.Seed(60)

	p.Start(72, 1)
	if p.Done() {
		t.Error("force mode must start a glide even from a single held note")
	}
}

func TestPortamentoScaleAffectsDuration(t *testing.T) {
	p1 := NewPortamento(48000.0)
	p1.SetTime(1.0)
	p1.SetScale(true)
	p1.Seed(60)
	p1.Start(61, 2) // one semitone

	p2 := NewPortamento(48000.0)
	p2.SetTime(1.0)
	p2.SetScale(true)
	p2.Seed(60)
	p2.Start(72, 2) // one octave

	// A larger interval scaled by the same nominal time must take longer
	// to converge, i.e. after a fixed number of samples the octave glide
	// has covered less of its distance (relative position) than the
	// semitone glide.
	const steps = 30
	for i := 0; i < steps; i++ {
		p1.Process(64)
		p2.Process(64)
	}
	if p1.position < p2.position {
		t.Errorf("smaller interval should reach a further relative position: semitone=%f octave=%f", p1.position, p2.position)
	}
}
