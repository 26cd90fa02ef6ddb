package param

import (
	"math"
	"testing"
)

func TestScaleRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		scale Scale
	}{
		{"Linear", Linear{Min: 20, Max: 20000}},
		{"Quadratic", Quadratic{Min: 0, Max: 1}},
		{"Cubic", Cubic{Min: -1, Max: 1}},
		{"Quartic", Quartic{Min: 0, Max: 10}},
		{"SquareRoot", SquareRoot{Min: 0, Max: 1}},
		{"Exponential", Exponential{Min: 20, Max: 20000}},
		{"Indexed", Indexed{Count: 8}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, n := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
				plain := c.scale.Map(n)
				back := c.scale.Unmap(plain)
				if math.Abs(back-n) > 1e-6 {
					t.Errorf("n=%v: map->unmap round trip = %v", n, back)
				}
			}
		})
	}
}

func TestValueSetPlainClampsToRange(t *testing.T) {
	v := NewValue("filter_1_cutoff", Exponential{Min: 20, Max: 20000}, 1000)

	v.SetPlain(50000) // above Max
	if v.Normalized() != 1.0 {
		t.Fatalf("normalized = %v, want 1.0 (clamped)", v.Normalized())
	}

	v.SetPlain(1) // below Min
	if v.Normalized() != 0.0 {
		t.Fatalf("normalized = %v, want 0.0 (clamped)", v.Normalized())
	}
}

func TestSmootherApproachesTargetMonotonically(t *testing.T) {
	v := NewValue("env_1_attack", Linear{Min: 0, Max: 1}, 0)
	s := NewSmoother(v, AudioRate, 48000)
	s.Reset()

	v.SetNormalized(1.0)

	prev := s.Current()
	for i := 0; i < 2000; i++ {
		cur := s.Next()
		if cur < prev {
			t.Fatalf("sample %d: smoothed value decreased: %v -> %v", i, prev, cur)
		}
		prev = cur
	}
	if prev < 0.99 {
		t.Fatalf("after 2000 samples at 48kHz/5Hz cutoff, expected near-convergence, got %v", prev)
	}
}

func TestCatalogRejectsDuplicateNames(t *testing.T) {
	c := NewCatalog()
	if err := c.Add(NewValue("osc_1_level", Linear{Min: 0, Max: 1}, 1)); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := c.Add(NewValue("osc_1_level", Linear{Min: 0, Max: 1}, 1)); err == nil {
		t.Fatal("expected error adding duplicate parameter name")
	}
}

func TestBuilderProducesConfiguredValue(t *testing.T) {
	v := New("filter_1_cutoff").
		ShortName("cutoff").
		Unit("Hz").
		Exponential(20, 20000).
		Default(1000).
		Build()

	if math.Abs(v.Plain()-1000) > 0.5 {
		t.Fatalf("Plain() = %v, want ~1000", v.Plain())
	}
	if v.Unit != "Hz" {
		t.Fatalf("Unit = %q, want Hz", v.Unit)
	}
}
