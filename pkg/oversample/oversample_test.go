package oversample

import "testing"

func TestFactor1PassesThroughUnchanged(t *testing.T) {
	p := New(48000, Factor1)
	in := []float64{0.1, -0.2, 0.3, 0.4}
	out := make([]float64, len(in))
	p.Upsample(in, out)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("Upsample at factor 1 changed sample %d: %v -> %v", i, in[i], out[i])
		}
	}
}

func TestUpsampleThenDownsampleRoundTripPreservesLength(t *testing.T) {
	p := New(48000, Factor4)
	hostBlock := 32
	internal := make([]float64, p.InternalBlockSize(hostBlock))
	in := make([]float64, hostBlock)
	for i := range in {
		in[i] = 0.5
	}
	p.Upsample(in, internal)

	out := make([]float64, hostBlock)
	p.Downsample(internal, out)

	if len(out) != hostBlock {
		t.Fatalf("round trip changed block length: %d want %d", len(out), hostBlock)
	}
}

func TestHardResetClearsHistoryAndRecomputesTaps(t *testing.T) {
	p := New(48000, Factor2)
	in := make([]float64, 16)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float64, len(in)*2)
	p.Upsample(in, out)

	p.HardReset(44100, Factor8)
	if p.Factor() != Factor8 {
		t.Fatalf("Factor() = %v, want Factor8", p.Factor())
	}
	if len(p.upTaps) != UpsampleTaps {
		t.Fatalf("upTaps length = %d, want %d", len(p.upTaps), UpsampleTaps)
	}
	if len(p.downTaps) != DownsampleTaps {
		t.Fatalf("downTaps length = %d, want %d", len(p.downTaps), DownsampleTaps)
	}
	for _, h := range p.upHistory {
		if h != 0 {
			t.Fatal("HardReset did not clear up-history")
		}
	}
}

func TestInternalBlockSizeClampsToMaxBufferSize(t *testing.T) {
	p := New(48000, Factor8)
	n := p.InternalBlockSize(4096)
	if n > maxBufferSize {
		t.Fatalf("InternalBlockSize = %d, exceeds max %d", n, maxBufferSize)
	}
}

func TestWindowedSincLowpassCoefficientsSumToUnity(t *testing.T) {
	taps := windowedSincLowpass(UpsampleTaps, 0.25)
	sum := 0.0
	for _, c := range taps {
		sum += c
	}
	if sum < 0.99 || sum > 1.01 {
		t.Fatalf("tap sum = %v, want ~1.0 (DC gain of unity)", sum)
	}
}
