package memutils

import (
	"math"
	"testing"
)

func TestNormalizeVectorUnitLength(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if math.Abs(DotProduct(v, v)-1) > 1e-6 {
		t.Fatalf("expected unit vector, got %v", v)
	}
}

func TestNormalizeVectorZero(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector should stay zero, got %v", v)
		}
	}
}

func TestDotProductLengthMismatch(t *testing.T) {
	if got := DotProduct([]float32{1, 2}, []float32{1}); got != 0 {
		t.Fatalf("expected 0 for mismatched vectors, got %f", got)
	}
}

func TestNormalizedDotIsCosine(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{3, 1, 0}
	want := 5 / math.Sqrt(140)
	if got := DotProduct(NormalizeVector(a), NormalizeVector(b)); math.Abs(got-want) > 1e-6 {
		t.Fatalf("normalized dot %f != cosine %f", got, want)
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	out := BytesToVector(VectorToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d", len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: %f != %f", i, in[i], out[i])
		}
	}
	if BytesToVector([]byte{1, 2, 3}) != nil {
		t.Fatal("expected nil for truncated blob")
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(7.66666, 1); got != 7.7 {
		t.Fatalf("expected 7.7, got %f", got)
	}
	if got := RoundTo(8.25, 1); got != 8.3 {
		t.Fatalf("expected 8.3, got %f", got)
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-0.5: 0, 0.4: 0.4, 1.08: 1, math.NaN(): 0}
	for in, want := range cases {
		if got := Clamp01(in); got != want {
			t.Fatalf("Clamp01(%f) = %f, want %f", in, got, want)
		}
	}
}

func TestMeetsThresholdInclusive(t *testing.T) {
	if !MeetsThreshold(0.7, 0.7) {
		t.Fatal("exact threshold must be included")
	}
	if !MeetsThreshold(0.6999999, 0.7) {
		t.Fatal("float32 rounding below threshold must be included")
	}
	if MeetsThreshold(0.69, 0.7) {
		t.Fatal("0.69 must be excluded at 0.7")
	}
	if MeetsThreshold(0.6999995, 0.7) {
		t.Fatal("0.6999995 is strictly below 0.7 and must be excluded")
	}
	if MeetsThreshold(0.4999995, 0.5) {
		t.Fatal("0.4999995 is strictly below 0.5 and must be excluded")
	}
	if !MeetsThreshold(0.5, 0.5) {
		t.Fatal("exact content threshold must be included")
	}
}
