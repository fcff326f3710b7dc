package memutils

import (
	"encoding/binary"
	"math"
)

// NormalizeVector scales v to unit length. Stored embeddings are normalized
// so that a dot product equals cosine similarity.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / norm)
	}
	return out
}

// DotProduct returns 0 for vectors of mismatched length.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// VectorToBytes encodes v as little-endian float32s for the sqlite blob column.
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, val := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(val))
	}
	return buf
}

// BytesToVector returns nil when b is not a whole number of float32s.
func BytesToVector(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}

	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// RoundTo rounds x to the given number of decimal places.
func RoundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Clamp01 bounds x to [0, 1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// thresholdULPs is how many float32 steps below a threshold still count as
// reaching it. Normalized float32 embeddings lose about one step per score.
const thresholdULPs = 2

// MeetsThreshold reports whether similarity reaches min, inclusive.
func MeetsThreshold(similarity, min float64) bool {
	return similarity >= ThresholdFloor(min)
}

// ThresholdFloor is the lowest raw score MeetsThreshold accepts for min, for
// backends that filter inside the database.
func ThresholdFloor(min float64) float64 {
	f := float32(min)
	for range thresholdULPs {
		f = math.Nextafter32(f, float32(math.Inf(-1)))
	}
	return float64(f)
}
