// Package demod implements the 2 MHz IQ-sample demodulator: magnitude
// conversion, adaptive noise floor tracking, preamble detection, PPM
// bit recovery, and the chunked scanner that ties them together
// (spec.md §4.3).
package demod

// magnitudeLUT[i][q] = (i-127.5)^2 + (q-127.5)^2 for i,q in [0,255],
// precomputed once so magnitude conversion is a single indexed load per
// sample pair instead of two subtractions and two squares.
var magnitudeLUT [256][256]float64

func init() {
	for i := 0; i < 256; i++ {
		di := float64(i) - 127.5
		for q := 0; q < 256; q++ {
			dq := float64(q) - 127.5
			magnitudeLUT[i][q] = di*di + dq*dq
		}
	}
}

// Magnitude converts a DC-centered IQ byte stream (I0 Q0 I1 Q1 ...) into
// one squared-magnitude sample per IQ pair.
func Magnitude(iq []byte) []float64 {
	n := len(iq) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = magnitudeLUT[iq[2*i]][iq[2*i+1]]
	}
	return out
}
