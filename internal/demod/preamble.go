package demod

// Preamble sub-sample offsets (spec.md §4.3): four pulses, six gaps
// between/around them, and a six-sample quiet zone that closes out the
// 16-sample preamble window.
var (
	pulseOffsets = [4]int{0, 2, 7, 9}
	gapOffsets   = [6]int{1, 3, 4, 5, 6, 8}
	quietOffsets = [6]int{10, 11, 12, 13, 14, 15}
)

// DefaultPreambleRatio is the minimum pulse-average/gap-average ratio
// (spec.md §6 default "preamble ratio").
const DefaultPreambleRatio = 2.0

// Preamble reports a detected preamble's signal level (the pulse
// average) for use as the Raw frame's signal-level field.
type Preamble struct {
	SignalLevel float64
}

// CheckPreamble evaluates the six-gate preamble test at sample index p
// in mag (spec.md §4.3). mag must have at least p+16 samples.
func CheckPreamble(mag []float64, p int, threshold float64) (Preamble, bool) {
	if p+16 > len(mag) {
		return Preamble{}, false
	}
	win := mag[p : p+16]

	var pulseSum, gapSum float64
	pulseMax := win[pulseOffsets[0]]
	pulseMin := win[pulseOffsets[0]]
	for _, o := range pulseOffsets {
		v := win[o]
		pulseSum += v
		if v > pulseMax {
			pulseMax = v
		}
		if v < pulseMin {
			pulseMin = v
		}
	}
	for _, o := range gapOffsets {
		gapSum += win[o]
	}
	pulseAvg := pulseSum / float64(len(pulseOffsets))
	gapAvg := gapSum / float64(len(gapOffsets))

	// Gate 1: average pulse magnitude must clear the adaptive threshold.
	if pulseAvg < threshold {
		return Preamble{}, false
	}

	// Gate 2: pulse-average / gap-average ratio.
	if gapAvg == 0 {
		if pulseAvg == 0 {
			return Preamble{}, false
		}
	} else if pulseAvg/gapAvg < DefaultPreambleRatio {
		return Preamble{}, false
	}

	// Gate 3: pulses are roughly equal amplitude.
	if pulseMin == 0 || pulseMax > 6*pulseMin {
		return Preamble{}, false
	}

	// Gate 4: each pulse individually exceeds its immediately adjacent
	// gaps (the gaps physically next to it in the 16-sample window).
	if !pulseExceedsAdjacentGaps(win) {
		return Preamble{}, false
	}

	// Gate 5: the quiet zone is actually quiet.
	for _, o := range quietOffsets {
		if win[o] >= (2.0/3.0)*pulseAvg {
			return Preamble{}, false
		}
	}

	// Gate 6: SNR check (~3.5 dB).
	if 2*pulseAvg < 3*gapAvg {
		return Preamble{}, false
	}

	return Preamble{SignalLevel: pulseAvg}, true
}

// pulseExceedsAdjacentGaps checks gate 4: every pulse sample strictly
// exceeds every gap sample immediately adjacent to it within the
// window (pulse at 0 has a neighbor at 1; pulse at 2 has neighbors at
// 1 and 3; pulse at 7 has neighbors at 6 and 8; pulse at 9 has a
// neighbor at 8).
func pulseExceedsAdjacentGaps(win []float64) bool {
	neighbors := map[int][]int{
		0: {1},
		2: {1, 3},
		7: {6, 8},
		9: {8},
	}
	for _, pulse := range pulseOffsets {
		for _, gap := range neighbors[pulse] {
			if win[pulse] <= win[gap] {
				return false
			}
		}
	}
	return true
}
