package demod

import (
	"encoding/hex"
	"time"
)

// longFormDF/shortFormDF identify which downlink formats are carried by
// which message length, used by the scanner to decide which bit count
// to attempt first (spec.md §4.3 step 1/2).
var (
	longFormDF  = map[int]bool{16: true, 17: true, 18: true, 19: true, 20: true, 21: true}
	shortFormDF = map[int]bool{0: true, 4: true, 5: true, 11: true}
)

const (
	preambleLen     = 16
	shortMessageLen = 112 // samples (56 bits * 2 samples/bit)
	longMessageLen  = 224 // samples (112 bits * 2 samples/bit)
	// DetectionWindow is the minimum chunk overlap required so a
	// preamble straddling a chunk boundary is never missed.
	DetectionWindow = 240
)

// RawFrame is a demodulator-produced candidate frame: hex payload plus
// reception metadata (spec.md §3).
type RawFrame struct {
	Hex       string
	Timestamp time.Time
	Signal    float64
	Source    string
}

// Scanner walks a magnitude buffer sample-by-sample, emitting RawFrames
// on every accepted preamble + bit-recovery pass. It owns the noise
// floor tracker, so it must be reused across chunks of the same stream
// (spec.md §4.3's chunked processing requires continuity of the
// adaptive threshold).
type Scanner struct {
	noise    *NoiseFloor
	baseTime time.Time
	rate     float64 // samples per second
	source   string
}

// NewScanner creates a Scanner. rate is the sample rate in Hz (2e6 per
// spec.md §4.3); source labels emitted frames (e.g. "rtlsdr", "file").
func NewScanner(absoluteMinLevel, rate float64, source string) *Scanner {
	return &Scanner{
		noise:  NewNoiseFloor(absoluteMinLevel),
		rate:   rate,
		source: source,
	}
}

// ScanChunk demodulates one chunk of IQ bytes, using baseTime as the
// timestamp of sample 0 in this chunk. Callers processing a long
// stream in pieces must overlap successive chunks by at least
// DetectionWindow samples (spec.md §4.3).
func (s *Scanner) ScanChunk(iq []byte, baseTime time.Time) []RawFrame {
	mag := Magnitude(iq)
	s.noise.Update(mag)
	threshold := s.noise.Threshold()

	var frames []RawFrame
	for j := 0; j+DetectionWindow <= len(mag); {
		pre, ok := CheckPreamble(mag, j, threshold)
		if !ok {
			j++
			continue
		}

		bodyStart := j + preambleLen
		if frame, n, ok := s.tryRecover(mag, bodyStart, longMessageLen, longFormDF, baseTime, j, pre.SignalLevel); ok {
			frames = append(frames, frame)
			j = bodyStart + n
			continue
		}
		if frame, n, ok := s.tryRecover(mag, bodyStart, shortMessageLen, shortFormDF, baseTime, j, pre.SignalLevel); ok {
			frames = append(frames, frame)
			j = bodyStart + n
			continue
		}
		j++
	}
	return frames
}

func (s *Scanner) tryRecover(mag []float64, bodyStart, sampleLen int, allowedDF map[int]bool, baseTime time.Time, preambleStart int, signal float64) (RawFrame, int, bool) {
	nbits := sampleLen / 2
	data, ok := RecoverBits(mag, bodyStart, nbits)
	if !ok {
		return RawFrame{}, 0, false
	}
	df := int(data[0] >> 3)
	if !allowedDF[df] {
		return RawFrame{}, 0, false
	}

	offsetSeconds := float64(preambleStart) / s.rate
	frame := RawFrame{
		Hex:       hex.EncodeToString(data),
		Timestamp: baseTime.Add(time.Duration(offsetSeconds * float64(time.Second))),
		Signal:    signal,
		Source:    s.source,
	}
	return frame, sampleLen, true
}
