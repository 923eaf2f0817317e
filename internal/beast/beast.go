// Package beast decodes the Mode-S Beast binary capture protocol, a
// supplemental source of already-demodulated frames (spec.md §2
// Demodulator is responsible for IQ; Beast devices skip that stage and
// deliver frames pre-demodulated over USB/TCP). Decoded frames are
// emitted as demod.RawFrame so they can enter the same
// validator/decoder/tracker pipeline as scanner output.
//
// Grounded on the teacher's internal/beast/decoder.go and message.go,
// adapted to emit the core's RawFrame instead of a bespoke Message.
package beast

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/demod"
)

// Beast protocol framing (unchanged from the teacher).
const (
	SyncByte   = 0x1A
	ModeAC     = 0x31
	ModeS      = 0x32
	ModeSLong  = 0x33
	ModeStatus = 0x34
)

// Decoder reassembles Beast-framed messages out of an arbitrary byte
// stream (TCP or USB serial) and decodes Mode S frames into RawFrames.
// Mode A/C and status frames are recognized but dropped: this core
// only speaks Mode S / ADS-B (spec.md §1 Non-goals).
type Decoder struct {
	logger *logrus.Logger
	buffer []byte
	source string
}

// NewDecoder creates a Beast decoder. source tags every RawFrame it
// emits (spec.md §3 RawFrame.Source).
func NewDecoder(logger *logrus.Logger, source string) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, 4096),
		source: source,
	}
}

// Decode appends data to the internal buffer and extracts every
// complete Mode S frame found so far.
func (d *Decoder) Decode(data []byte) ([]demod.RawFrame, error) {
	d.buffer = append(d.buffer, data...)

	var frames []demod.RawFrame

	for {
		syncIndex := indexOf(d.buffer, SyncByte)
		if syncIndex == -1 {
			d.buffer = d.buffer[:0]
			break
		}
		if syncIndex > 0 {
			d.buffer = d.buffer[syncIndex:]
		}

		if len(d.buffer) < 2 {
			break
		}

		messageType := d.buffer[1]
		messageLen := frameLength(messageType)
		if messageLen == 0 {
			d.buffer = d.buffer[1:]
			continue
		}
		if len(d.buffer) < messageLen {
			break
		}

		raw := make([]byte, messageLen)
		copy(raw, d.buffer[:messageLen])
		d.buffer = d.buffer[messageLen:]

		frame, ok, err := d.decodeFrame(raw)
		if err != nil {
			d.logger.WithError(err).Debug("failed to decode beast frame")
			continue
		}
		if ok {
			frames = append(frames, frame)
		}
	}

	if len(d.buffer) > 2048 {
		d.buffer = d.buffer[:0]
	}

	return frames, nil
}

// frameLength returns the total Beast-framed byte length (sync + type
// + 6-byte timestamp + 1-byte signal + payload) for a message type.
func frameLength(messageType byte) int {
	switch messageType {
	case ModeAC:
		return 11
	case ModeS:
		return 16
	case ModeSLong:
		return 23
	case ModeStatus:
		return 11
	default:
		return 0
	}
}

// decodeFrame turns one complete Beast-framed message into a RawFrame.
// ok is false for Mode A/C and status frames, which this core does not
// forward into the pipeline.
func (d *Decoder) decodeFrame(raw []byte) (demod.RawFrame, bool, error) {
	if len(raw) < 9 {
		return demod.RawFrame{}, false, fmt.Errorf("beast: message too short: %d bytes", len(raw))
	}
	if raw[0] != SyncByte {
		return demod.RawFrame{}, false, fmt.Errorf("beast: bad sync byte 0x%02x", raw[0])
	}

	messageType := raw[1]
	if messageType != ModeS && messageType != ModeSLong {
		return demod.RawFrame{}, false, nil
	}

	var counter uint64
	for i := 0; i < 6; i++ {
		counter = (counter << 8) | uint64(raw[2+i])
	}
	// Beast's timestamp is a 12 MHz free-running counter, not wall
	// clock; callers without an external clock source treat reception
	// order as arrival order, matching spec.md §4.6's ordering rule.
	ts := time.Now().Add(-time.Duration(counter) * time.Nanosecond / 12)

	signal := float64(raw[8])
	payload := unescape(raw[9:])

	return demod.RawFrame{
		Hex:       hex.EncodeToString(payload),
		Timestamp: ts,
		Signal:    signal,
		Source:    d.source,
	}, true, nil
}

// unescape removes Beast's 0x1A byte-stuffing.
func unescape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == SyncByte && i+1 < len(data) {
			out = append(out, data[i+1])
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func indexOf(buf []byte, b byte) int {
	for i, v := range buf {
		if v == b {
			return i
		}
	}
	return -1
}
