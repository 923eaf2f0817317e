package decoder

import (
	"strings"

	"go1090/internal/bits"
)

// identCharset is the 6-bit AIS character set used by identification
// messages (TC 1-4): index 0 is unused/"?", 1-26 are A-Z, then spaces
// and digits 0-9 (Regentag-go1090 mode_s/decoder.go ais_charset).
const identCharset = "?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????"

// categorySet names the wake-vortex/emitter category set selected by
// the identification message's type code (spec.md §4.4).
func categorySet(tc int) string {
	switch tc {
	case 1:
		return "D" // reserved
	case 2:
		return "C" // surface emitter
	case 3:
		return "B" // surface emitter
	case 4:
		return "A" // airborne emitter
	default:
		return ""
	}
}

// Identification is the decoded payload of a TC 1-4 extended squitter.
type Identification struct {
	Callsign string
	Category uint8 // emitter category within the set selected by TC
	Set      string
}

// DecodeIdentification decodes an 8-character callsign from bits 40-87
// of a DF17/18 message (msg is the full 112-bit/14-byte frame). Each
// character is a 6-bit index into identCharset.
func DecodeIdentification(msg []byte, tc int) Identification {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		offset := 40 + i*6
		idx := bits.Uint32At(msg, offset, 6)
		if int(idx) < len(identCharset) {
			sb.WriteByte(identCharset[idx])
		}
	}
	callsign := strings.TrimRight(strings.ReplaceAll(sb.String(), "?", ""), " ")

	return Identification{
		Callsign: strings.TrimSpace(callsign),
		Category: uint8(bits.Uint32At(msg, 37, 3)),
		Set:      categorySet(tc),
	}
}
