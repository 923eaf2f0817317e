package decoder

import "go1090/internal/bits"

// Position is the decoded payload of a TC 5-22 extended squitter: the
// raw CPR fields plus the altitude carried alongside them. Resolving
// the CPR fields into an actual lat/lon (pairing with the opposite
// parity frame, or falling back to local decode) is the tracker's job,
// not the decoder's — this type only carries what the wire format
// actually contains (spec.md §3, §4.5).
type Position struct {
	Odd      bool // CPR format bit: false = even frame, true = odd frame
	LatCPR   uint32
	LonCPR   uint32
	Altitude Altitude
	OnGround bool // true for TC 5-8 (surface position)
}

// DecodePosition decodes a TC 5-22 position message. TC 5-8 are surface
// position reports (no altitude field, decoded ground speed/heading use
// the same ME layout as the 9-18 airborne case's high bits but are not
// currently surfaced — spec.md's invariants only require lat/lon/
// altitude for this module); TC 9-18 are airborne-baro-altitude; TC
// 20-22 are airborne-GNSS-height and share the 9-18 CPR layout.
func DecodePosition(msg []byte, tc int) Position {
	p := Position{
		Odd:    bits.BitAt(msg, 53) == 1,
		LatCPR: bits.Uint32At(msg, 54, 17),
		LonCPR: bits.Uint32At(msg, 71, 17),
	}
	if tc >= 5 && tc <= 8 {
		p.OnGround = true
		return p
	}
	p.Altitude = DecodeAC12(msg)
	return p
}
