package decoder

// Altitude is a decoded barometric altitude in feet, or Unavailable
// when the encoding could not be resolved (spec.md §4.6, §9 open
// question: admit the frame with altitude unavailable rather than
// rejecting it outright).
type Altitude struct {
	Feet        int
	Unavailable bool
}

// DecodeAC12 decodes the 12-bit altitude field carried in DF17/18
// airborne-position messages (message bits 41-52, i.e. msg[5] bit 7
// down through msg[6] bit 4). Bit 48 (msg[5] bit 0, the "Q-bit")
// selects 25-foot encoding when set; Q=0 denotes the legacy 100-foot
// Gillham encoding, decoded via the Gray-code table below
// (Regentag-go1090 decodeAC12Field).
func DecodeAC12(msg []byte) Altitude {
	if len(msg) < 7 {
		return Altitude{Unavailable: true}
	}
	qBit := msg[5] & 1
	if qBit != 0 {
		n := (uint32(msg[5]>>1) << 4) | uint32((msg[6]&0xF0)>>4)
		return Altitude{Feet: int(n)*25 - 1000}
	}

	// Legacy Gillham encoding: the 11 remaining bits (with the Q-bit
	// removed) form C1 A1 C2 A2 C4 A4 B1 B2 D2 B4 D4, the same layout
	// DecodeAC13 builds once its M- and Q-bits are removed.
	n := (uint32(msg[5]>>1) << 4) | uint32((msg[6]&0xF0)>>4)
	return decodeGillham(n)
}

// DecodeAC13 decodes the 13-bit altitude field in DF0/4/16/20 (bits
// 20-32, i.e. msg[2] low 5 bits through msg[3]). Bit 26 (msg[3] bit 6,
// "M-bit") selects metric units when set (unsupported — reported
// Unavailable, same as Regentag-go1090's decodeAC13Field, since metric
// Mode S altitude reporting is vanishingly rare in the wild). Bit 28
// (msg[3] bit 4, "Q-bit") selects 25-foot vs. legacy Gillham encoding
// exactly as in DecodeAC12.
func DecodeAC13(msg []byte) Altitude {
	if len(msg) < 4 {
		return Altitude{Unavailable: true}
	}
	mBit := msg[3] & (1 << 6)
	qBit := msg[3] & (1 << 4)

	if mBit != 0 {
		return Altitude{Unavailable: true}
	}
	if qBit != 0 {
		n := (uint32(msg[2]&31) << 6) |
			(uint32(msg[3]&0x80) >> 2) |
			(uint32(msg[3]&0x20) >> 1) |
			uint32(msg[3]&15)
		return Altitude{Feet: int(n)*25 - 1000}
	}

	n := (uint32(msg[2]&31) << 6) |
		(uint32(msg[3]&0x80) >> 2) |
		(uint32(msg[3]&0x20) >> 1) |
		uint32(msg[3]&15)
	return decodeGillham(n)
}

// grayToBinary converts a reflected Gray code value to its binary
// equivalent via the standard cascading-XOR fold.
func grayToBinary(g uint32) uint32 {
	for mask := g >> 1; mask != 0; mask >>= 1 {
		g ^= mask
	}
	return g
}

// decodeGillham converts an 11-bit Gillham-coded altitude field into
// feet, per spec.md §4.4: the field packs three reflected-Gray-code
// digits A, B, C (D is not present in the 11-bit altitude layout, only
// in the 13-bit squawk field); C gives the 100-ft digit, (A<<3)|B
// treated as a 6-bit Gray code gives the 500-ft counter.
//
// Bit layout (MSB to LSB of the 11-bit n): C1 A1 C2 A2 C4 A4 B1 B2 D2 B4 D4.
func decodeGillham(n uint32) Altitude {
	c1 := (n >> 10) & 1
	a1 := (n >> 9) & 1
	c2 := (n >> 8) & 1
	a2 := (n >> 7) & 1
	c4 := (n >> 6) & 1
	a4 := (n >> 5) & 1
	b1 := (n >> 4) & 1
	b2 := (n >> 3) & 1
	b4 := (n >> 1) & 1

	a := a4<<2 | a2<<1 | a1
	b := b4<<2 | b2<<1 | b1
	c := c4<<2 | c2<<1 | c1

	cBinary := grayToBinary(c)
	if cBinary < 1 || cBinary > 5 {
		return Altitude{Unavailable: true}
	}

	abGray := (a << 3) | b
	abBinary := grayToBinary(abGray)

	feet := 500*int(abBinary) + 100*int(cBinary) - 1200
	if feet < -1200 || feet > 126750 {
		return Altitude{Unavailable: true}
	}
	return Altitude{Feet: feet}
}
