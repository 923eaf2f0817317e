package decoder

// DecodeSquawk decodes the 13-bit identity (squawk) field carried by
// DF5/21 (bits 19-31, i.e. msg[2] low 5 bits through msg[3]). The field
// interleaves four 3-bit octal digits as C1-A1-C2-A2-C4-A4-ZERO-B1-D1-
// B2-D2-B4-D4; this reassembles each digit's three binary-weighted bits and
// renders the result as a 4-digit octal string (Regentag-go1090
// DecodeModesMessage, "mm.identity" block).
func DecodeSquawk(msg []byte) string {
	if len(msg) < 4 {
		return ""
	}
	a := ((msg[3] & 0x80) >> 5) |
		((msg[2] & 0x02) >> 0) |
		((msg[2] & 0x08) >> 3)
	b := ((msg[3] & 0x02) << 1) |
		((msg[3] & 0x08) >> 2) |
		((msg[3] & 0x20) >> 5)
	c := ((msg[2] & 0x01) << 2) |
		((msg[2] & 0x04) >> 1) |
		((msg[2] & 0x10) >> 4)
	d := ((msg[3] & 0x01) << 2) |
		((msg[3] & 0x04) >> 1) |
		((msg[3] & 0x10) >> 4)

	digits := [4]byte{
		'0' + a,
		'0' + b,
		'0' + c,
		'0' + d,
	}
	return string(digits[:])
}
