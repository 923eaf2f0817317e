package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/crc"
	"go1090/internal/icao"
)

func TestValidateHex_IdentificationFrame(t *testing.T) {
	v := New(icao.New(time.Minute), true)
	frame, err := v.ValidateHex("8D4840D6202CC371C32CE0576098", time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 17, frame.DF)
	assert.Equal(t, uint32(0x4840D6), frame.ICAO)
	assert.True(t, frame.CrcOK)
	assert.False(t, frame.Corrected)
}

func TestValidateHex_BadLengthRejected(t *testing.T) {
	v := New(nil, false)
	_, err := v.ValidateHex("8D4840D6", time.Now(), 0)
	assert.ErrorIs(t, err, ErrParseHex)
}

func TestValidateHex_UnknownFormatRejected(t *testing.T) {
	v := New(nil, false)
	// DF 31 (11111) is not in the accepted set.
	_, err := v.ValidateHex("F84840D6202CC371C32CE0576098", time.Now(), 0)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestValidateHex_SingleBitCorrection(t *testing.T) {
	v := New(icao.New(time.Minute), true)

	clean, err := v.ValidateHex("8D4840D6202CC371C32CE0576098", time.Now(), 0)
	require.NoError(t, err)

	mutated := make([]byte, len(clean.Data))
	copy(mutated, clean.Data)
	mutated[7] ^= 0x01
	mutatedHex := bytesToHex(mutated)

	fixed, err := v.ValidateHex(mutatedHex, time.Now(), 0)
	require.NoError(t, err)
	assert.True(t, fixed.CrcOK)
	assert.True(t, fixed.Corrected)
	assert.Equal(t, clean.ICAO, fixed.ICAO)
}

func TestValidateHex_PhantomSuppression(t *testing.T) {
	v := New(icao.New(time.Minute), true)

	// A DF4 frame whose CRC residual equals 4840D6, with no prior
	// DF17/18 frame establishing that address in the cache, must be
	// rejected (spec.md §8 scenario 5).
	df4Hex := syntheticDF4With(t, 0x4840D6)

	_, err := v.ValidateHex(df4Hex, time.Now(), 0)
	assert.ErrorIs(t, err, ErrUnknownICAO)

	// Feed the identification frame first to register the address...
	t0 := time.Now()
	_, err = v.ValidateHex("8D4840D6202CC371C32CE0576098", t0, 0)
	require.NoError(t, err)

	// ...now the DF4 frame is accepted.
	_, err = v.ValidateHex(df4Hex, t0.Add(time.Second), 0)
	assert.NoError(t, err)

	// Beyond the TTL, it is rejected again.
	_, err = v.ValidateHex(df4Hex, t0.Add(120*time.Second), 0)
	assert.ErrorIs(t, err, ErrUnknownICAO)
}

func TestValidateHex_GateDisabledAcceptsAnyImplicitAddress(t *testing.T) {
	v := New(nil, false)
	df4Hex := syntheticDF4With(t, 0x123456)
	frame, err := v.ValidateHex(df4Hex, time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), frame.ICAO)
}

func bytesToHex(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xF]
	}
	return string(out)
}

// syntheticDF4With builds a minimal 56-bit DF4 frame whose CRC residual
// equals addr, by computing the CRC of an all-zero-payload DF4 message
// and XORing addr into the trailing 3 "CRC" bytes (since CRC24 of an
// implicit-address message is remainder(payload) XOR addr, setting the
// trailing field to remainder(payload) XOR addr makes Check24 return
// addr).
func syntheticDF4With(t *testing.T, addr uint32) string {
	t.Helper()
	msg := make([]byte, 7)
	msg[0] = 4 << 3 // DF4, FS=0

	// Check24 of (payload ++ 0,0,0) is exactly remainder(payload), since
	// the embedded field is zero; XOR addr into that trailing field to
	// make Check24(msg) come out to addr.
	rem := crc.Check24(msg)
	embedded := rem ^ addr
	msg[4] = byte(embedded >> 16)
	msg[5] = byte(embedded >> 8)
	msg[6] = byte(embedded)

	return bytesToHex(msg)
}
