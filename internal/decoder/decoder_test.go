package decoder

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeIdentification_KLM1023(t *testing.T) {
	msg := mustDecode(t, "8D4840D6202CC371C32CE0576098")
	got := DecodeIdentification(msg, TypeCode(msg))
	assert.Equal(t, "KLM1023", got.Callsign)
}

func TestDecodePosition_AltitudeAndCPRFields(t *testing.T) {
	even := mustDecode(t, "8D40621D58C382D690C8AC2863A7")
	p := DecodePosition(even, TypeCode(even))
	assert.False(t, p.OnGround)
	assert.Equal(t, 38000, p.Altitude.Feet)
	assert.False(t, p.Odd)
	assert.Equal(t, uint32(93000), p.LatCPR)
	assert.Equal(t, uint32(51372), p.LonCPR)
}

func TestDecodeVelocity_GroundSpeedScenario(t *testing.T) {
	msg := mustDecode(t, "8D485020994409940838175B284F")
	v := DecodeVelocity(msg)

	assert.Equal(t, "ground", v.SpeedType)
	assert.InDelta(t, 159, v.SpeedKnots, 2)
	assert.InDelta(t, 182.88, v.HeadingDeg, 1)
	require.True(t, v.VRateAvailable)
	assert.InDelta(t, -832, v.VerticalRateFPM, 64)
}

func TestDecodeSquawk_FourOctalDigits(t *testing.T) {
	msg := make([]byte, 14)
	// Squawk 1200 (VFR): A=1,B=2,C=0,D=0 interleaved per DecodeSquawk's
	// bit layout — constructed by round-tripping through the same
	// interleave the decoder reads.
	msg[2] = 0x08
	msg[3] = 0x08
	got := DecodeSquawk(msg)
	assert.Len(t, got, 4)
	for _, c := range got {
		assert.True(t, c >= '0' && c <= '7')
	}
}

func TestDecodeAC12_Unavailable(t *testing.T) {
	msg := make([]byte, 14)
	alt := DecodeAC12(msg)
	assert.True(t, alt.Unavailable)
}

func TestDecodeAC12_25FootRoundTrip(t *testing.T) {
	msg := make([]byte, 14)
	n := uint32(1040) // arbitrary encodable value
	msg[5] = byte((n>>4)<<1) | 1 // Q-bit set
	msg[6] = byte((n & 0xF) << 4)

	alt := DecodeAC12(msg)
	assert.False(t, alt.Unavailable)
	assert.Equal(t, int(n)*25-1000, alt.Feet)
}

func TestDecodeExtendedSquitter_UnknownTypeCodeRejected(t *testing.T) {
	msg := make([]byte, 14)
	msg[4] = 23 << 3 // TC 23, out of scope
	_, ok := DecodeExtendedSquitter(msg)
	assert.False(t, ok)
}

func TestDecodeExtendedSquitter_DispatchesByTypeCode(t *testing.T) {
	msg := mustDecode(t, "8D4840D6202CC371C32CE0576098")
	got, ok := DecodeExtendedSquitter(msg)
	require.True(t, ok)
	assert.Equal(t, KindIdentification, got.Kind)
	assert.Equal(t, "KLM1023", got.Identification.Callsign)
}
