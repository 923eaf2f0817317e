package decoder

import (
	"math"

	"go1090/internal/bits"
)

// Velocity is the decoded payload of a TC 19 extended squitter
// (spec.md §4.6).
type Velocity struct {
	SpeedType      string // "ground", "IAS", "TAS", or "" if unavailable
	SpeedKnots     float64
	HeadingDeg     float64
	HeadingValid   bool
	VerticalRateFPM int
	VRateAvailable bool
}

// DecodeVelocity decodes a TC 19 velocity message's ME field
// (msg bytes, with the ME field starting at byte 4 / bit 32).
//
// Subtype 1/2 (ground velocity): signed E-W and N-S 10-bit components,
// each encoded as sign-bit + magnitude-minus-one (0 means unavailable).
// Speed = sqrt(vx^2+vy^2); heading = atan2(vx,vy) normalized to
// [0,360).
//
// Subtype 3/4 (airspeed): a 10-bit heading (only valid when its
// validity bit is set) scaled by 360/1024, plus a 10-bit airspeed
// selected as IAS or TAS by a single bit. The 9-bit vertical rate with
// sign bit (units of 64 ft/min, 0 = unavailable) is decoded identically
// for all subtypes (spec.md §4.6).
func DecodeVelocity(msg []byte) Velocity {
	subtype := bits.Uint32At(msg, 37, 3)

	v := Velocity{}
	switch subtype {
	case 1, 2:
		ewDir := bits.BitAt(msg, 45)
		ewVel := bits.Uint32At(msg, 46, 10)
		nsDir := bits.BitAt(msg, 56)
		nsVel := bits.Uint32At(msg, 57, 10)

		if ewVel == 0 || nsVel == 0 {
			break
		}
		vx := float64(ewVel - 1)
		vy := float64(nsVel - 1)
		if ewDir == 1 {
			vx = -vx
		}
		if nsDir == 1 {
			vy = -vy
		}

		v.SpeedType = "ground"
		v.SpeedKnots = math.Hypot(vx, vy)
		heading := math.Atan2(vx, vy) * 180 / math.Pi
		if heading < 0 {
			heading += 360
		}
		v.HeadingDeg = heading
		v.HeadingValid = true

	case 3, 4:
		headingValid := bits.BitAt(msg, 45) == 1
		headingRaw := bits.Uint32At(msg, 46, 10)
		asSelector := bits.BitAt(msg, 56) // 0=IAS, 1=TAS
		airspeed := bits.Uint32At(msg, 57, 10)

		if airspeed > 0 {
			if asSelector == 1 {
				v.SpeedType = "TAS"
			} else {
				v.SpeedType = "IAS"
			}
			v.SpeedKnots = float64(airspeed - 1)
		}
		if headingValid {
			v.HeadingDeg = float64(headingRaw) * 360.0 / 1024.0
			v.HeadingValid = true
		}
	}

	vrSign := bits.BitAt(msg, 68)
	vrRaw := bits.Uint32At(msg, 69, 9)
	if vrRaw != 0 {
		rate := int(vrRaw-1) * 64
		if vrSign == 1 {
			rate = -rate
		}
		v.VerticalRateFPM = rate
		v.VRateAvailable = true
	}

	return v
}
