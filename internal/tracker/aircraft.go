package tracker

import (
	"time"

	"go1090/internal/cpr"
)

// cprBuffer is one parity's most recent raw CPR frame, buffered for
// pairing with its opposite parity (spec.md §3 "CPR buffers").
type cprBuffer struct {
	frame     cpr.Frame
	timestamp time.Time
	valid     bool
}

// Aircraft is the per-ICAO state tracked across all received messages
// (spec.md §3 "Aircraft state").
type Aircraft struct {
	ICAO uint32

	Callsign     string
	Squawk       string
	Country      string
	Registration string
	Military     bool

	HasPosition bool
	Lat, Lon    float64
	HasAltitude bool
	AltitudeFt  int
	HasSpeed    bool
	SpeedKnots  float64
	HasHeading  bool
	HeadingDeg  float64
	HasVRate    bool
	VRateFPM    int

	evenCPR cprBuffer
	oddCPR  cprBuffer

	FirstSeen    time.Time
	LastSeen     time.Time
	MessageCount uint64

	PositionHistory *PositionRing
	HeadingHistory  *HeadingRing

	lastForwarded time.Time
}

// newAircraft creates a freshly observed aircraft with its history
// rings; Tracker.Update fills in the country/registration/military
// metadata derivable from the ICAO address (spec.md §4.6 step 4). A
// ringSize of zero or less uses DefaultRingSize.
func newAircraft(icao uint32, at time.Time, ringSize int) *Aircraft {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Aircraft{
		ICAO:            icao,
		FirstSeen:       at,
		LastSeen:        at,
		PositionHistory: NewPositionRing(ringSize),
		HeadingHistory:  NewHeadingRing(ringSize),
	}
}

// Age returns how long it has been since this aircraft was last heard
// from, as of now.
func (a *Aircraft) Age(now time.Time) time.Duration {
	return now.Sub(a.LastSeen)
}
