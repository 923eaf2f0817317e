// Package cpr implements Compact Position Reporting geometry: the
// even/odd global decode, the single-frame local (reference-relative)
// decode, the NL(lat) longitude-zone-count function, and the haversine
// distance used by the filter engine's proximity check.
//
// This package is pure geometry — it holds no aircraft state and no CPR
// frame buffering. Pairing an even frame with an odd frame and deciding
// when to fall back to local decode is the tracker's job (spec.md §4.5,
// §4.7); this package only answers "given these CPR fields, what lat/lon
// do they resolve to".
package cpr

import "math"

// cprMax is 2^17, the resolution of the 17-bit CPR lat/lon fields.
const cprMax = 131072.0

// dlatEven/dlatOdd are the latitude zone sizes for even and odd frames:
// 360/60 and 360/59 degrees respectively (spec.md §4.5).
const (
	dlatEven = 360.0 / 60.0
	dlatOdd  = 360.0 / 59.0
)

// Frame is one CPR-encoded position report.
type Frame struct {
	Odd  bool // false = even frame, true = odd frame
	Lat  uint32 // 17-bit CPR-encoded latitude
	Lon  uint32 // 17-bit CPR-encoded longitude
}

// modInt is the non-negative modulo convention used throughout CPR
// decoding: Go's % can return a negative result for a negative dividend,
// which every zone-index computation here must not see.
func modInt(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// NL returns the number of longitude zones for the given latitude, using
// the closed-form definition (not a precomputed lookup table):
//
//	NL(lat) = floor( 2*pi / acos( 1 - (1-cos(pi/2/15)) / cos(pi/180*lat)^2 ) )
//
// with NL(lat) = 1 at the poles (|lat| >= 87) and NL(0) = 59.
func NL(lat float64) int {
	absLat := math.Abs(lat)
	if absLat >= 87.0 {
		return 1
	}
	if absLat == 0 {
		return 59
	}

	const nz = 15.0 // number of geographic latitude zones between equator and pole
	numerator := 1 - math.Cos(math.Pi/(2*nz))
	denominator := math.Pow(math.Cos(math.Pi/180*absLat), 2)
	x := 1 - numerator/denominator
	if x < -1 {
		return 1
	}
	if x > 1 {
		return 59
	}
	nl := math.Floor(2 * math.Pi / math.Acos(x))
	return int(nl)
}

// round6 rounds to 6 decimal places, the precision spec.md requires for
// every resolved position (~11cm at the equator).
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// normalizeLon wraps a longitude into [-180, 180).
func normalizeLon(lon float64) float64 {
	return lon - math.Floor((lon+180)/360)*360
}

// DecodeGlobal resolves a position from one even and one odd CPR frame,
// per the dump1090/ICAO global-decode algorithm. Returns ok=false if the
// pair straddles a latitude zone boundary (NL mismatch) or yields an
// out-of-range latitude, in which case the caller should fall back to
// local decode or wait for a fresh pair (spec.md §4.5 edge cases).
//
// latestIsOdd selects which frame's longitude zone width governs the
// longitude resolution — the decoder always reports the position as of
// the more recently received frame.
func DecodeGlobal(even, odd Frame, latestIsOdd bool) (lat, lon float64, ok bool) {
	lat0 := float64(even.Lat)
	lat1 := float64(odd.Lat)
	lon0 := float64(even.Lon)
	lon1 := float64(odd.Lon)

	j := math.Floor(((59*lat0 - 60*lat1) / cprMax) + 0.5)

	rlat0 := dlatEven * (float64(modInt(int(j), 60)) + lat0/cprMax)
	rlat1 := dlatOdd * (float64(modInt(int(j), 59)) + lat1/cprMax)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	nl0, nl1 := NL(rlat0), NL(rlat1)
	if nl0 != nl1 {
		return 0, 0, false
	}

	var rlat float64
	var ni int
	var m int
	var dlon float64

	if latestIsOdd {
		rlat = rlat1
		ni = zoneCount(nl1, 1)
		m = int(math.Floor((((lon0 * float64(nl1-1)) - (lon1 * float64(nl1))) / cprMax) + 0.5))
		dlon = 360.0 / float64(ni)
		rlon := dlon * (float64(modInt(m, ni)) + lon1/cprMax)
		return round6(rlat), round6(normalizeLon(rlon)), true
	}

	rlat = rlat0
	ni = zoneCount(nl0, 0)
	m = int(math.Floor((((lon0 * float64(nl0-1)) - (lon1 * float64(nl0))) / cprMax) + 0.5))
	dlon = 360.0 / float64(ni)
	rlon := dlon * (float64(modInt(m, ni)) + lon0/cprMax)
	return round6(rlat), round6(normalizeLon(rlon)), true
}

// zoneCount returns NL(lat) - fflag, floored at 1.
func zoneCount(nl, fflag int) int {
	n := nl - fflag
	if n < 1 {
		n = 1
	}
	return n
}

// DecodeLocal resolves a position from a single CPR frame plus a nearby
// reference position (the aircraft's last known position, or the
// receiver's own location) — used when only one frame has arrived or
// when the even/odd pair straddled a zone boundary (spec.md §4.5).
//
// The caller is responsible for discarding the result if the reference
// is too stale or too far away to guarantee the decoded position falls
// in the same half-zone as the reference (the classic CPR ambiguity);
// this function performs the zone-adjustment step but not that
// freshness/distance check.
func DecodeLocal(f Frame, refLat, refLon float64) (lat, lon float64) {
	dlat := dlatEven
	fflag := 0
	if f.Odd {
		dlat = dlatOdd
		fflag = 1
	}

	latCPR := float64(f.Lat)
	lonCPR := float64(f.Lon)

	j := math.Floor(refLat/dlat + 0.5)
	rlat := dlat * (j + latCPR/cprMax)

	if rlat-refLat > dlat/2.0 {
		rlat -= dlat
	} else if rlat-refLat < -dlat/2.0 {
		rlat += dlat
	}

	nl := NL(rlat)
	ni := zoneCount(nl, fflag)
	dlon := 360.0 / float64(ni)

	m := math.Floor(refLon/dlon + 0.5)
	rlon := dlon * (m + lonCPR/cprMax)

	if rlon-refLon > dlon/2.0 {
		rlon -= dlon
	} else if rlon-refLon < -dlon/2.0 {
		rlon += dlon
	}

	return round6(rlat), round6(normalizeLon(rlon))
}

// earthRadiusM is the mean Earth radius in meters, used by Haversine.
const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// lat/lon points, used by the filter engine's pairwise proximity check
// (spec.md §4.7).
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	phi1 := lat1 * rad
	phi2 := lat2 * rad
	dphi := (lat2 - lat1) * rad
	dlambda := (lon2 - lon1) * rad

	a := math.Sin(dphi/2)*math.Sin(dphi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dlambda/2)*math.Sin(dlambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
