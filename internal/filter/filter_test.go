package filter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/tracker"
)

func newTestAircraft(icao uint32, at time.Time) *tracker.Aircraft {
	ac := &tracker.Aircraft{
		ICAO:            icao,
		FirstSeen:       at,
		LastSeen:        at,
		PositionHistory: tracker.NewPositionRing(tracker.DefaultRingSize),
		HeadingHistory:  tracker.NewHeadingRing(tracker.DefaultRingSize),
	}
	return ac
}

func TestEngine_EmergencySquawkFiresOnce(t *testing.T) {
	e := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ac := newTestAircraft(0xABCDEF, now)
	ac.Squawk = "7700"

	events := e.CheckAircraft(ac, now)
	require.Len(t, events, 1)
	assert.Equal(t, KindEmergencySquawk, events[0].Kind)

	events = e.CheckAircraft(ac, now)
	assert.Empty(t, events, "same condition must not fire twice")
}

func TestEngine_MilitaryFires(t *testing.T) {
	e := New()
	now := time.Now()
	ac := newTestAircraft(0x010203, now)
	ac.Military = true

	events := e.CheckAircraft(ac, now)
	require.Len(t, events, 1)
	assert.Equal(t, KindMilitary, events[0].Kind)
}

func TestEngine_RapidDescentThreshold(t *testing.T) {
	e := New()
	now := time.Now()
	ac := newTestAircraft(0x1, now)
	ac.HasVRate = true
	ac.VRateFPM = -3000

	assert.Empty(t, e.CheckAircraft(ac, now))

	ac.VRateFPM = -6000
	events := e.CheckAircraft(ac, now)
	require.Len(t, events, 1)
	assert.Equal(t, KindRapidDescent, events[0].Kind)
}

func TestEngine_LowAltitudeExcludesGround(t *testing.T) {
	e := New()
	now := time.Now()
	ac := newTestAircraft(0x1, now)

	ac.HasAltitude = true
	ac.AltitudeFt = 0
	assert.Empty(t, e.CheckAircraft(ac, now), "altitude 0 is on-ground, not low altitude")

	ac.AltitudeFt = 300
	events := e.CheckAircraft(ac, now)
	require.Len(t, events, 1)
	assert.Equal(t, KindLowAltitude, events[0].Kind)
}

func TestEngine_GeofenceEntry(t *testing.T) {
	e := New(WithGeofence(Geofence{Name: "home", CenterLat: 52.0, CenterLon: 4.0, RadiusNM: 50}))
	now := time.Now()
	ac := newTestAircraft(0x1, now)
	ac.HasPosition = true
	ac.Lat, ac.Lon = 52.01, 4.01

	events := e.CheckAircraft(ac, now)
	require.Len(t, events, 1)
	assert.Equal(t, KindGeofence, events[0].Kind)

	events = e.CheckAircraft(ac, now)
	assert.Empty(t, events)
}

func TestEngine_CirclingScenario(t *testing.T) {
	e := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ac := newTestAircraft(0x1, base)
	ac.Squawk = "7700"

	headings := []float64{0, 90, 180, 270, 360}
	for i, h := range headings {
		ac.HeadingHistory.Append(tracker.HeadingPoint{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			HeadingDeg: math.Mod(h, 360),
		})
	}
	now := base.Add(5 * time.Minute)

	events := e.CheckAircraft(ac, now)
	kinds := map[string]bool{}
	for _, ev := range events {
		kinds[ev.Kind] = true
	}
	assert.True(t, kinds[KindEmergencySquawk])
	assert.True(t, kinds[KindCircling])

	events = e.CheckAircraft(ac, now)
	assert.Empty(t, events, "second run over the same state must produce no new events")
}

func TestEngine_ProximityFiresOncePerPair(t *testing.T) {
	e := New()
	now := time.Now()
	a := newTestAircraft(0x100001, now)
	a.HasPosition, a.Lat, a.Lon = true, 52.00, 4.00
	a.HasAltitude, a.AltitudeFt = true, 35000

	b := newTestAircraft(0x100002, now)
	b.HasPosition, b.Lat, b.Lon = true, 52.01, 4.00
	b.HasAltitude, b.AltitudeFt = true, 35200

	events := e.CheckProximity([]*tracker.Aircraft{a, b})
	require.Len(t, events, 1)
	assert.Equal(t, KindProximity, events[0].Kind)

	events = e.CheckProximity([]*tracker.Aircraft{a, b})
	assert.Empty(t, events)
	events = e.CheckProximity([]*tracker.Aircraft{b, a})
	assert.Empty(t, events, "dedup key must be symmetric regardless of pair order")
}

func TestEngine_ProximityVerticalSeparationExcludes(t *testing.T) {
	e := New()
	now := time.Now()
	a := newTestAircraft(0x100001, now)
	a.HasPosition, a.Lat, a.Lon = true, 52.00, 4.00
	a.HasAltitude, a.AltitudeFt = true, 20000

	b := newTestAircraft(0x100002, now)
	b.HasPosition, b.Lat, b.Lon = true, 52.01, 4.00
	b.HasAltitude, b.AltitudeFt = true, 35000

	events := e.CheckProximity([]*tracker.Aircraft{a, b})
	assert.Empty(t, events)
}

func TestEngine_ClearAircraftAllowsRefire(t *testing.T) {
	e := New()
	now := time.Now()
	ac := newTestAircraft(0xAAAAAA, now)
	ac.Military = true

	require.Len(t, e.CheckAircraft(ac, now), 1)
	assert.Empty(t, e.CheckAircraft(ac, now))

	e.ClearAircraft(ac.ICAO)
	assert.Len(t, e.CheckAircraft(ac, now), 1, "cleared aircraft should be able to fire again")
}
