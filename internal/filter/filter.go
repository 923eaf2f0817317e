// Package filter derives situational events from tracker state:
// military, emergency squawk, rapid descent, low altitude, geofence
// entry, circling, and pairwise proximity, each de-duplicated per
// aircraft per session (spec.md §4.7). Grounded on
// plane-watch-pw-pipeline's example_finder filter for the
// functional-options construction idiom.
package filter

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go1090/internal/cpr"
	"go1090/internal/tracker"
)

// Event kinds (spec.md §3 "Event").
const (
	KindMilitary        = "military"
	KindEmergencySquawk = "emergency_squawk"
	KindRapidDescent    = "rapid_descent"
	KindLowAltitude     = "low_altitude"
	KindGeofence        = "geofence"
	KindCircling        = "circling"
	KindProximity       = "proximity"
)

// Event is a derived situational condition, ready for the persistence
// and notification sinks.
type Event struct {
	ICAO        uint32
	Kind        string
	Description string
	HasLat      bool
	Lat, Lon    float64
	HasAltitude bool
	AltitudeFt  int
	Timestamp   time.Time
}

// Geofence is a named circular region checked for aircraft entry.
type Geofence struct {
	Name        string
	CenterLat   float64
	CenterLon   float64
	RadiusNM    float64
	Description string
}

var emergencySquawks = map[string]string{
	"7500": "Hijack",
	"7600": "Radio failure",
	"7700": "Emergency",
}

// Engine consumes tracker.Aircraft snapshots and emits Events, per
// spec.md §4.7. Not safe for concurrent use — owned by the same
// pipeline worker as the tracker it watches.
type Engine struct {
	geofences            []Geofence
	rapidDescentFPM      int
	lowAltitudeFt        int
	proximityNM          float64
	proximityFt          float64
	circlingWindow       time.Duration
	circlingThresholdDeg float64

	emitted map[string]bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithGeofence adds a named circular region to check aircraft against.
func WithGeofence(g Geofence) Option {
	return func(e *Engine) { e.geofences = append(e.geofences, g) }
}

// WithRapidDescentThreshold overrides the default −5000 fpm threshold.
func WithRapidDescentThreshold(fpm int) Option {
	return func(e *Engine) { e.rapidDescentFPM = fpm }
}

// WithLowAltitudeThreshold overrides the default 500 ft threshold.
func WithLowAltitudeThreshold(ft int) Option {
	return func(e *Engine) { e.lowAltitudeFt = ft }
}

// WithProximity overrides the default 5 nmi / 1000 ft proximity
// thresholds used by CheckProximity.
func WithProximity(nm, ft float64) Option {
	return func(e *Engine) {
		e.proximityNM = nm
		e.proximityFt = ft
	}
}

// WithCirclingWindow overrides the default 300 s window and 360°
// cumulative-heading threshold used by the circling check.
func WithCirclingWindow(window time.Duration, thresholdDeg float64) Option {
	return func(e *Engine) {
		e.circlingWindow = window
		e.circlingThresholdDeg = thresholdDeg
	}
}

// New creates an Engine with spec.md §6 defaults, overridden by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		rapidDescentFPM:      -5000,
		lowAltitudeFt:        500,
		proximityNM:          5,
		proximityFt:          1000,
		circlingWindow:       300 * time.Second,
		circlingThresholdDeg: 360,
		emitted:              make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClearAircraft drops every de-dup key recorded for icao, so its
// conditions can fire again if it reappears (spec.md §4.7, called when
// the tracker prunes a stale aircraft).
func (e *Engine) ClearAircraft(icao uint32) {
	prefix := fmt.Sprintf("%06X:", icao)
	for key := range e.emitted {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(e.emitted, key)
		}
	}
}

func (e *Engine) dedupKey(icao uint32, kind string) string {
	return fmt.Sprintf("%06X:%s", icao, kind)
}

func (e *Engine) fireOnce(icao uint32, kind string) bool {
	key := e.dedupKey(icao, kind)
	if e.emitted[key] {
		return false
	}
	e.emitted[key] = true
	return true
}

// CheckAircraft runs every per-aircraft condition against one
// aircraft's current state and returns the events that newly fire.
func (e *Engine) CheckAircraft(ac *tracker.Aircraft, now time.Time) []Event {
	var events []Event

	if ac.Military && e.fireOnce(ac.ICAO, KindMilitary) {
		events = append(events, e.newEvent(ac, KindMilitary, "military aircraft"))
	}

	if desc, emergency := emergencySquawks[ac.Squawk]; emergency && e.fireOnce(ac.ICAO, KindEmergencySquawk) {
		events = append(events, e.newEvent(ac, KindEmergencySquawk, desc))
	}

	if ac.HasVRate && ac.VRateFPM <= e.rapidDescentFPM && e.fireOnce(ac.ICAO, KindRapidDescent) {
		events = append(events, e.newEvent(ac, KindRapidDescent,
			fmt.Sprintf("rapid descent at %d fpm", ac.VRateFPM)))
	}

	if ac.HasAltitude && ac.AltitudeFt > 0 && ac.AltitudeFt < e.lowAltitudeFt && e.fireOnce(ac.ICAO, KindLowAltitude) {
		events = append(events, e.newEvent(ac, KindLowAltitude,
			fmt.Sprintf("low altitude %d ft", ac.AltitudeFt)))
	}

	if ac.HasPosition {
		for _, fence := range e.geofences {
			distNM := cpr.Haversine(ac.Lat, ac.Lon, fence.CenterLat, fence.CenterLon) / metersPerNM
			if distNM <= fence.RadiusNM {
				key := ac.ICAO
				dedupKind := "geofence:" + fence.Name
				if e.fireOnce(key, dedupKind) {
					events = append(events, e.newEvent(ac, KindGeofence,
						fmt.Sprintf("entered geofence %q", fence.Name)))
				}
			}
		}
	}

	if e.isCircling(ac, now) && e.fireOnce(ac.ICAO, KindCircling) {
		events = append(events, e.newEvent(ac, KindCircling, "sustained turn ≥360°"))
	}

	return events
}

const metersPerNM = 1852.0

func (e *Engine) newEvent(ac *tracker.Aircraft, kind, description string) Event {
	ev := Event{
		ICAO:        ac.ICAO,
		Kind:        kind,
		Description: description,
		Timestamp:   ac.LastSeen,
	}
	if ac.HasPosition {
		ev.HasLat = true
		ev.Lat, ev.Lon = ac.Lat, ac.Lon
	}
	if ac.HasAltitude {
		ev.HasAltitude = true
		ev.AltitudeFt = ac.AltitudeFt
	}
	return ev
}

// isCircling sums absolute, normalized pairwise heading deltas over
// the trailing circlingWindow and reports whether the cumulative
// turn meets circlingThresholdDeg (spec.md §4.7).
func (e *Engine) isCircling(ac *tracker.Aircraft, now time.Time) bool {
	all := ac.HeadingHistory.Chronological()
	cutoff := now.Add(-e.circlingWindow)

	var recent []float64
	for _, h := range all {
		if !h.Timestamp.Before(cutoff) {
			recent = append(recent, h.HeadingDeg)
		}
	}
	if len(recent) < 4 {
		return false
	}

	cumulative := 0.0
	for i := 1; i < len(recent); i++ {
		cumulative += math.Abs(normalizeHeadingDelta(recent[i] - recent[i-1]))
	}
	return cumulative >= e.circlingThresholdDeg
}

// normalizeHeadingDelta folds a raw heading difference into [-180, 180].
func normalizeHeadingDelta(delta float64) float64 {
	for delta > 180 {
		delta -= 360
	}
	for delta < -180 {
		delta += 360
	}
	return delta
}

// CheckProximity compares every pair of aircraft with known positions
// and emits a proximity event, keyed by the sorted ICAO pair, for each
// pair within the configured horizontal and (if both altitudes are
// known) vertical separation (spec.md §4.7).
func (e *Engine) CheckProximity(aircraft []*tracker.Aircraft) []Event {
	var events []Event

	positioned := make([]*tracker.Aircraft, 0, len(aircraft))
	for _, ac := range aircraft {
		if ac.HasPosition {
			positioned = append(positioned, ac)
		}
	}

	for i := 0; i < len(positioned); i++ {
		for j := i + 1; j < len(positioned); j++ {
			a, b := positioned[i], positioned[j]

			distNM := cpr.Haversine(a.Lat, a.Lon, b.Lat, b.Lon) / metersPerNM
			if distNM > e.proximityNM {
				continue
			}
			if a.HasAltitude && b.HasAltitude {
				vertFt := math.Abs(float64(a.AltitudeFt - b.AltitudeFt))
				if vertFt > e.proximityFt {
					continue
				}
			}

			key := pairKey(a.ICAO, b.ICAO)
			lower := a.ICAO
			if b.ICAO < lower {
				lower = b.ICAO
			}
			if !e.fireOnce(lower, "proximity:"+key) {
				continue
			}

			trigger := a
			if b.LastSeen.After(a.LastSeen) {
				trigger = b
			}
			events = append(events, e.newEvent(trigger, KindProximity,
				fmt.Sprintf("proximity with %06X", otherICAO(trigger.ICAO, a.ICAO, b.ICAO))))
		}
	}
	return events
}

func otherICAO(self, a, b uint32) uint32 {
	if self == a {
		return b
	}
	return a
}

func pairKey(a, b uint32) string {
	pair := []uint32{a, b}
	sort.Slice(pair, func(i, j int) bool { return pair[i] < pair[j] })
	return fmt.Sprintf("%06X-%06X", pair[0], pair[1])
}
