// Package tracker implements the per-ICAO aircraft state machine:
// message ingestion, CPR pair buffering and resolution, bounded
// position/heading history, ingest-side downsampling to the
// persistence sink, and stale-aircraft pruning (spec.md §4.6).
package tracker

import (
	"time"

	"go1090/internal/cpr"
	"go1090/internal/decoder"
	"go1090/internal/icao"
	"go1090/internal/validator"
)

// cprPairMaxAge is the maximum timestamp gap between an even and odd
// CPR buffer for them to be paired (spec.md §3 invariant).
const cprPairMaxAge = 10 * time.Second

// DefaultStaleTimeout is how long an aircraft may go unheard before
// PruneStale evicts it (spec.md §6).
const DefaultStaleTimeout = 60 * time.Second

// Config holds the tracker's tunables (spec.md §6). Zero-value Config
// uses every default.
type Config struct {
	RingSize            int
	StaleTimeout        time.Duration
	MinPositionInterval time.Duration // 0 disables downsampling
	HasReference        bool
	RefLat, RefLon      float64
}

func (c Config) withDefaults() Config {
	if c.RingSize <= 0 {
		c.RingSize = DefaultRingSize
	}
	if c.StaleTimeout <= 0 {
		c.StaleTimeout = DefaultStaleTimeout
	}
	return c
}

// Tracker owns the aircraft map and dispatches decoded messages into
// it. Not safe for concurrent use — owned by exactly one pipeline
// (spec.md §5).
type Tracker struct {
	cfg      Config
	sink     PersistenceSink
	aircraft map[uint32]*Aircraft

	TotalFrames     uint64
	ValidFrames     uint64
	PositionDecodes uint64
}

// New creates a Tracker. A nil sink is replaced with NullSink.
func New(sink PersistenceSink, cfg Config) *Tracker {
	if sink == nil {
		sink = NullSink{}
	}
	return &Tracker{
		cfg:      cfg.withDefaults(),
		sink:     sink,
		aircraft: make(map[uint32]*Aircraft),
	}
}

// Update ingests one validated Mode frame, per spec.md §4.6's
// numbered contract. Returns the decoded message and true if the frame
// carried one this tracker understands.
func (tr *Tracker) Update(frame validator.ModeFrame) (decoder.Message, bool) {
	tr.TotalFrames++

	msg, ok := decodeByDF(frame)
	if !ok {
		return decoder.Message{}, false
	}
	tr.ValidFrames++

	ac, created := tr.getOrCreate(frame.ICAO, frame.Timestamp)
	if created {
		ac.Country = icao.CountryOf(frame.ICAO)
		ac.Registration = icao.NNumber(frame.ICAO)
		ac.Military = icao.IsMilitaryBlock(frame.ICAO)
	}
	ac.LastSeen = frame.Timestamp
	ac.MessageCount++

	switch msg.Kind {
	case decoder.KindIdentification:
		ac.Callsign = msg.Identification.Callsign
		if icao.IsMilitaryCallsign(ac.Callsign) {
			ac.Military = true
		}

	case decoder.KindPosition:
		tr.applyPosition(ac, msg.Position, frame.Timestamp)

	case decoder.KindVelocity:
		v := msg.Velocity
		if v.SpeedKnots > 0 || v.SpeedType == "ground" {
			ac.HasSpeed = true
			ac.SpeedKnots = v.SpeedKnots
		}
		if v.HeadingValid {
			ac.HasHeading = true
			ac.HeadingDeg = v.HeadingDeg
			ac.HeadingHistory.Append(HeadingPoint{Timestamp: frame.Timestamp, HeadingDeg: v.HeadingDeg})
		}
		if v.VRateAvailable {
			ac.HasVRate = true
			ac.VRateFPM = v.VerticalRateFPM
		}

	case decoder.KindAltitude:
		if !msg.Altitude.Unavailable {
			ac.HasAltitude = true
			ac.AltitudeFt = msg.Altitude.Feet
		}

	case decoder.KindSquawk:
		ac.Squawk = msg.Squawk
	}

	tr.sink.UpsertAircraft(*ac)
	return msg, true
}

func decodeByDF(frame validator.ModeFrame) (decoder.Message, bool) {
	switch frame.DF {
	case 17, 18:
		return decoder.DecodeExtendedSquitter(frame.Data)
	case 0, 4, 16, 20:
		return decoder.DecodeAltitudeReply(frame.Data), true
	case 5, 21:
		return decoder.DecodeSquawkReply(frame.Data), true
	default:
		return decoder.Message{}, false
	}
}

func (tr *Tracker) getOrCreate(addr uint32, at time.Time) (*Aircraft, bool) {
	if ac, ok := tr.aircraft[addr]; ok {
		return ac, false
	}
	ac := newAircraft(addr, at, tr.cfg.RingSize)
	tr.aircraft[addr] = ac
	return ac, true
}

// applyPosition buffers the CPR frame by parity, attempts resolution,
// and on success updates the aircraft's position and forwards it to
// the sink subject to min_position_interval downsampling (spec.md §4.6
// "CPR resolution order" and "Ingest-side position downsampling").
func (tr *Tracker) applyPosition(ac *Aircraft, p decoder.Position, at time.Time) {
	if !p.Altitude.Unavailable && p.Altitude.Feet != 0 {
		ac.HasAltitude = true
		ac.AltitudeFt = p.Altitude.Feet
	}

	frame := cpr.Frame{Odd: p.Odd, Lat: p.LatCPR, Lon: p.LonCPR}
	if p.Odd {
		ac.oddCPR = cprBuffer{frame: frame, timestamp: at, valid: true}
	} else {
		ac.evenCPR = cprBuffer{frame: frame, timestamp: at, valid: true}
	}

	lat, lon, ok := tr.resolvePosition(ac)
	if !ok {
		return
	}

	ac.HasPosition = true
	ac.Lat, ac.Lon = lat, lon
	ac.PositionHistory.Append(PositionPoint{Timestamp: at, Lat: lat, Lon: lon, AltFeet: ac.AltitudeFt})
	tr.PositionDecodes++

	if tr.cfg.MinPositionInterval <= 0 || ac.lastForwarded.IsZero() ||
		at.Sub(ac.lastForwarded) >= tr.cfg.MinPositionInterval {
		tr.sink.AppendPosition(ac.ICAO, PositionPoint{Timestamp: at, Lat: lat, Lon: lon, AltFeet: ac.AltitudeFt})
		ac.lastForwarded = at
	}
}

func (tr *Tracker) resolvePosition(ac *Aircraft) (lat, lon float64, ok bool) {
	if ac.evenCPR.valid && ac.oddCPR.valid {
		delta := ac.evenCPR.timestamp.Sub(ac.oddCPR.timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= cprPairMaxAge {
			latestIsOdd := ac.oddCPR.timestamp.After(ac.evenCPR.timestamp)
			if lat, lon, ok := cpr.DecodeGlobal(ac.evenCPR.frame, ac.oddCPR.frame, latestIsOdd); ok {
				return lat, lon, true
			}
		}
	}

	refLat, refLon, haveRef := tr.referencePosition(ac)
	if !haveRef {
		return 0, 0, false
	}

	var latest cprBuffer
	switch {
	case ac.oddCPR.valid && ac.evenCPR.valid:
		if ac.oddCPR.timestamp.After(ac.evenCPR.timestamp) {
			latest = ac.oddCPR
		} else {
			latest = ac.evenCPR
		}
	case ac.oddCPR.valid:
		latest = ac.oddCPR
	case ac.evenCPR.valid:
		latest = ac.evenCPR
	default:
		return 0, 0, false
	}

	lat, lon = cpr.DecodeLocal(latest.frame, refLat, refLon)
	return lat, lon, true
}

func (tr *Tracker) referencePosition(ac *Aircraft) (lat, lon float64, ok bool) {
	if ac.HasPosition {
		return ac.Lat, ac.Lon, true
	}
	if tr.cfg.HasReference {
		return tr.cfg.RefLat, tr.cfg.RefLon, true
	}
	return 0, 0, false
}

// PruneStale removes every aircraft whose age exceeds the configured
// stale timeout, as of now, and returns the ICAO addresses removed so
// callers can reset any per-aircraft state keyed off them (e.g. the
// filter engine's de-dup set, spec.md §4.7).
func (tr *Tracker) PruneStale(now time.Time) []uint32 {
	var removed []uint32
	for addr, ac := range tr.aircraft {
		if ac.Age(now) > tr.cfg.StaleTimeout {
			delete(tr.aircraft, addr)
			removed = append(removed, addr)
		}
	}
	return removed
}

// Get returns the tracked aircraft for addr, if any.
func (tr *Tracker) Get(addr uint32) (*Aircraft, bool) {
	ac, ok := tr.aircraft[addr]
	return ac, ok
}

// Len reports the number of currently tracked aircraft.
func (tr *Tracker) Len() int { return len(tr.aircraft) }

// All returns every tracked aircraft, for callers that need to iterate
// (e.g. the filter engine's pairwise proximity check).
func (tr *Tracker) All() []*Aircraft {
	out := make([]*Aircraft, 0, len(tr.aircraft))
	for _, ac := range tr.aircraft {
		out = append(out, ac)
	}
	return out
}
