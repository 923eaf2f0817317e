package tracker

// PersistenceSink is the collaborator interface the tracker forwards
// aircraft upserts and position points to (spec.md §6). Implementations
// must not let failures propagate into the per-frame path: log and
// drop, or batch out-of-band.
//
// basestation.Writer (internal/basestation) is the demo implementation
// shipped alongside this core.
type PersistenceSink interface {
	// UpsertAircraft is called whenever an aircraft's tracked fields
	// change. Implementations must preserve the earliest FirstSeen and
	// take the max of LastSeen across calls for the same ICAO, and
	// latch Military to true once observed true (spec.md §6).
	UpsertAircraft(a Aircraft)

	// AppendPosition records one point in a per-aircraft time-ordered
	// position log.
	AppendPosition(icao uint32, p PositionPoint)
}

// NullSink discards everything. Useful as a default when no
// persistence collaborator is wired.
type NullSink struct{}

func (NullSink) UpsertAircraft(Aircraft)                {}
func (NullSink) AppendPosition(uint32, PositionPoint) {}

var _ PersistenceSink = NullSink{}
