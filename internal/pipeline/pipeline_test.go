package pipeline

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/config"
	"go1090/internal/filter"
	"go1090/internal/tracker"
)

type recordingSink struct {
	aircraft  []tracker.Aircraft
	positions []tracker.PositionPoint
}

func (s *recordingSink) UpsertAircraft(a tracker.Aircraft) { s.aircraft = append(s.aircraft, a) }
func (s *recordingSink) AppendPosition(icao uint32, p tracker.PositionPoint) {
	s.positions = append(s.positions, p)
}

type recordingNotifier struct {
	events []filter.Event
}

func (n *recordingNotifier) Notify(e filter.Event) { n.events = append(n.events, e) }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPipeline_IngestHexTracksPositionAndReportsStats(t *testing.T) {
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	p := New(config.Default(), testLogger(), sink, notifier)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.IngestHex("8D40621D58C386435CC412692AD6", base, 12.0)
	p.IngestHex("8D40621D58C382D690C8AC2863A7", base.Add(500*time.Millisecond), 12.0)

	snap := p.Stats()
	assert.Equal(t, uint64(2), snap.TotalFrames)
	assert.Equal(t, uint64(2), snap.ValidFrames)
	assert.Equal(t, uint64(0), snap.RejectedFrames)
	assert.Equal(t, uint64(1), snap.PositionDecodes)

	aircraft := p.Aircraft()
	require.Len(t, aircraft, 1)
	assert.True(t, aircraft[0].HasPosition)
	assert.InDelta(t, 52.2572, aircraft[0].Lat, 0.001)

	require.NotEmpty(t, sink.positions)
}

func TestPipeline_IngestHexRejectsGarbage(t *testing.T) {
	p := New(config.Default(), testLogger(), nil, nil)

	p.IngestHex("not-a-valid-frame", time.Now(), 0)

	snap := p.Stats()
	assert.Equal(t, uint64(1), snap.TotalFrames)
	assert.Equal(t, uint64(0), snap.ValidFrames)
	assert.Equal(t, uint64(1), snap.RejectedFrames)
	assert.NotEmpty(t, snap.RejectionsByReason)
}

func TestPipeline_StartStopShutsDownCleanly(t *testing.T) {
	p := New(config.Default(), testLogger(), nil, nil)
	p.Start()
	p.Stop()
}

func TestPipeline_NilSinksDefaultToDiscard(t *testing.T) {
	p := New(config.Default(), testLogger(), nil, nil)
	assert.NotPanics(t, func() {
		p.IngestHex("8D40621D58C382D690C8AC2863A7", time.Now(), 0)
	})
}
