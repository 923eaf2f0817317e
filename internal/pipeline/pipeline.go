// Package pipeline wires the demodulator/Beast/hex capture sources
// through the validator, decoder (via tracker.Update), tracker and
// filter engine into one component, owning periodic statistics
// reporting and stale-aircraft pruning exactly as the teacher's
// internal/app.Application does for its RTL-SDR/ADS-B/BaseStation
// wiring — generalized to the spec's stage boundaries and to accept
// any capture source, not just RTL-SDR.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/config"
	"go1090/internal/demod"
	"go1090/internal/filter"
	"go1090/internal/icao"
	"go1090/internal/tracker"
	"go1090/internal/validator"
)

// Stats is the pipeline's running counters (spec.md §3 "PipelineStats").
type Stats struct {
	mu sync.Mutex

	TotalFrames     uint64
	ValidFrames     uint64
	RejectedFrames  uint64
	CorrectedFrames uint64
	PreambleCount   uint64
	PositionDecodes uint64

	rejectionsByReason map[string]uint64
}

func newStats() *Stats {
	return &Stats{rejectionsByReason: make(map[string]uint64)}
}

func (s *Stats) recordAccepted(corrected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalFrames++
	s.ValidFrames++
	if corrected {
		s.CorrectedFrames++
	}
}

func (s *Stats) recordRejected(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalFrames++
	s.RejectedFrames++
	key := "unknown"
	if reason != nil {
		key = reason.Error()
	}
	s.rejectionsByReason[key]++
}

// Snapshot is a point-in-time, safe-to-read copy of Stats.
type Snapshot struct {
	TotalFrames        uint64
	ValidFrames        uint64
	RejectedFrames     uint64
	CorrectedFrames    uint64
	PreambleCount      uint64
	PositionDecodes    uint64
	RejectionsByReason map[string]uint64
}

// Snapshot copies the current counters out from under the lock.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	reasons := make(map[string]uint64, len(s.rejectionsByReason))
	for k, v := range s.rejectionsByReason {
		reasons[k] = v
	}
	return Snapshot{
		TotalFrames:        s.TotalFrames,
		ValidFrames:        s.ValidFrames,
		RejectedFrames:     s.RejectedFrames,
		CorrectedFrames:    s.CorrectedFrames,
		PreambleCount:      s.PreambleCount,
		PositionDecodes:    s.PositionDecodes,
		RejectionsByReason: reasons,
	}
}

// Pipeline wires a capture source's output through validator → tracker
// (which internally decodes) → filter engine, emitting aircraft
// upserts, position points, and events to the configured sinks
// (spec.md §6 External Interfaces). Not safe for concurrent use by
// multiple goroutines feeding frames — a single pipeline owns one
// ICAO cache, one tracker, one filter engine (spec.md §5, §9).
type Pipeline struct {
	cfg    config.PipelineConfig
	logger *logrus.Logger

	cache     *icao.Cache
	validator *validator.Validator
	tracker   *tracker.Tracker
	filter    *filter.Engine
	scanner   *demod.Scanner

	notifications filter.NotificationSink

	stats *Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Pipeline. persistence may be nil (tracker.NullSink is
// used); notifications may be nil (events are dropped).
func New(cfg config.PipelineConfig, logger *logrus.Logger, persistence tracker.PersistenceSink, notifications filter.NotificationSink, filterOpts ...filter.Option) *Pipeline {
	cache := icao.New(cfg.ICAOCacheTTL)
	v := validator.New(cache, true)

	trackerCfg := tracker.Config{
		RingSize:            cfg.RingSize,
		StaleTimeout:        cfg.StaleTimeout,
		MinPositionInterval: cfg.MinPositionInterval,
		HasReference:        cfg.HasReference,
		RefLat:              cfg.RefLat,
		RefLon:              cfg.RefLon,
	}
	t := tracker.New(persistence, trackerCfg)

	opts := append([]filter.Option{
		filter.WithRapidDescentThreshold(cfg.RapidDescentFPM),
		filter.WithLowAltitudeThreshold(cfg.LowAltitudeFt),
		filter.WithProximity(cfg.ProximityNM, cfg.ProximityFt),
		filter.WithCirclingWindow(cfg.CirclingWindow, cfg.CirclingThresholdDeg),
	}, filterOpts...)
	f := filter.New(opts...)

	scanner := demod.NewScanner(0, float64(cfg.SampleRate), "demod")

	if notifications == nil {
		notifications = filter.NullNotificationSink{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		cfg:           cfg,
		logger:        logger,
		cache:         cache,
		validator:     v,
		tracker:       t,
		filter:        f,
		scanner:       scanner,
		notifications: notifications,
		stats:         newStats(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start launches the background stale-pruning and statistics-reporting
// loops. Mirrors the teacher's goroutine-per-concern Application.run.
func (p *Pipeline) Start() {
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.pruneLoop()
	}()
	go func() {
		defer p.wg.Done()
		p.reportLoop()
	}()
}

// Stop cancels the background loops and waits for them to exit, with a
// 5-second forced-exit fallback matching the teacher's shutdown.
func (p *Pipeline) Stop() {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("pipeline goroutines finished")
	case <-time.After(5 * time.Second):
		p.logger.Warn("pipeline shutdown timeout, forcing exit")
	}
}

// IngestHex validates, decodes, tracks and filters one hex-encoded
// frame (spec.md §6 "hex-frame stream" input). Rejections are counted
// and logged at debug level, never returned — the hot path never
// raises (spec.md §7).
func (p *Pipeline) IngestHex(line string, at time.Time, signal float64) {
	frame, err := p.validator.ValidateHex(line, at, signal)
	if err != nil {
		p.stats.recordRejected(err)
		p.logger.WithError(err).Debug("rejected hex frame")
		return
	}
	p.stats.recordAccepted(frame.Corrected)
	p.process(frame)
}

// IngestRawFrame validates, decodes, tracks and filters one
// demodulator- or Beast-produced RawFrame.
func (p *Pipeline) IngestRawFrame(raw demod.RawFrame) {
	p.IngestHex(raw.Hex, raw.Timestamp, raw.Signal)
}

// IngestIQChunk demodulates one chunk of IQ bytes and ingests every
// recovered frame. baseTime is the wall-clock time of the chunk's
// first sample; callers must overlap successive chunks by at least
// demod.DetectionWindow samples (spec.md §4.3) — rtlsdr.Device already
// does this for its capture stream.
func (p *Pipeline) IngestIQChunk(iq []byte, baseTime time.Time) {
	frames := p.scanner.ScanChunk(iq, baseTime)
	p.stats.mu.Lock()
	p.stats.PreambleCount += uint64(len(frames))
	p.stats.mu.Unlock()
	for _, frame := range frames {
		p.IngestRawFrame(frame)
	}
}

func (p *Pipeline) process(frame validator.ModeFrame) {
	_, ok := p.tracker.Update(frame)
	if !ok {
		return
	}

	ac, found := p.tracker.Get(frame.ICAO)
	if !found {
		return
	}
	if ac.HasPosition {
		p.stats.mu.Lock()
		p.stats.PositionDecodes = p.tracker.PositionDecodes
		p.stats.mu.Unlock()
	}

	now := frame.Timestamp
	for _, ev := range p.filter.CheckAircraft(ac, now) {
		p.notifications.Notify(ev)
	}
}

func (p *Pipeline) pruneLoop() {
	interval := p.cfg.StaleTimeout / 4
	if interval <= 0 {
		interval = config.DefaultStaleTimeout / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case now := <-ticker.C:
			removed := p.tracker.PruneStale(now)
			if len(removed) > 0 {
				p.logger.WithField("count", len(removed)).Debug("pruned stale aircraft")
				for _, addr := range removed {
					p.filter.ClearAircraft(addr)
				}
			}

			for _, ev := range p.filter.CheckProximity(p.tracker.All()) {
				p.notifications.Notify(ev)
			}
		}
	}
}

func (p *Pipeline) reportLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			snap := p.stats.Snapshot()
			successRate := 0.0
			if snap.TotalFrames > 0 {
				successRate = float64(snap.ValidFrames) / float64(snap.TotalFrames) * 100
			}
			p.logger.WithFields(logrus.Fields{
				"total_frames":     snap.TotalFrames,
				"valid_frames":     snap.ValidFrames,
				"rejected_frames":  snap.RejectedFrames,
				"corrected_frames": snap.CorrectedFrames,
				"position_decodes": snap.PositionDecodes,
				"success_rate":     fmt.Sprintf("%.2f%%", successRate),
				"aircraft_tracked": p.tracker.Len(),
			}).Info("pipeline statistics")
		}
	}
}

// Stats returns a snapshot of the pipeline's running counters.
func (p *Pipeline) Stats() Snapshot {
	return p.stats.Snapshot()
}

// Aircraft returns every currently tracked aircraft.
func (p *Pipeline) Aircraft() []*tracker.Aircraft {
	return p.tracker.All()
}
