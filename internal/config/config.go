// Package config holds the pipeline's tunables as a single plain
// struct with constant defaults, following the teacher's
// internal/app/config.go pattern: no file parsing, no environment
// variables (configuration-file parsing is an explicit collaborator
// concern, spec.md §1 Non-goals) — just a struct a CLI or embedder
// fills in and passes to pipeline.New.
package config

import "time"

// Capture-source defaults (spec.md §6, carried from the teacher's
// app.Config).
const (
	DefaultFrequency  = 1090000000 // 1090 MHz
	DefaultSampleRate = 2000000    // 2 MHz, the rate internal/demod assumes
	DefaultGain       = 40         // manual gain, dB (converted to tenths by rtlsdr.Device)
)

// Domain tunable defaults (spec.md §6).
const (
	DefaultStaleTimeout        = 60 * time.Second
	DefaultICAOCacheTTL        = 60 * time.Second
	DefaultNoiseFloorAlpha     = 0.05
	DefaultPreambleRatio       = 2.0
	DefaultSNRFactorNumerator  = 2.0
	DefaultSNRFactorDenom      = 3.0
	DefaultBitDeltaThreshold   = 0.15
	DefaultMaxUncertainRatio   = 0.20
	DefaultRapidDescentFPM     = -5000
	DefaultLowAltitudeFt       = 500
	DefaultProximityNM         = 5.0
	DefaultProximityFt         = 1000.0
	DefaultCirclingWindow      = 300 * time.Second
	DefaultCirclingThreshold   = 360.0
	DefaultRingSize            = 120
	DefaultMinPositionInterval = 1 * time.Second
)

// PipelineConfig holds every tunable named in spec.md §6, plus the
// ambient capture-source and logging settings the teacher's
// application layer binds from CLI flags.
type PipelineConfig struct {
	// Capture source (demo collaborators: rtlsdr, beast, hex file/stdin).
	Frequency   uint32
	SampleRate  uint32
	Gain        int
	DeviceIndex int

	// Receiver reference position, used by the tracker's local CPR
	// decode fallback when no prior position is known for an aircraft.
	HasReference bool
	RefLat       float64
	RefLon       float64

	// Tracker.
	StaleTimeout        time.Duration
	MinPositionInterval time.Duration
	RingSize            int

	// ICAO cache.
	ICAOCacheTTL time.Duration

	// Demodulator.
	NoiseFloorAlpha    float64
	PreambleRatio      float64
	SNRFactorNumerator float64
	SNRFactorDenom     float64
	BitDeltaThreshold  float64
	MaxUncertainRatio  float64

	// Filter engine.
	RapidDescentFPM      int
	LowAltitudeFt        int
	ProximityNM          float64
	ProximityFt          float64
	CirclingWindow       time.Duration
	CirclingThresholdDeg float64

	// Ambient.
	LogDir       string
	LogRotateUTC bool
	Verbose      bool
}

// Default returns a PipelineConfig populated with every spec.md §6
// default.
func Default() PipelineConfig {
	return PipelineConfig{
		Frequency:   DefaultFrequency,
		SampleRate:  DefaultSampleRate,
		Gain:        DefaultGain,
		DeviceIndex: 0,

		StaleTimeout:        DefaultStaleTimeout,
		MinPositionInterval: DefaultMinPositionInterval,
		RingSize:            DefaultRingSize,

		ICAOCacheTTL: DefaultICAOCacheTTL,

		NoiseFloorAlpha:    DefaultNoiseFloorAlpha,
		PreambleRatio:      DefaultPreambleRatio,
		SNRFactorNumerator: DefaultSNRFactorNumerator,
		SNRFactorDenom:     DefaultSNRFactorDenom,
		BitDeltaThreshold:  DefaultBitDeltaThreshold,
		MaxUncertainRatio:  DefaultMaxUncertainRatio,

		RapidDescentFPM:      DefaultRapidDescentFPM,
		LowAltitudeFt:        DefaultLowAltitudeFt,
		ProximityNM:          DefaultProximityNM,
		ProximityFt:          DefaultProximityFt,
		CirclingWindow:       DefaultCirclingWindow,
		CirclingThresholdDeg: DefaultCirclingThreshold,

		LogDir:       "logs",
		LogRotateUTC: true,
	}
}
