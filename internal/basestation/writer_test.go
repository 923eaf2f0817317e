package basestation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/filter"
	"go1090/internal/logging"
	"go1090/internal/tracker"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestWriter_UpsertAircraftWritesMSGLine(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "basestation_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)

	logger := newTestLogger()
	logRotator, err := logging.NewLogRotator(tmpdir, true, logger)
	require.NoError(t, err)
	defer logRotator.Close()

	w := NewWriter(logRotator, nil, logger)

	ac := tracker.Aircraft{
		ICAO:        0x484412,
		Callsign:    "KLM123",
		HasAltitude: true,
		AltitudeFt:  38000,
		LastSeen:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	w.UpsertAircraft(ac)

	files, err := filepath.Glob(filepath.Join(tmpdir, "*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "MSG,"))
	assert.Contains(t, lines[0], "484412")
	assert.Contains(t, lines[0], "KLM123")
	assert.Contains(t, lines[0], "38000")
}

func TestWriter_AppendPositionWritesAirbornePosition(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "basestation_position_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)

	logger := newTestLogger()
	logRotator, err := logging.NewLogRotator(tmpdir, true, logger)
	require.NoError(t, err)
	defer logRotator.Close()

	w := NewWriter(logRotator, nil, logger)

	w.AppendPosition(0x3C6444, tracker.PositionPoint{
		Timestamp: time.Now(),
		Lat:       52.2572,
		Lon:       3.9194,
		AltFeet:   38000,
	})

	files, err := filepath.Glob(filepath.Join(tmpdir, "*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	line := strings.TrimSpace(string(content))

	fields := strings.Split(line, ",")
	require.Len(t, fields, 19)
	assert.Equal(t, "3", fields[1])
	assert.Equal(t, "52.257200", fields[14])
	assert.Equal(t, "3.919400", fields[15])
}

func TestWriter_NotifyWritesJSONLine(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "basestation_event_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)

	logger := newTestLogger()
	logRotator, err := logging.NewLogRotator(tmpdir, true, logger)
	require.NoError(t, err)
	defer logRotator.Close()

	eventRotator, err := logging.NewLogRotator(filepath.Join(tmpdir, "events"), true, logger)
	require.NoError(t, err)
	defer eventRotator.Close()

	w := NewWriter(logRotator, eventRotator, logger)

	w.Notify(filter.Event{
		ICAO:        0xABCDEF,
		Kind:        filter.KindEmergencySquawk,
		Description: "Emergency",
		HasLat:      true,
		Lat:         52.0,
		Lon:         4.0,
		HasAltitude: true,
		AltitudeFt:  10000,
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	files, err := filepath.Glob(filepath.Join(tmpdir, "events", "*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	line := strings.TrimSpace(string(content))

	assert.Contains(t, line, `"icao":"ABCDEF"`)
	assert.Contains(t, line, `"event_type":"emergency_squawk"`)
	assert.Contains(t, line, `"altitude_ft":10000`)
}

func TestWriter_NotifyWithNilEventRotatorDropsSilently(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "basestation_nilrotator_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)

	logger := newTestLogger()
	logRotator, err := logging.NewLogRotator(tmpdir, true, logger)
	require.NoError(t, err)
	defer logRotator.Close()

	w := NewWriter(logRotator, nil, logger)

	assert.NotPanics(t, func() {
		w.Notify(filter.Event{ICAO: 0x1, Kind: filter.KindMilitary, Timestamp: time.Now()})
	})
}

func TestWriter_AircraftIDStableAcrossCalls(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "basestation_id_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)

	logger := newTestLogger()
	logRotator, err := logging.NewLogRotator(tmpdir, true, logger)
	require.NoError(t, err)
	defer logRotator.Close()

	w := NewWriter(logRotator, nil, logger)

	first := w.aircraftID(0x100001)
	second := w.aircraftID(0x100002)
	again := w.aircraftID(0x100001)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, second)
}
