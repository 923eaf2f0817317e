// Package basestation writes tracker.Aircraft and filter.Event state
// out in the BaseStation/SBS-1 CSV wire format, the demo persistence
// and notification sink shipped alongside this core (spec.md §6).
//
// Grounded on the teacher's internal/basestation/writer.go, adapted to
// consume already-decoded tracker.Aircraft/filter.Event instead of
// raw Beast bytes — the CPR/velocity/altitude extraction the teacher
// did inline here now lives upstream in internal/decoder and
// internal/tracker, so this package is a pure formatter.
package basestation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/filter"
	"go1090/internal/logging"
	"go1090/internal/tracker"
)

// BaseStation message type (only MSG lines are produced; SEL/ID/AIR/
// STA/CLK belong to a live BaseStation session the teacher never
// implemented either).
const MSG = "MSG"

// BaseStation transmission types (spec.md §3 "BaseStation CSV").
const (
	TransmissionESIdentCategory = 1
	TransmissionESSurface       = 2
	TransmissionESAirborne      = 3
	TransmissionESVelocity      = 4
	TransmissionSurveillance    = 5
)

// Writer implements tracker.PersistenceSink and filter.NotificationSink,
// serializing aircraft/position updates as BaseStation CSV lines and
// events as single-line JSON, each through its own LogRotator.
type Writer struct {
	logRotator   *logging.LogRotator
	eventRotator *logging.LogRotator
	logger       *logrus.Logger

	sessionID      int
	aircraftIDs    map[uint32]int
	nextAircraftID int
}

// NewWriter creates a BaseStation writer. eventRotator may be nil if
// the caller has no use for notifications (events are then dropped
// with a debug log line).
func NewWriter(logRotator, eventRotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{
		logRotator:     logRotator,
		eventRotator:   eventRotator,
		logger:         logger,
		sessionID:      1,
		aircraftIDs:    make(map[uint32]int),
		nextAircraftID: 1,
	}
}

var _ tracker.PersistenceSink = (*Writer)(nil)
var _ filter.NotificationSink = (*Writer)(nil)

// aircraftID returns the stable per-session integer ID BaseStation
// consumers expect in place of a hex ICAO, assigning a new one the
// first time an ICAO is seen.
func (w *Writer) aircraftID(icao uint32) int {
	if id, ok := w.aircraftIDs[icao]; ok {
		return id
	}
	id := w.nextAircraftID
	w.aircraftIDs[icao] = id
	w.nextAircraftID++
	return id
}

// UpsertAircraft writes a surveillance-style MSG line capturing the
// aircraft's current callsign, altitude, speed, heading, position and
// squawk (spec.md §6 PersistenceSink).
func (w *Writer) UpsertAircraft(a tracker.Aircraft) {
	transmission := TransmissionSurveillance
	if a.Callsign != "" {
		transmission = TransmissionESIdentCategory
	} else if a.HasPosition {
		transmission = TransmissionESAirborne
	} else if a.HasSpeed {
		transmission = TransmissionESVelocity
	}

	msg := csvMessage{
		messageType:      MSG,
		transmissionType: transmission,
		sessionID:        w.sessionID,
		aircraftID:       w.aircraftID(a.ICAO),
		hexIdent:         hexIdent(a.ICAO),
		generated:        a.LastSeen,
		logged:           a.LastSeen,
		callsign:         a.Callsign,
		squawk:           a.Squawk,
	}
	if a.HasAltitude {
		msg.altitude = strconv.Itoa(a.AltitudeFt)
	}
	if a.HasSpeed {
		msg.groundSpeed = fmt.Sprintf("%.0f", a.SpeedKnots)
	}
	if a.HasHeading {
		msg.track = fmt.Sprintf("%.1f", a.HeadingDeg)
	}
	if a.HasPosition {
		msg.latitude = fmt.Sprintf("%.6f", a.Lat)
		msg.longitude = fmt.Sprintf("%.6f", a.Lon)
	}
	if a.HasVRate {
		msg.verticalRate = strconv.Itoa(a.VRateFPM)
	}

	w.writeCSV(msg)
}

// AppendPosition writes a dedicated airborne-position MSG line for one
// resolved position point (spec.md §6 PersistenceSink).
func (w *Writer) AppendPosition(icao uint32, p tracker.PositionPoint) {
	msg := csvMessage{
		messageType:      MSG,
		transmissionType: TransmissionESAirborne,
		sessionID:        w.sessionID,
		aircraftID:       w.aircraftID(icao),
		hexIdent:         hexIdent(icao),
		generated:        p.Timestamp,
		logged:           p.Timestamp,
		latitude:         fmt.Sprintf("%.6f", p.Lat),
		longitude:        fmt.Sprintf("%.6f", p.Lon),
	}
	if p.AltFeet != 0 {
		msg.altitude = strconv.Itoa(p.AltFeet)
	}
	w.writeCSV(msg)
}

// notificationPayload is the fire-and-forget JSON line written for
// each filter.Event (spec.md §6 "Notification payload").
type notificationPayload struct {
	ICAO        string  `json:"icao"`
	EventType   string  `json:"event_type"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	AltitudeFt  int     `json:"altitude_ft,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

// Notify writes e as one JSON line to the event log. Marshal or write
// failures are logged and dropped, never returned: spec.md §6 requires
// notification delivery to be fire-and-forget.
func (w *Writer) Notify(e filter.Event) {
	if w.eventRotator == nil {
		w.logger.WithField("kind", e.Kind).Debug("no event rotator wired, dropping notification")
		return
	}

	payload := notificationPayload{
		ICAO:        hexIdent(e.ICAO),
		EventType:   e.Kind,
		Description: e.Description,
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.HasLat {
		payload.Lat, payload.Lon = e.Lat, e.Lon
	}
	if e.HasAltitude {
		payload.AltitudeFt = e.AltitudeFt
	}

	line, err := json.Marshal(payload)
	if err != nil {
		w.logger.WithError(err).Error("failed to marshal notification")
		return
	}

	writer, err := w.eventRotator.GetWriter()
	if err != nil {
		w.logger.WithError(err).Error("failed to get event log writer")
		return
	}
	if _, err := writer.Write(append(line, '\n')); err != nil {
		w.logger.WithError(err).Error("failed to write notification")
	}
}

func hexIdent(icao uint32) string {
	return fmt.Sprintf("%06X", icao)
}

// csvMessage holds the BaseStation CSV fields for one MSG line.
type csvMessage struct {
	messageType      string
	transmissionType int
	sessionID        int
	aircraftID       int
	hexIdent         string
	generated        time.Time
	logged           time.Time
	callsign         string
	altitude         string
	groundSpeed      string
	track            string
	latitude         string
	longitude        string
	verticalRate     string
	squawk           string
	alert            string
}

// writeCSV formats msg as a BaseStation CSV line and writes it through
// the log rotator. Write failures are logged and dropped (spec.md §6
// persistence sinks must not stall the per-frame path).
func (w *Writer) writeCSV(msg csvMessage) {
	fields := []string{
		msg.messageType,
		strconv.Itoa(msg.transmissionType),
		strconv.Itoa(msg.sessionID),
		strconv.Itoa(msg.aircraftID),
		msg.hexIdent,
		strconv.Itoa(msg.aircraftID),
		msg.generated.Format("2006/01/02"),
		msg.generated.Format("15:04:05.000"),
		msg.logged.Format("2006/01/02"),
		msg.logged.Format("15:04:05.000"),
		msg.callsign,
		msg.altitude,
		msg.groundSpeed,
		msg.track,
		msg.latitude,
		msg.longitude,
		msg.verticalRate,
		msg.squawk,
		msg.alert,
	}
	line := strings.Join(fields, ",")

	writer, err := w.logRotator.GetWriter()
	if err != nil {
		w.logger.WithError(err).Error("failed to get log writer")
		return
	}
	if _, err := writer.Write([]byte(line + "\n")); err != nil {
		w.logger.WithError(err).Error("failed to write basestation line")
	}
}
