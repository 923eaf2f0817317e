package filter

// NotificationSink is the collaborator interface the Engine's caller
// forwards fired Events to (spec.md §6). Fire-and-forget: Notify takes
// no error return, matching tracker.PersistenceSink's convention — a
// failed notification must never stall the per-frame path.
//
// basestation.Writer (internal/basestation) is the demo implementation
// shipped alongside this core.
type NotificationSink interface {
	Notify(e Event)
}

// NullNotificationSink discards every event. Useful as a default when
// no notification collaborator is wired.
type NullNotificationSink struct{}

func (NullNotificationSink) Notify(Event) {}

var _ NotificationSink = NullNotificationSink{}
