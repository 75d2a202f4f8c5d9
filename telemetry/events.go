// Package telemetry provides particle statistics, performance timing and
// structured run output.
package telemetry

import "log/slog"

// EventType identifies operator events.
type EventType string

const (
	EventPause       EventType = "pause"
	EventResume      EventType = "resume"
	EventModeChange  EventType = "mode_change"
	EventImageSwitch EventType = "image_switch"
	EventResize      EventType = "resize"
	EventDispose     EventType = "dispose"
)

// Event is one operator command applied to the simulation.
type Event struct {
	RunID  string    `csv:"run_id"`
	Type   EventType `csv:"type"`
	Tick   int64     `csv:"tick"`
	Value  string    `csv:"value"`
	Detail string    `csv:"detail"`
}

// NewEvent creates an event at tick.
func NewEvent(typ EventType, tick int64, value, detail string) Event {
	return Event{Type: typ, Tick: tick, Value: value, Detail: detail}
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	attrs := []any{"type", string(e.Type), "tick", e.Tick}
	if e.Value != "" {
		attrs = append(attrs, "value", e.Value)
	}
	if e.Detail != "" {
		attrs = append(attrs, "detail", e.Detail)
	}
	slog.Info("event", attrs...)
}
