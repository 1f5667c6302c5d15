package domain

import "fmt"

// Event types rendered on the agenda.
const (
	EventMeeting   = "meeting"
	EventWorkBlock = "work-block"
	EventReminder  = "reminder"
)

// Event represents a single calendar entry in the mirror.
type Event struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	TimeOfDay string `json:"timeOfDay,omitempty"`
	Type      string `json:"type"`
}

// ApplyDefaults fills the fields the caller is allowed to omit on
// creation.
func (e *Event) ApplyDefaults() {
	if e.Type == "" {
		e.Type = EventMeeting
	}
}

// EventWithUpdates merges a partial update, keyed by mirror field
// names, into an existing event.
func EventWithUpdates(e Event, updates map[string]any) (Event, error) {
	merged, err := mergeRecord(e, updates)
	if err != nil {
		return Event{}, err
	}
	var out Event
	if err := decodeRecord(merged, &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// EventFromRecord decodes a mapped notification record into an event.
func EventFromRecord(record map[string]any) (Event, error) {
	var e Event
	if err := decodeRecord(record, &e); err != nil {
		return Event{}, err
	}
	if e.ID == "" {
		return Event{}, fmt.Errorf("event record has no id")
	}
	return e, nil
}
