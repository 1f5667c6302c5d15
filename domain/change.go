package domain

import "encoding/json"

// Collections mirrored from the remote store.
const (
	CollectionTasks    = "tasks"
	CollectionProjects = "projects"
	CollectionEvents   = "events"
)

// Collections lists every mirrored collection in load order.
var Collections = []string{CollectionTasks, CollectionProjects, CollectionEvents}

// Change event types as delivered on the notification feed.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Change is a single change-notification envelope. Record carries the
// remote store's field names; for deletes it may hold only the id.
// ID identifies the delivery for at-least-once dedup and may be empty.
type Change struct {
	ID        string         `json:"id,omitempty"`
	EventType string         `json:"eventType"`
	Record    map[string]any `json:"record"`
}

// ParseChange decodes a notification payload. A payload without an
// event type or record is rejected so a malformed message never
// reaches the reconciler.
func ParseChange(payload []byte) (Change, error) {
	var ch Change
	if err := json.Unmarshal(payload, &ch); err != nil {
		return Change{}, err
	}
	switch ch.EventType {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
	default:
		return Change{}, &MalformedChangeError{Reason: "unknown event type " + ch.EventType}
	}
	if len(ch.Record) == 0 {
		return Change{}, &MalformedChangeError{Reason: "empty record"}
	}
	return ch, nil
}

// MalformedChangeError reports a notification payload that parsed as
// JSON but does not describe a usable change.
type MalformedChangeError struct {
	Reason string
}

func (e *MalformedChangeError) Error() string {
	return "malformed change notification: " + e.Reason
}
