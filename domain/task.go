package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Task represents a single task row in the mirror.
type Task struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	PlannedDay  string     `json:"plannedDay,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ApplyDefaults fills the fields the caller is allowed to omit on
// creation. The remote store assigns the id.
func (t *Task) ApplyDefaults(now time.Time) {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}

// NormalizeCompletion enforces that the completion timestamp is set
// exactly when the task is completed.
func (t *Task) NormalizeCompletion(now time.Time) {
	if t.Status == StatusCompleted {
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
		return
	}
	t.CompletedAt = nil
}

// TaskWithUpdates merges a partial update, keyed by mirror field names,
// into an existing task.
func TaskWithUpdates(t Task, updates map[string]any) (Task, error) {
	merged, err := mergeRecord(t, updates)
	if err != nil {
		return Task{}, err
	}
	var out Task
	if err := decodeRecord(merged, &out); err != nil {
		return Task{}, err
	}
	return out, nil
}

// TaskFromRecord decodes a mapped notification record into a task.
func TaskFromRecord(record map[string]any) (Task, error) {
	var t Task
	if err := decodeRecord(record, &t); err != nil {
		return Task{}, err
	}
	if t.ID == "" {
		return Task{}, fmt.Errorf("task record has no id")
	}
	return t, nil
}

func mergeRecord(entity any, updates map[string]any) (map[string]any, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged, nil
}

func decodeRecord(record map[string]any, out any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// EntityRecord flattens an entity into a record keyed by mirror field
// names, ready for the outbound side of the field mapping.
func EntityRecord(entity any) (map[string]any, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	record := map[string]any{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}
