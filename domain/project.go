package domain

import (
	"fmt"
	"time"
)

// Project statuses. The remote store accepts free-form values; these
// are the ones the dashboard renders specially.
const (
	ProjectActive  = "active"
	ProjectPending = "pending"
)

// DocumentLink is an external document reference attached to a project.
type DocumentLink struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Project represents a single project row in the mirror.
type Project struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Status         string         `json:"status"`
	Color          string         `json:"color,omitempty"`
	MonthlyRevenue float64        `json:"monthlyRevenue"`
	LogoURL        string         `json:"logoUrl,omitempty"`
	DocLinks       []DocumentLink `json:"docLinks,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ApplyDefaults fills the fields the caller is allowed to omit on
// creation.
func (p *Project) ApplyDefaults(now time.Time) {
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
}

// ProjectWithUpdates merges a partial update, keyed by mirror field
// names, into an existing project.
func ProjectWithUpdates(p Project, updates map[string]any) (Project, error) {
	merged, err := mergeRecord(p, updates)
	if err != nil {
		return Project{}, err
	}
	var out Project
	if err := decodeRecord(merged, &out); err != nil {
		return Project{}, err
	}
	return out, nil
}

// ProjectFromRecord decodes a mapped notification record into a project.
func ProjectFromRecord(record map[string]any) (Project, error) {
	var p Project
	if err := decodeRecord(record, &p); err != nil {
		return Project{}, err
	}
	if p.ID == "" {
		return Project{}, fmt.Errorf("project record has no id")
	}
	return p, nil
}
