package domain

import "time"

// CategoryGeneral is the default attachment category. Anything else
// ("contract", "invoice", ...) is an opaque label chosen by the UI.
const CategoryGeneral = "general"

// Attachment is a locally stored file belonging to a project. It has
// no remote mirror; the payload never leaves the machine.
type Attachment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	Category  string    `json:"category"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
