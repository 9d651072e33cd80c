package domain

import "time"

// Status of a stored intervention. Deleted records are kept (soft delete).
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Comment is a free-text note appended to an intervention.
type Comment struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageRef points to an image stored in the object store.
type ImageRef struct {
	Key        string    `json:"key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Intervention is a unit of field work, identified by (Phone, Reference).
type Intervention struct {
	Phone     string
	Reference string
	Type      string
	Date      string // YYYY-MM-DD
	Status    Status
	Comments  []Comment
	Images    []ImageRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Intervention) Active() bool {
	return i.Status == StatusActive
}

// UpdateFields are the only mutable attributes of an intervention.
// Nil means unchanged.
type UpdateFields struct {
	Type *string
	Date *string
}

func (f UpdateFields) Empty() bool {
	return f.Type == nil && f.Date == nil
}

// ListQuery filters active interventions by date. Dates are YYYY-MM-DD
// strings so lexicographic order is chronological order.
type ListQuery struct {
	Scope ListScope
	// Exact matches a single day (TODAY, DATE).
	Exact string
	// Since is an inclusive lower bound (WEEK, MONTH).
	Since string
}

// Match reports whether a stored date falls in the query window.
func (q ListQuery) Match(date string) bool {
	if q.Exact != "" {
		return date == q.Exact
	}
	if q.Since != "" {
		return date >= q.Since
	}
	return true
}
