package model

import "time"

// Priority levels for items
const (
	PriorityUnset  = 0 // Ranks as PriorityLow
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// DefaultItemTitle is shown for items without a title
const DefaultItemTitle = "New Item"

// Item represents a single entry owned by a project
type Item struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Title        *string   `json:"title,omitempty"`
	Detail       *string   `json:"detail,omitempty"`
	CreationDate time.Time `json:"creation_date"`
	Completed    bool      `json:"completed"`
	Priority     int       `json:"priority,omitempty"`
}

// ItemTitle returns the title, or "New Item" if unset
func ItemTitle(i Item) string {
	if i.Title == nil {
		return DefaultItemTitle
	}
	return *i.Title
}

// ItemDetail returns the detail, or "" if unset
func ItemDetail(i Item) string {
	if i.Detail == nil {
		return ""
	}
	return *i.Detail
}

// HasDetail reports whether the item has a non-empty detail line to show
func HasDetail(i Item) bool {
	return ItemDetail(i) != ""
}

// Rank returns the priority used for ordering; unset counts as low
func (i Item) Rank() int {
	if i.Priority < PriorityLow {
		return PriorityLow
	}
	return i.Priority
}

// ValidPriority reports whether p is unset or one of low/medium/high
func ValidPriority(p int) bool {
	return p >= PriorityUnset && p <= PriorityHigh
}

// StringPtr returns a pointer to s, for optional fields
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b, for optional update fields
func BoolPtr(b bool) *bool {
	return &b
}

// IntPtr returns a pointer to n, for optional update fields
func IntPtr(n int) *int {
	return &n
}
