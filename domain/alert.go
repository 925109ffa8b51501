package domain

import "time"

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Alert is a notification surfaced on the dashboard.
type Alert struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	AccountID   string    `json:"account_id,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Type        string    `json:"type,omitempty"`
	Severity    string    `json:"severity"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
