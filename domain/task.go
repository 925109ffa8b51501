package domain

import "time"

const (
	TaskStatusOpen = "open"
	TaskStatusDone = "done"
)

// Task represents a follow-up item attached to an account.
type Task struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	AccountID   string     `json:"account_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Owner       string     `json:"owner,omitempty"`
	Source      string     `json:"source,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOpen reports whether the task still needs work. Anything other than done counts as open.
func (t *Task) IsOpen() bool {
	return t != nil && t.Status != TaskStatusDone
}
