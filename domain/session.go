package domain

import "time"

// AccessToken is a signed bearer token issued in exchange for an API key.
type AccessToken struct {
	Token       string    `json:"token"`
	WorkspaceID string    `json:"workspace_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	IssuedAt    time.Time `json:"issued_at"`
}

func (t *AccessToken) IsExpired(reference time.Time) bool {
	if t == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !t.ExpiresAt.After(reference)
}
