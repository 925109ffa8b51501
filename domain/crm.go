package domain

import "time"

// Contact is a person attached to an account.
type Contact struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Title       string    `json:"title,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const OpportunityStatusWon = "won"

// Opportunity is a deal in the pipeline.
type Opportunity struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	AccountID   string     `json:"account_id"`
	Name        string     `json:"name"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency,omitempty"`
	Stage       string     `json:"stage,omitempty"`
	Status      string     `json:"status,omitempty"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
	Source      string     `json:"source,omitempty"`
	ExternalID  string     `json:"external_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOpen reports whether the opportunity still counts towards pipeline value.
func (o *Opportunity) IsOpen() bool {
	return o != nil && o.Status != OpportunityStatusWon
}

// External object types tracked in ExternalObjectMap.
const (
	ObjectAccount     = "account"
	ObjectContact     = "contact"
	ObjectOpportunity = "opportunity"
)

// ExternalObjectMap links an object in an external CRM to an internal id.
type ExternalObjectMap struct {
	WorkspaceID string    `json:"workspace_id"`
	Provider    string    `json:"provider"`
	ObjectType  string    `json:"object_type"`
	ExternalID  string    `json:"external_id"`
	InternalID  string    `json:"internal_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnonymousVisit is a site visit that may not be attributed to an account yet.
type AnonymousVisit struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	AccountID    string    `json:"account_id,omitempty"`
	IP           string    `json:"ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	URL          string    `json:"url,omitempty"`
	Referrer     string    `json:"referrer,omitempty"`
	Country      string    `json:"country,omitempty"`
	City         string    `json:"city,omitempty"`
	CompanyGuess string    `json:"company_guess,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
