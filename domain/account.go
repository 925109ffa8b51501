package domain

import "time"

// Buyer stages ordered from coldest to hottest.
const (
	StageUnaware     = "unaware"
	StageAware       = "aware"
	StageConsidering = "considering"
	StageEvaluating  = "evaluating"
	StageBuying      = "buying"
)

// ScoreTotals is the full score state of an account after an event is applied.
type ScoreTotals struct {
	IntentScore     float64 `json:"intent_score"`
	EngagementScore float64 `json:"engagement_score"`
	FitScore        float64 `json:"fit_score"`
	PredictiveScore float64 `json:"predictive_score"`
	TotalScore      float64 `json:"total_score"`
}

// Account is a tracked business entity scoped to a workspace.
type Account struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspace_id"`
	Name          string     `json:"name"`
	Domain        string     `json:"domain,omitempty"`
	Industry      string     `json:"industry,omitempty"`
	EmployeeRange string     `json:"employee_range,omitempty"`
	Country       string     `json:"country,omitempty"`
	City          string     `json:"city,omitempty"`
	Owner         string     `json:"owner,omitempty"`
	Stage         string     `json:"stage,omitempty"`
	BuyerStage    string     `json:"buyer_stage"`
	LastSource    string     `json:"last_source,omitempty"`
	LastEventAt   *time.Time `json:"last_event_at,omitempty"`
	ScoreTotals
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scores returns the account's current score state.
func (a *Account) Scores() ScoreTotals {
	if a == nil {
		return ScoreTotals{}
	}
	return a.ScoreTotals
}

// ApplyScores writes totals and the derived buyer stage back onto the account.
func (a *Account) ApplyScores(totals ScoreTotals, stage string) {
	if a == nil {
		return
	}
	a.ScoreTotals = totals
	a.BuyerStage = stage
}

// InactiveDays returns whole days since the last event, or -1 when the account has never been seen.
func (a *Account) InactiveDays(now time.Time) int {
	if a == nil || a.LastEventAt == nil {
		return -1
	}
	d := now.Sub(*a.LastEventAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// AccountPatch carries the mutable account attributes. Scores and buyer stage are not settable.
type AccountPatch struct {
	Name          *string `json:"name,omitempty"`
	Domain        *string `json:"domain,omitempty"`
	Industry      *string `json:"industry,omitempty"`
	EmployeeRange *string `json:"employee_range,omitempty"`
	Country       *string `json:"country,omitempty"`
	City          *string `json:"city,omitempty"`
	Owner         *string `json:"owner,omitempty"`
	Stage         *string `json:"stage,omitempty"`
}

// Apply copies the non-nil fields of p onto a.
func (p AccountPatch) Apply(a *Account) {
	if a == nil {
		return
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.Name, p.Name)
	set(&a.Domain, p.Domain)
	set(&a.Industry, p.Industry)
	set(&a.EmployeeRange, p.EmployeeRange)
	set(&a.Country, p.Country)
	set(&a.City, p.City)
	set(&a.Owner, p.Owner)
	set(&a.Stage, p.Stage)
}
