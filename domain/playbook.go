package domain

import "time"

// PlaybookRule pairs optional account conditions with follow-up actions.
// Nil conditions do not constrain a match.
type PlaybookRule struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	IsActive    bool   `json:"is_active"`

	MinTotalScore  *float64 `json:"min_total_score,omitempty"`
	MinIntentScore *float64 `json:"min_intent_score,omitempty"`
	BuyerStageIn   []string `json:"buyer_stage_in,omitempty"`
	CountriesIn    []string `json:"countries_in,omitempty"`
	StagesIn       []string `json:"stages_in,omitempty"`
	HasOpenTasks   *bool    `json:"has_open_tasks,omitempty"`

	CreateTask    bool   `json:"create_task"`
	TaskTitle     string `json:"task_title,omitempty"`
	CreateAlert   bool   `json:"create_alert"`
	AlertTitle    string `json:"alert_title,omitempty"`
	AlertSeverity string `json:"alert_severity,omitempty"`
	PushToCRM     bool   `json:"push_to_crm"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Action kinds emitted by rule evaluation.
const (
	ActionCreateTask  = "create_task"
	ActionCreateAlert = "create_alert"
	ActionPushToCRM   = "push_to_crm"
)

// PlaybookAction is a side-effect request produced when a rule matches an account.
// Description and Owner are copied from the rule onto created tasks and alerts.
type PlaybookAction struct {
	Kind        string `json:"kind"`
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	AccountID   string `json:"account_id"`
	Title       string `json:"title,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// PlaybookOutcome holds the rows one playbook run writes. They are stored together or not at all.
type PlaybookOutcome struct {
	Tasks  []*Task
	Alerts []*Alert
}

func (o *PlaybookOutcome) Empty() bool {
	return o == nil || len(o.Tasks)+len(o.Alerts) == 0
}
