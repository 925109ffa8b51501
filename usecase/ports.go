package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fastygo/revenue-engine/domain"
)

// NATS subjects published by the service.
const (
	SubjectEventScored       = "revenue.event.scored"
	SubjectPlaybookTriggered = "revenue.playbook.triggered"
	SubjectCRMPush           = "revenue.crm.push"
)

// Publisher sends a notification on the event bus. Delivery is best effort.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier delivers a human-readable alert. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type EventScored struct {
	WorkspaceID     string             `json:"workspace_id"`
	AccountID       string             `json:"account_id"`
	EventID         string             `json:"event_id"`
	EventType       string             `json:"event_type"`
	Channel         string             `json:"channel"`
	IntentScore     float64            `json:"intent_score"`
	EngagementScore float64            `json:"engagement_score"`
	Totals          domain.ScoreTotals `json:"totals"`
	BuyerStage      string             `json:"buyer_stage"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

type PlaybookTriggered struct {
	WorkspaceID string                  `json:"workspace_id"`
	AccountID   string                  `json:"account_id"`
	Actions     []domain.PlaybookAction `json:"actions"`
	TriggeredAt time.Time               `json:"triggered_at"`
}

// CRMPush asks the external CRM connector to sync an account.
type CRMPush struct {
	WorkspaceID string         `json:"workspace_id"`
	RuleID      string         `json:"rule_id"`
	RuleName    string         `json:"rule_name"`
	Account     domain.Account `json:"account"`
	RequestedAt time.Time      `json:"requested_at"`
}

// CacheKey builds a report cache key scoped to a workspace.
func CacheKey(workspaceID, name string) string {
	return workspaceID + ":" + name
}

// Transient reports whether err looks like an infrastructure failure worth buffering,
// as opposed to a domain error or a cancelled request.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var dErr *domain.Error
	return !errors.As(err, &dErr)
}
