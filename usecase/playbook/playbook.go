package playbook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	engine "github.com/fastygo/revenue-engine/internal/playbook"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
	"github.com/fastygo/revenue-engine/usecase"
)

type Deps struct {
	Rules    repository.PlaybookRepository
	Accounts repository.AccountRepository
	Tasks    repository.TaskRepository
	Bus      usecase.Publisher
	Notifier usecase.Notifier
}

type UseCase struct {
	rules     repository.PlaybookRepository
	accounts  repository.AccountRepository
	bus       usecase.Publisher
	notifier  usecase.Notifier
	evaluator *engine.Evaluator
	logger    *zap.Logger
	now       func() time.Time
}

func New(deps Deps, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UseCase{
		rules:     deps.Rules,
		accounts:  deps.Accounts,
		bus:       deps.Bus,
		notifier:  deps.Notifier,
		evaluator: engine.NewEvaluator(deps.Tasks),
		logger:    log,
		now:       time.Now,
	}
}

func (uc *UseCase) List(ctx context.Context, workspaceID string) ([]domain.PlaybookRule, error) {
	return uc.rules.List(ctx, workspaceID, false)
}

func (uc *UseCase) Get(ctx context.Context, workspaceID, id string) (*domain.PlaybookRule, error) {
	return uc.rules.GetByID(ctx, workspaceID, id)
}

func (uc *UseCase) Create(ctx context.Context, rule *domain.PlaybookRule) (*domain.PlaybookRule, error) {
	if err := validate(rule); err != nil {
		return nil, err
	}
	return uc.rules.Create(ctx, rule)
}

// Update replaces a stored rule. The id and workspace come from the caller, not the body.
func (uc *UseCase) Update(ctx context.Context, workspaceID, id string, rule *domain.PlaybookRule) (*domain.PlaybookRule, error) {
	if err := validate(rule); err != nil {
		return nil, err
	}
	current, err := uc.rules.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	rule.ID = current.ID
	rule.WorkspaceID = current.WorkspaceID
	rule.CreatedAt = current.CreatedAt
	if err := uc.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (uc *UseCase) Delete(ctx context.Context, workspaceID, id string) error {
	return uc.rules.Delete(ctx, workspaceID, id)
}

// RunResult summarizes the side effects of a playbook run.
type RunResult struct {
	AccountID     string                  `json:"account_id"`
	TasksCreated  int                     `json:"tasks_created"`
	AlertsCreated int                     `json:"alerts_created"`
	CRMPushes     int                     `json:"crm_pushes"`
	Actions       []domain.PlaybookAction `json:"actions"`
}

// Run evaluates every active rule against the account and performs the resulting actions.
// Tasks and alerts are stored in one transaction before anything is published or notified;
// notifications and bus messages are best effort.
func (uc *UseCase) Run(ctx context.Context, workspaceID, accountID string) (*RunResult, error) {
	account, err := uc.accounts.GetByID(ctx, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	rules, err := uc.rules.List(ctx, workspaceID, true)
	if err != nil {
		return nil, err
	}
	actions, err := uc.evaluator.Evaluate(ctx, account, rules)
	if err != nil {
		return nil, err
	}

	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("account_id", accountID))
	result := &RunResult{AccountID: accountID, Actions: actions}
	if result.Actions == nil {
		result.Actions = []domain.PlaybookAction{}
	}

	outcome := &domain.PlaybookOutcome{}
	var pushes []domain.PlaybookAction
	for _, action := range actions {
		switch action.Kind {
		case domain.ActionCreateTask:
			outcome.Tasks = append(outcome.Tasks, &domain.Task{
				WorkspaceID: workspaceID,
				AccountID:   accountID,
				Title:       action.Title,
				Description: action.Description,
				Status:      domain.TaskStatusOpen,
				Owner:       action.Owner,
				Source:      "playbook:" + action.RuleID,
			})
		case domain.ActionCreateAlert:
			body := action.Description
			if body == "" {
				body = fmt.Sprintf("Rule %q matched %s (total score %.1f, stage %s).", action.RuleName, account.Name, account.TotalScore, account.BuyerStage)
			}
			outcome.Alerts = append(outcome.Alerts, &domain.Alert{
				WorkspaceID: workspaceID,
				AccountID:   accountID,
				Title:       action.Title,
				Body:        body,
				Type:        "playbook",
				Severity:    action.Severity,
			})
		case domain.ActionPushToCRM:
			pushes = append(pushes, action)
		}
	}

	if !outcome.Empty() {
		if err := uc.rules.SaveOutcome(ctx, outcome); err != nil {
			return nil, fmt.Errorf("store playbook outcome: %w", err)
		}
	}
	result.TasksCreated = len(outcome.Tasks)
	result.AlertsCreated = len(outcome.Alerts)

	for _, action := range pushes {
		uc.publish(log, usecase.SubjectCRMPush, usecase.CRMPush{
			WorkspaceID: workspaceID,
			RuleID:      action.RuleID,
			RuleName:    action.RuleName,
			Account:     *account,
			RequestedAt: uc.now().UTC(),
		})
		result.CRMPushes++
	}

	alertLines := make([]string, 0, len(outcome.Alerts))
	for _, alert := range outcome.Alerts {
		alertLines = append(alertLines, fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Severity), alert.Title))
	}
	if len(alertLines) > 0 && uc.notifier != nil {
		uc.notifier.Notify(ctx, fmt.Sprintf("%s\n%s", account.Name, strings.Join(alertLines, "\n")))
	}
	if len(actions) > 0 {
		uc.publish(log, usecase.SubjectPlaybookTriggered, usecase.PlaybookTriggered{
			WorkspaceID: workspaceID,
			AccountID:   accountID,
			Actions:     actions,
			TriggeredAt: uc.now().UTC(),
		})
	}

	log.Info("playbooks run",
		zap.Int("tasks", result.TasksCreated),
		zap.Int("alerts", result.AlertsCreated),
		zap.Int("crm_pushes", result.CRMPushes),
	)
	return result, nil
}

func (uc *UseCase) publish(log *zap.Logger, subject string, msg any) {
	if uc.bus == nil {
		return
	}
	if err := uc.bus.Publish(subject, msg); err != nil {
		log.Warn("publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func validate(rule *domain.PlaybookRule) error {
	if rule == nil || strings.TrimSpace(rule.Name) == "" {
		return domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	switch rule.AlertSeverity {
	case "", domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
	default:
		return domain.NewError(domain.ErrCodeInvalid, "alert_severity must be low, medium or high")
	}
	return nil
}
