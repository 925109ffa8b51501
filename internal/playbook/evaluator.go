// Package playbook matches accounts against stored rules and emits follow-up actions.
package playbook

import (
	"context"
	"fmt"

	"github.com/fastygo/revenue-engine/domain"
)

// OpenTaskCounter reports how many tasks with status other than done an account has.
type OpenTaskCounter interface {
	CountOpen(ctx context.Context, workspaceID, accountID string) (int, error)
}

// Evaluator checks rules against accounts. It performs no writes.
type Evaluator struct {
	tasks OpenTaskCounter
}

func NewEvaluator(tasks OpenTaskCounter) *Evaluator {
	return &Evaluator{tasks: tasks}
}

// Matches reports whether every specified condition of rule holds for account.
// Inactive rules and rules of another workspace never match.
func (e *Evaluator) Matches(ctx context.Context, account *domain.Account, rule *domain.PlaybookRule) (bool, error) {
	if account == nil || rule == nil || !rule.IsActive || rule.WorkspaceID != account.WorkspaceID {
		return false, nil
	}
	conds := Conditions(rule)
	facts, err := e.facts(ctx, account, needsTaskCount(conds))
	if err != nil {
		return false, err
	}
	return holdsAll(conds, account, facts), nil
}

// Evaluate checks all active rules independently and returns the actions of every match.
// The open-task count is fetched at most once per call.
func (e *Evaluator) Evaluate(ctx context.Context, account *domain.Account, rules []domain.PlaybookRule) ([]domain.PlaybookAction, error) {
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	type candidate struct {
		rule  *domain.PlaybookRule
		conds []Condition
	}
	candidates := make([]candidate, 0, len(rules))
	needTasks := false
	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive || rule.WorkspaceID != account.WorkspaceID {
			continue
		}
		conds := Conditions(rule)
		needTasks = needTasks || needsTaskCount(conds)
		candidates = append(candidates, candidate{rule: rule, conds: conds})
	}

	facts, err := e.facts(ctx, account, needTasks)
	if err != nil {
		return nil, err
	}

	var actions []domain.PlaybookAction
	for _, c := range candidates {
		if !holdsAll(c.conds, account, facts) {
			continue
		}
		ruleActions, err := Actions(account, c.rule)
		if err != nil {
			return nil, err
		}
		actions = append(actions, ruleActions...)
	}
	return actions, nil
}

// Actions builds the action requests a matched rule emits.
func Actions(account *domain.Account, rule *domain.PlaybookRule) ([]domain.PlaybookAction, error) {
	base := domain.PlaybookAction{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		AccountID:   account.ID,
		Description: rule.Description,
		Owner:       rule.Owner,
	}
	var out []domain.PlaybookAction

	if rule.CreateTask {
		title, err := Render(orDefault(rule.TaskTitle, DefaultTaskTitle), account, rule)
		if err != nil {
			return nil, err
		}
		a := base
		a.Kind = domain.ActionCreateTask
		a.Title = title
		out = append(out, a)
	}
	if rule.CreateAlert {
		title, err := Render(orDefault(rule.AlertTitle, DefaultAlertTitle), account, rule)
		if err != nil {
			return nil, err
		}
		a := base
		a.Kind = domain.ActionCreateAlert
		a.Title = title
		a.Severity = orDefault(rule.AlertSeverity, domain.SeverityMedium)
		out = append(out, a)
	}
	if rule.PushToCRM {
		a := base
		a.Kind = domain.ActionPushToCRM
		out = append(out, a)
	}
	return out, nil
}

func (e *Evaluator) facts(ctx context.Context, account *domain.Account, needTasks bool) (Facts, error) {
	if !needTasks {
		return Facts{}, nil
	}
	if e.tasks == nil {
		return Facts{}, fmt.Errorf("open task counter not configured")
	}
	n, err := e.tasks.CountOpen(ctx, account.WorkspaceID, account.ID)
	if err != nil {
		return Facts{}, fmt.Errorf("count open tasks: %w", err)
	}
	return Facts{OpenTasks: n}, nil
}

func holdsAll(conds []Condition, account *domain.Account, facts Facts) bool {
	for _, c := range conds {
		if !c.Holds(account, facts) {
			return false
		}
	}
	return true
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
