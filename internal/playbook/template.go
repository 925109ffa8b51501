package playbook

import (
	"strconv"
	"strings"

	"github.com/fastygo/revenue-engine/domain"
)

const (
	DefaultTaskTitle  = "Follow up with {account.name}"
	DefaultAlertTitle = "Playbook triggered: {rule.name}"
)

// Render substitutes {account.*} and {rule.*} placeholders. An unknown placeholder
// yields a not-found domain error. Text without braces is returned unchanged.
func Render(tmpl string, account *domain.Account, rule *domain.PlaybookRule) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}

	var sb strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		end += open

		sb.WriteString(rest[:open])
		field := strings.TrimSpace(rest[open+1 : end])
		value, ok := lookupField(field, account, rule)
		if !ok {
			return "", domain.ErrTemplateField(field)
		}
		sb.WriteString(value)
		rest = rest[end+1:]
	}
	return sb.String(), nil
}

func lookupField(field string, account *domain.Account, rule *domain.PlaybookRule) (string, bool) {
	if account == nil {
		account = &domain.Account{}
	}
	if rule == nil {
		rule = &domain.PlaybookRule{}
	}
	switch field {
	case "account.name":
		return account.Name, true
	case "account.domain":
		return account.Domain, true
	case "account.country":
		return account.Country, true
	case "account.industry":
		return account.Industry, true
	case "account.owner":
		return account.Owner, true
	case "account.stage":
		return account.Stage, true
	case "account.buyer_stage":
		return account.BuyerStage, true
	case "account.total_score":
		return formatScore(account.TotalScore), true
	case "account.intent_score":
		return formatScore(account.IntentScore), true
	case "rule.name":
		return rule.Name, true
	case "rule.owner":
		return rule.Owner, true
	default:
		return "", false
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
