package playbook

import (
	"strings"

	"github.com/fastygo/revenue-engine/domain"
)

// ConditionKind tags a predicate.
type ConditionKind string

const (
	MinTotalScore  ConditionKind = "min_total_score"
	MinIntentScore ConditionKind = "min_intent_score"
	BuyerStageIn   ConditionKind = "buyer_stage_in"
	CountryIn      ConditionKind = "countries_in"
	StageIn        ConditionKind = "stages_in"
	HasOpenTasks   ConditionKind = "has_open_tasks"
)

// Condition is one predicate of a rule. Only the field matching Kind is meaningful.
type Condition struct {
	Kind      ConditionKind
	Threshold float64
	Values    map[string]struct{}
	Want      bool
}

// Facts carries account state that is not on the account row.
type Facts struct {
	OpenTasks int
}

// Conditions lists the specified predicates of a rule. Nil fields and empty sets produce no predicate.
func Conditions(rule *domain.PlaybookRule) []Condition {
	if rule == nil {
		return nil
	}
	var out []Condition
	if rule.MinTotalScore != nil {
		out = append(out, Condition{Kind: MinTotalScore, Threshold: *rule.MinTotalScore})
	}
	if rule.MinIntentScore != nil {
		out = append(out, Condition{Kind: MinIntentScore, Threshold: *rule.MinIntentScore})
	}
	if len(rule.BuyerStageIn) > 0 {
		out = append(out, Condition{Kind: BuyerStageIn, Values: foldSet(rule.BuyerStageIn)})
	}
	if len(rule.CountriesIn) > 0 {
		out = append(out, Condition{Kind: CountryIn, Values: foldSet(rule.CountriesIn)})
	}
	if len(rule.StagesIn) > 0 {
		out = append(out, Condition{Kind: StageIn, Values: foldSet(rule.StagesIn)})
	}
	if rule.HasOpenTasks != nil {
		out = append(out, Condition{Kind: HasOpenTasks, Want: *rule.HasOpenTasks})
	}
	return out
}

// Holds evaluates the predicate against an account.
func (c Condition) Holds(account *domain.Account, facts Facts) bool {
	switch c.Kind {
	case MinTotalScore:
		return account.TotalScore >= c.Threshold
	case MinIntentScore:
		return account.IntentScore >= c.Threshold
	case BuyerStageIn:
		return c.contains(account.BuyerStage)
	case CountryIn:
		return c.contains(account.Country)
	case StageIn:
		return c.contains(account.Stage)
	case HasOpenTasks:
		return (facts.OpenTasks > 0) == c.Want
	default:
		return false
	}
}

func (c Condition) contains(value string) bool {
	_, ok := c.Values[fold(value)]
	return ok
}

// needsTaskCount reports whether any condition requires the open-task collaborator.
func needsTaskCount(conds []Condition) bool {
	for _, c := range conds {
		if c.Kind == HasOpenTasks {
			return true
		}
	}
	return false
}

func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[fold(v)] = struct{}{}
	}
	return set
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
