// Package scoring turns behavioral events into account score updates.
package scoring

import (
	"strings"

	"github.com/fastygo/revenue-engine/domain"
)

// Result is the outcome of scoring a single event.
type Result struct {
	Intent     float64            `json:"intent"`
	Engagement float64            `json:"engagement"`
	Totals     domain.ScoreTotals `json:"totals"`
	BuyerStage string             `json:"buyer_stage"`
}

// Engine applies a weighting scheme to events. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights Weights
}

// New builds an engine. Zero-valued fields in w fall back to DefaultWeights.
func New(w Weights) *Engine {
	return &Engine{weights: DefaultWeights().Merge(w).normalize()}
}

// Weights returns a copy of the active weighting scheme.
func (e *Engine) Weights() Weights {
	return e.weights.Merge(Weights{})
}

// Score computes the event's contributions and the account's next score state.
// A nil account is scored from a zero baseline.
func (e *Engine) Score(account *domain.Account, event *domain.Event) Result {
	intent, engagement := e.Contributions(event)

	prior := account.Scores()
	next := domain.ScoreTotals{
		IntentScore:     prior.IntentScore + intent,
		EngagementScore: prior.EngagementScore + engagement,
		FitScore:        prior.FitScore,
		PredictiveScore: prior.PredictiveScore + e.weights.PredictiveFactor*(intent+engagement),
	}
	next.TotalScore = next.IntentScore + next.EngagementScore + next.FitScore + next.PredictiveScore

	return Result{
		Intent:     intent,
		Engagement: engagement,
		Totals:     next,
		BuyerStage: ClassifyStage(next.TotalScore),
	}
}

// Contributions returns the intent and engagement an event adds. Both are always non-negative.
func (e *Engine) Contributions(event *domain.Event) (float64, float64) {
	if event == nil {
		return e.weights.DefaultIntent, e.weights.DefaultEngagement
	}

	intent := lookup(e.weights.Intent, event.EventType, e.weights.DefaultIntent)

	engagement := e.weights.DefaultEngagement
	if ch := event.Channel(); ch != domain.UnknownChannel {
		engagement = lookup(e.weights.Engagement, ch, e.weights.DefaultEngagement)
	}
	engagement += durationBonus(event.Duration)

	revenue := event.Revenue()
	if revenue < 0 {
		revenue = 0
	}
	intent += e.weights.RevenueIntent * revenue
	engagement += e.weights.RevenueEngagement * revenue

	return intent, engagement
}

// ClassifyStage maps a total score to a buyer stage. Thresholds are inclusive lower bounds.
func ClassifyStage(total float64) string {
	switch {
	case total >= 80:
		return domain.StageBuying
	case total >= 50:
		return domain.StageEvaluating
	case total >= 25:
		return domain.StageConsidering
	case total >= 10:
		return domain.StageAware
	default:
		return domain.StageUnaware
	}
}

// durationBonus rewards longer sessions: over 2 minutes +2, over 30 seconds +1.
func durationBonus(seconds float64) float64 {
	switch {
	case seconds > 120:
		return 2
	case seconds > 30:
		return 1
	default:
		return 0
	}
}

func lookup(table map[string]float64, key string, fallback float64) float64 {
	if w, ok := table[strings.ToLower(strings.TrimSpace(key))]; ok {
		return w
	}
	return fallback
}
