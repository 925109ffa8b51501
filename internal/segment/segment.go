// Package segment buckets accounts by score and recency.
package segment

import (
	"strings"
	"time"

	"github.com/fastygo/revenue-engine/domain"
)

// Segment names in output order.
const (
	ActiveHighIntent = "Active_high_intent"
	LowIntent        = "Low_intent"
	Dormant          = "Dormant"
)

// Thresholds configure bucket boundaries.
type Thresholds struct {
	// HighIntentScore is the minimum total score for Active_high_intent.
	HighIntentScore float64
	// ActiveWithinDays is the recency window for Active_high_intent.
	ActiveWithinDays int
	// DormantAfterDays marks accounts inactive longer than this as Dormant.
	DormantAfterDays int
	// MinVisits switches to the visit-count variant when > 0: Active_high_intent requires
	// at least this many events instead of the score threshold.
	MinVisits int
}

// DefaultThresholds is the score-based variant.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighIntentScore:  70,
		ActiveWithinDays: 30,
		DormantAfterDays: 30,
	}
}

// Filters exclude accounts from segmentation entirely.
type Filters struct {
	MinVisits       *int     `json:"min_visits,omitempty"`
	MaxInactiveDays *int     `json:"max_inactive_days,omitempty"`
	Industries      []string `json:"industries,omitempty"`
	Stages          []string `json:"stages,omitempty"`
}

// Segment is a named bucket of account ids.
type Segment struct {
	Name       string   `json:"segment_name"`
	AccountIDs []string `json:"account_ids"`
}

// Engine assigns accounts to segments.
type Engine struct {
	thresholds Thresholds
	now        func() time.Time
}

// New builds an engine. Zero thresholds fall back to DefaultThresholds.
func New(t Thresholds) *Engine {
	def := DefaultThresholds()
	if t.HighIntentScore <= 0 {
		t.HighIntentScore = def.HighIntentScore
	}
	if t.ActiveWithinDays <= 0 {
		t.ActiveWithinDays = def.ActiveWithinDays
	}
	if t.DormantAfterDays <= 0 {
		t.DormantAfterDays = def.DormantAfterDays
	}
	return &Engine{thresholds: t, now: time.Now}
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// Classify returns the bucket for a single account.
func (e *Engine) Classify(account *domain.Account, visits int, now time.Time) string {
	days := account.InactiveDays(now)
	seen := days >= 0

	if seen && days <= e.thresholds.ActiveWithinDays {
		if e.thresholds.MinVisits > 0 {
			if visits >= e.thresholds.MinVisits {
				return ActiveHighIntent
			}
		} else if account.TotalScore >= e.thresholds.HighIntentScore {
			return ActiveHighIntent
		}
	}
	if !seen || days > e.thresholds.DormantAfterDays {
		return Dormant
	}
	return LowIntent
}

// Segment buckets accounts. Every account passing the filters lands in exactly one bucket;
// accounts from other workspaces or failing filters are dropped. Empty buckets are omitted.
func (e *Engine) Segment(workspaceID string, accounts []domain.Account, visits map[string]int, filters Filters) []Segment {
	now := e.now()
	industries := toSet(filters.Industries)
	stages := toSet(filters.Stages)

	buckets := map[string][]string{}
	for i := range accounts {
		acc := &accounts[i]
		if acc.WorkspaceID != workspaceID {
			continue
		}
		if !inSet(industries, acc.Industry) || !inSet(stages, acc.Stage) {
			continue
		}
		count := visits[acc.ID]
		if filters.MinVisits != nil && count < *filters.MinVisits {
			continue
		}
		if filters.MaxInactiveDays != nil {
			if days := acc.InactiveDays(now); days >= 0 && days > *filters.MaxInactiveDays {
				continue
			}
		}

		name := e.Classify(acc, count, now)
		buckets[name] = append(buckets[name], acc.ID)
	}

	var out []Segment
	for _, name := range []string{ActiveHighIntent, LowIntent, Dormant} {
		if ids := buckets[name]; len(ids) > 0 {
			out = append(out, Segment{Name: name, AccountIDs: ids})
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

func inSet(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
