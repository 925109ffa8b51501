// Package insight derives a rule-based sales insight bundle for an account,
// optionally enriched by a narrative from an external text generator.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
)

const (
	NarrativeLLM      = "llm"
	NarrativeTemplate = "template"
)

// Facts is the structured bundle handed to a Narrator.
type Facts struct {
	AccountName   string             `json:"account_name"`
	Industry      string             `json:"industry,omitempty"`
	Country       string             `json:"country,omitempty"`
	Stage         string             `json:"stage,omitempty"`
	BuyerStage    string             `json:"buyer_stage"`
	Scores        domain.ScoreTotals `json:"scores"`
	EventCount    int                `json:"event_count"`
	ChannelCounts map[string]int     `json:"channel_counts"`
	DaysSinceSeen int                `json:"days_since_seen"`
}

// Narrator turns facts into free text. Implementations may call remote services.
type Narrator interface {
	Narrate(ctx context.Context, facts Facts) (string, error)
}

// Insight is the full bundle returned to callers.
type Insight struct {
	AccountID             string   `json:"account_id"`
	Summary               string   `json:"summary"`
	Narrative             string   `json:"narrative"`
	NarrativeSource       string   `json:"narrative_source"`
	LeadQuality           string   `json:"lead_quality"`
	ConversionProbability int      `json:"conversion_probability"`
	BuyingTimeline        string   `json:"buying_timeline"`
	NextBestAction        string   `json:"next_best_action"`
	BestChannel           string   `json:"best_channel"`
	RecommendedMessage    string   `json:"recommended_message"`
	RedFlags              []string `json:"red_flags"`
	PriorityScore         float64  `json:"priority_score"`
	Urgency               string   `json:"urgency"`
	Facts                 Facts    `json:"facts"`
}

// Generator builds insights. A nil narrator always uses the template narrative.
type Generator struct {
	narrator Narrator
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewGenerator(narrator Narrator, timeout time.Duration, logger *zap.Logger) *Generator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{narrator: narrator, timeout: timeout, logger: logger, now: time.Now}
}

// WithClock replaces the time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	if now != nil {
		g.now = now
	}
	return g
}

// Generate never fails: narrator errors and timeouts fall back to a templated narrative.
func (g *Generator) Generate(ctx context.Context, account *domain.Account, events []domain.Event) Insight {
	facts := BuildFacts(account, events, g.now())
	score := facts.Scores.TotalScore
	days := facts.DaysSinceSeen

	out := Insight{
		AccountID:             account.ID,
		LeadQuality:           LeadQuality(score),
		ConversionProbability: ConversionProbability(score),
		BuyingTimeline:        BuyingTimeline(score, days),
		BestChannel:           BestChannel(facts.ChannelCounts),
		PriorityScore:         score,
		Urgency:               Urgency(score, days),
		Facts:                 facts,
	}
	out.NextBestAction = NextBestAction(out.Urgency)
	out.RecommendedMessage = recommendedMessage(account)
	out.RedFlags = RedFlags(score, len(events), days)
	out.Summary = fmt.Sprintf("Account '%s' in %s with current score %.1f and stage '%s'. Overall lead quality is %s with an estimated conversion probability around %d%%.",
		account.Name, orText(account.Country, "Unknown country"), score, account.Stage, out.LeadQuality, out.ConversionProbability)

	out.Narrative, out.NarrativeSource = g.narrate(ctx, facts, out)
	return out
}

func (g *Generator) narrate(ctx context.Context, facts Facts, in Insight) (string, string) {
	if g.narrator != nil {
		nctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		text, err := g.narrator.Narrate(nctx, facts)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), NarrativeLLM
		}
		g.logger.Warn("narrative generation failed, using template", zap.String("account_id", in.AccountID), zap.Error(err))
	}
	return TemplateNarrative(facts, in), NarrativeTemplate
}

// TemplateNarrative is the deterministic narrative used when no generator is available.
func TemplateNarrative(facts Facts, in Insight) string {
	recency := "has no recorded activity"
	if facts.DaysSinceSeen >= 0 {
		recency = fmt.Sprintf("was last active %d days ago", facts.DaysSinceSeen)
	}
	return fmt.Sprintf("%s is in the %s stage with a total score of %.1f across %d events and %s. Best channel: %s. Urgency: %s.",
		orText(facts.AccountName, "This account"), orText(facts.BuyerStage, domain.StageUnaware), facts.Scores.TotalScore,
		facts.EventCount, recency, in.BestChannel, in.Urgency)
}

// BuildFacts summarizes an account and its events. DaysSinceSeen is -1 when nothing was ever seen.
func BuildFacts(account *domain.Account, events []domain.Event, now time.Time) Facts {
	facts := Facts{
		AccountName:   account.Name,
		Industry:      account.Industry,
		Country:       account.Country,
		Stage:         account.Stage,
		BuyerStage:    account.BuyerStage,
		Scores:        account.Scores(),
		EventCount:    len(events),
		ChannelCounts: map[string]int{},
	}

	last := account.LastEventAt
	for i := range events {
		facts.ChannelCounts[strings.ToLower(events[i].Channel())]++
		if ts := events[i].CreatedAt; last == nil || ts.After(*last) {
			t := ts
			last = &t
		}
	}
	facts.DaysSinceSeen = (&domain.Account{LastEventAt: last}).InactiveDays(now)
	return facts
}

func LeadQuality(score float64) string {
	switch {
	case score >= 60:
		return "High"
	case score >= 20:
		return "Medium"
	default:
		return "Low"
	}
}

func ConversionProbability(score float64) int {
	switch {
	case score >= 80:
		return 70
	case score >= 60:
		return 55
	case score >= 40:
		return 40
	case score >= 20:
		return 25
	default:
		return 15
	}
}

func BuyingTimeline(score float64, daysSinceSeen int) string {
	switch {
	case daysSinceSeen < 0:
		return "Unknown / very early"
	case score >= 60 && daysSinceSeen <= 3:
		return "Very near term (1-2 weeks)"
	case score >= 40 && daysSinceSeen <= 7:
		return "Near term (2-4 weeks)"
	case score >= 20:
		return "Medium term (1-3 months)"
	default:
		return "Long-term nurture (3+ months)"
	}
}

func Urgency(score float64, daysSinceSeen int) string {
	switch {
	case score >= 60 && daysSinceSeen >= 0 && daysSinceSeen <= 3:
		return "Very High"
	case score >= 40:
		return "High"
	case score >= 20:
		return "Medium"
	default:
		return "Low"
	}
}

var channelFamilies = []struct {
	label   string
	members []string
}{
	{"Email", []string{"email", "mailchimp", "klaviyo"}},
	{"Social + retargeting", []string{"facebook", "instagram", "tiktok", "social", "linkedin"}},
	{"Messaging (WhatsApp/LINE/etc.)", []string{"whatsapp", "line", "telegram", "messaging"}},
	{"Website + retargeting", []string{"website"}},
}

// BestChannel picks the first channel family with any observed touch.
func BestChannel(counts map[string]int) string {
	for _, fam := range channelFamilies {
		for _, m := range fam.members {
			if counts[m] > 0 {
				return fam.label
			}
		}
	}
	return "Mixed / test channels"
}

// TopChannels returns channel names ordered by count descending, then name.
func TopChannels(counts map[string]int, limit int) []string {
	names := make([]string, 0, len(counts))
	for k := range counts {
		if k != domain.UnknownChannel {
			names = append(names, k)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}

func NextBestAction(urgency string) string {
	switch urgency {
	case "Very High", "High":
		return "Prioritize outreach now."
	default:
		return "Keep in nurture and monitor engagement."
	}
}

func recommendedMessage(account *domain.Account) string {
	return fmt.Sprintf("Hi %s, we've noticed recent interest in our services. We help %s in %s improve revenue and efficiency. Would you be open to a quick 10-15 minute chat this week to see if it's a good fit?",
		account.Name, orText(account.Industry, "businesses"), orText(account.Country, "your region"))
}

func RedFlags(score float64, eventCount, daysSinceSeen int) []string {
	flags := []string{}
	if eventCount == 0 {
		flags = append(flags, "No engagement events recorded yet.")
	} else if daysSinceSeen > 30 {
		flags = append(flags, "No recent activity in the last 30 days.")
	}
	if score < 20 {
		flags = append(flags, "Low engagement score so far.")
	}
	return flags
}

func orText(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
