package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fastygo/revenue-engine/domain"
)

type MockNarrator struct {
	mock.Mock
}

func (m *MockNarrator) Narrate(ctx context.Context, facts Facts) (string, error) {
	args := m.Called(ctx, facts)
	return args.String(0), args.Error(1)
}

type slowNarrator struct{}

func (slowNarrator) Narrate(ctx context.Context, _ Facts) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func hotAccount() *domain.Account {
	seen := now.Add(-24 * time.Hour)
	return &domain.Account{
		ID:          "acc-1",
		Name:        "Acme",
		Country:     "Germany",
		Stage:       "warm",
		BuyerStage:  domain.StageBuying,
		LastEventAt: &seen,
		ScoreTotals: domain.ScoreTotals{TotalScore: 85},
	}
}

func TestGenerate_UsesNarrator(t *testing.T) {
	narrator := new(MockNarrator)
	narrator.On("Narrate", mock.Anything, mock.AnythingOfType("insight.Facts")).Return("  Acme is hot.  ", nil)

	g := NewGenerator(narrator, time.Second, nil).WithClock(func() time.Time { return now })
	out := g.Generate(context.Background(), hotAccount(), []domain.Event{{Source: "email", CreatedAt: now.Add(-time.Hour)}})

	assert.Equal(t, "Acme is hot.", out.Narrative)
	assert.Equal(t, NarrativeLLM, out.NarrativeSource)
	assert.Equal(t, "High", out.LeadQuality)
	assert.Equal(t, 70, out.ConversionProbability)
	assert.Equal(t, "Very High", out.Urgency)
	assert.Equal(t, "Email", out.BestChannel)
	assert.Equal(t, 0, out.Facts.DaysSinceSeen)
	assert.Empty(t, out.RedFlags)
	narrator.AssertExpectations(t)
}

func TestGenerate_FallsBackOnError(t *testing.T) {
	narrator := new(MockNarrator)
	narrator.On("Narrate", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	g := NewGenerator(narrator, time.Second, nil).WithClock(func() time.Time { return now })
	out := g.Generate(context.Background(), hotAccount(), nil)

	assert.Equal(t, NarrativeTemplate, out.NarrativeSource)
	assert.True(t, strings.HasPrefix(out.Narrative, "Acme is in the buying stage"))
	assert.Contains(t, out.RedFlags, "No engagement events recorded yet.")
}

func TestGenerate_FallsBackOnTimeout(t *testing.T) {
	g := NewGenerator(slowNarrator{}, 20*time.Millisecond, nil).WithClock(func() time.Time { return now })

	out := g.Generate(context.Background(), hotAccount(), nil)

	assert.Equal(t, NarrativeTemplate, out.NarrativeSource)
	assert.NotEmpty(t, out.Narrative)
}

func TestGenerate_NoNarrator(t *testing.T) {
	g := NewGenerator(nil, 0, nil).WithClock(func() time.Time { return now })

	out := g.Generate(context.Background(), &domain.Account{ID: "a", Name: "Quiet"}, nil)

	assert.Equal(t, NarrativeTemplate, out.NarrativeSource)
	assert.Equal(t, "Unknown / very early", out.BuyingTimeline)
	assert.Equal(t, "Low", out.Urgency)
	assert.Equal(t, -1, out.Facts.DaysSinceSeen)
	assert.ElementsMatch(t, []string{"No engagement events recorded yet.", "Low engagement score so far."}, out.RedFlags)
}

func TestScoreBands(t *testing.T) {
	tests := []struct {
		score       float64
		quality     string
		probability int
	}{
		{90, "High", 70},
		{80, "High", 70},
		{60, "High", 55},
		{45, "Medium", 40},
		{20, "Medium", 25},
		{19.9, "Low", 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.quality, LeadQuality(tt.score), "score %v", tt.score)
		assert.Equal(t, tt.probability, ConversionProbability(tt.score), "score %v", tt.score)
	}
}

func TestBuyingTimeline(t *testing.T) {
	assert.Equal(t, "Very near term (1-2 weeks)", BuyingTimeline(65, 2))
	assert.Equal(t, "Near term (2-4 weeks)", BuyingTimeline(65, 5))
	assert.Equal(t, "Medium term (1-3 months)", BuyingTimeline(25, 50))
	assert.Equal(t, "Long-term nurture (3+ months)", BuyingTimeline(5, 1))
}

func TestTopChannels(t *testing.T) {
	counts := map[string]int{"email": 3, "website": 5, "unknown": 10, "ads": 3}
	assert.Equal(t, []string{"website", "ads"}, TopChannels(counts, 2))
}
