package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/revenue-engine/domain"
)

var now = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) *time.Time {
	t := now.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func intPtr(v int) *int { return &v }

func newEngine(t Thresholds) *Engine {
	return New(t).WithClock(func() time.Time { return now })
}

func account(id string, total float64, seen *time.Time) domain.Account {
	return domain.Account{
		ID:          id,
		WorkspaceID: "ws1",
		LastEventAt: seen,
		ScoreTotals: domain.ScoreTotals{TotalScore: total},
	}
}

func find(segments []Segment, name string) []string {
	for _, s := range segments {
		if s.Name == name {
			return s.AccountIDs
		}
	}
	return nil
}

func TestSegment_Scenarios(t *testing.T) {
	engine := newEngine(Thresholds{})

	tests := []struct {
		name    string
		account domain.Account
		want    string
	}{
		{"never seen is dormant", account("a", 0, nil), Dormant},
		{"high score recent is active", account("a", 72, daysAgo(5)), ActiveHighIntent},
		{"high score stale is dormant", account("a", 72, daysAgo(40)), Dormant},
		{"low score recent is low intent", account("a", 20, daysAgo(3)), LowIntent},
		{"boundary score and day", account("a", 70, daysAgo(30)), ActiveHighIntent},
		{"just past dormancy", account("a", 10, daysAgo(31)), Dormant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := engine.Segment("ws1", []domain.Account{tt.account}, nil, Filters{})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Name)
			assert.Equal(t, []string{"a"}, out[0].AccountIDs)
		})
	}
}

func TestSegment_CompletenessAndOrder(t *testing.T) {
	engine := newEngine(Thresholds{})
	accounts := []domain.Account{
		account("d1", 0, nil),
		account("l1", 15, daysAgo(2)),
		account("h1", 90, daysAgo(1)),
		account("d2", 85, daysAgo(100)),
		account("l2", 69.9, daysAgo(10)),
	}

	out := engine.Segment("ws1", accounts, map[string]int{}, Filters{})

	require.Len(t, out, 3)
	assert.Equal(t, ActiveHighIntent, out[0].Name)
	assert.Equal(t, LowIntent, out[1].Name)
	assert.Equal(t, Dormant, out[2].Name)

	seen := map[string]int{}
	for _, s := range out {
		for _, id := range s.AccountIDs {
			seen[id]++
		}
	}
	assert.Len(t, seen, len(accounts))
	for id, n := range seen {
		assert.Equal(t, 1, n, "account %s in %d buckets", id, n)
	}
}

func TestSegment_EmptyBucketsOmitted(t *testing.T) {
	engine := newEngine(Thresholds{})

	out := engine.Segment("ws1", []domain.Account{account("a", 0, nil)}, nil, Filters{})
	require.Len(t, out, 1)
	assert.Equal(t, Dormant, out[0].Name)

	assert.Empty(t, engine.Segment("ws1", nil, nil, Filters{}))
}

func TestSegment_FiltersExcludeEntirely(t *testing.T) {
	engine := newEngine(Thresholds{})
	a := account("busy", 80, daysAgo(1))
	a.Industry = "SaaS"
	a.Stage = "warm"
	b := account("quiet", 80, daysAgo(1))
	b.Industry = "Retail"
	c := account("stale", 5, daysAgo(60))
	c.Industry = "saas"
	d := account("never", 0, nil)
	d.Industry = "SaaS"

	visits := map[string]int{"busy": 12, "quiet": 1, "stale": 9, "never": 0}
	all := []domain.Account{a, b, c, d}

	out := engine.Segment("ws1", all, visits, Filters{MinVisits: intPtr(5)})
	assert.Equal(t, []string{"busy"}, find(out, ActiveHighIntent))
	assert.Equal(t, []string{"stale"}, find(out, Dormant))

	out = engine.Segment("ws1", all, visits, Filters{MaxInactiveDays: intPtr(30)})
	assert.ElementsMatch(t, []string{"busy", "quiet"}, find(out, ActiveHighIntent))
	assert.Equal(t, []string{"never"}, find(out, Dormant), "accounts never seen are not excluded by inactivity")

	out = engine.Segment("ws1", all, visits, Filters{Industries: []string{"saas"}})
	assert.Equal(t, []string{"busy"}, find(out, ActiveHighIntent))
	assert.ElementsMatch(t, []string{"stale", "never"}, find(out, Dormant))

	out = engine.Segment("ws1", all, visits, Filters{Stages: []string{"WARM"}})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"busy"}, out[0].AccountIDs)
}

func TestSegment_WorkspaceScoped(t *testing.T) {
	engine := newEngine(Thresholds{})
	other := account("foreign", 99, daysAgo(1))
	other.WorkspaceID = "ws2"

	out := engine.Segment("ws1", []domain.Account{account("mine", 0, nil), other}, nil, Filters{})

	require.Len(t, out, 1)
	assert.Equal(t, []string{"mine"}, out[0].AccountIDs)
}

func TestSegment_VisitVariant(t *testing.T) {
	engine := newEngine(Thresholds{MinVisits: 5, ActiveWithinDays: 7})
	accounts := []domain.Account{
		account("hot", 0, daysAgo(2)),
		account("few", 99, daysAgo(2)),
		account("late", 0, daysAgo(8)),
	}
	visits := map[string]int{"hot": 5, "few": 4, "late": 20}

	out := engine.Segment("ws1", accounts, visits, Filters{})

	assert.Equal(t, []string{"hot"}, find(out, ActiveHighIntent))
	assert.ElementsMatch(t, []string{"few", "late"}, find(out, LowIntent))
}
