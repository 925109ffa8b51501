package playbook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/revenue-engine/domain"
)

type MockTaskCounter struct {
	mock.Mock
}

func (m *MockTaskCounter) CountOpen(ctx context.Context, workspaceID, accountID string) (int, error) {
	args := m.Called(ctx, workspaceID, accountID)
	return args.Int(0), args.Error(1)
}

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

func sampleAccount() *domain.Account {
	return &domain.Account{
		ID:          "acc-1",
		WorkspaceID: "ws1",
		Name:        "Acme",
		Country:     "Germany",
		Stage:       "Warm",
		BuyerStage:  domain.StageEvaluating,
		ScoreTotals: domain.ScoreTotals{IntentScore: 30, TotalScore: 60},
	}
}

func TestMatches_VacuousRule(t *testing.T) {
	ev := NewEvaluator(nil)
	rule := &domain.PlaybookRule{WorkspaceID: "ws1", IsActive: true}

	for _, acc := range []*domain.Account{sampleAccount(), {ID: "empty", WorkspaceID: "ws1"}} {
		ok, err := ev.Matches(context.Background(), acc, rule)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestMatches_Conditions(t *testing.T) {
	tests := []struct {
		name string
		rule domain.PlaybookRule
		want bool
	}{
		{"total at threshold", domain.PlaybookRule{MinTotalScore: f(60)}, true},
		{"total above account", domain.PlaybookRule{MinTotalScore: f(60.01)}, false},
		{"intent ok", domain.PlaybookRule{MinIntentScore: f(25)}, true},
		{"intent too high", domain.PlaybookRule{MinIntentScore: f(31)}, false},
		{"buyer stage case-insensitive", domain.PlaybookRule{BuyerStageIn: []string{"EVALUATING", "buying"}}, true},
		{"buyer stage miss", domain.PlaybookRule{BuyerStageIn: []string{"buying"}}, false},
		{"country case-insensitive", domain.PlaybookRule{CountriesIn: []string{"germany"}}, true},
		{"country miss", domain.PlaybookRule{CountriesIn: []string{"France"}}, false},
		{"pipeline stage case-insensitive", domain.PlaybookRule{StagesIn: []string{"warm"}}, true},
		{"empty set is unspecified", domain.PlaybookRule{StagesIn: []string{}}, true},
		{"all conditions must hold", domain.PlaybookRule{MinTotalScore: f(10), CountriesIn: []string{"France"}}, false},
	}

	ev := NewEvaluator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule
			rule.WorkspaceID = "ws1"
			rule.IsActive = true
			ok, err := ev.Matches(context.Background(), sampleAccount(), &rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatches_InactiveNeverMatches(t *testing.T) {
	counter := new(MockTaskCounter)
	ev := NewEvaluator(counter)

	ok, err := ev.Matches(context.Background(), sampleAccount(), &domain.PlaybookRule{WorkspaceID: "ws1", HasOpenTasks: b(true)})

	require.NoError(t, err)
	assert.False(t, ok)
	counter.AssertNotCalled(t, "CountOpen", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatches_ForeignWorkspaceNeverMatches(t *testing.T) {
	counter := new(MockTaskCounter)
	ev := NewEvaluator(counter)

	for _, ws := range []string{"ws2", ""} {
		ok, err := ev.Matches(context.Background(), sampleAccount(), &domain.PlaybookRule{WorkspaceID: ws, IsActive: true, HasOpenTasks: b(false)})
		require.NoError(t, err)
		assert.False(t, ok, "rule workspace %q", ws)
	}
	counter.AssertNotCalled(t, "CountOpen", mock.Anything, mock.Anything, mock.Anything)
}

func TestActions_CarryRuleDescriptionAndOwner(t *testing.T) {
	rule := &domain.PlaybookRule{ID: "r1", WorkspaceID: "ws1", Name: "Hot", Description: "Enterprise follow-up", Owner: "dana",
		CreateTask: true, CreateAlert: true}

	actions, err := Actions(sampleAccount(), rule)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	for _, a := range actions {
		assert.Equal(t, "Enterprise follow-up", a.Description)
		assert.Equal(t, "dana", a.Owner)
	}
}

func TestMatches_HasOpenTasks(t *testing.T) {
	ctx := context.Background()

	counter := new(MockTaskCounter)
	counter.On("CountOpen", ctx, "ws1", "acc-1").Return(2, nil)
	ev := NewEvaluator(counter)

	ok, err := ev.Matches(ctx, sampleAccount(), &domain.PlaybookRule{WorkspaceID: "ws1", IsActive: true, HasOpenTasks: b(true)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Matches(ctx, sampleAccount(), &domain.PlaybookRule{WorkspaceID: "ws1", IsActive: true, HasOpenTasks: b(false)})
	require.NoError(t, err)
	assert.False(t, ok)

	none := new(MockTaskCounter)
	none.On("CountOpen", ctx, "ws1", "acc-1").Return(0, nil)
	ok, err = NewEvaluator(none).Matches(ctx, sampleAccount(), &domain.PlaybookRule{WorkspaceID: "ws1", IsActive: true, HasOpenTasks: b(false)})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_CounterFailure(t *testing.T) {
	ctx := context.Background()
	counter := new(MockTaskCounter)
	counter.On("CountOpen", ctx, "ws1", "acc-1").Return(0, errors.New("db down"))

	_, err := NewEvaluator(counter).Matches(ctx, sampleAccount(), &domain.PlaybookRule{WorkspaceID: "ws1", IsActive: true, HasOpenTasks: b(true)})

	assert.Error(t, err)
}

func TestEvaluate_MultipleRulesNoShortCircuit(t *testing.T) {
	ctx := context.Background()
	counter := new(MockTaskCounter)
	counter.On("CountOpen", ctx, "ws1", "acc-1").Return(0, nil).Once()

	rules := []domain.PlaybookRule{
		{ID: "r1", WorkspaceID: "ws1", Name: "Hot", IsActive: true, MinTotalScore: f(50), CreateTask: true},
		{ID: "r2", WorkspaceID: "ws1", Name: "No tasks", IsActive: true, HasOpenTasks: b(false), CreateAlert: true, PushToCRM: true},
		{ID: "r3", WorkspaceID: "ws1", Name: "Paused", IsActive: false, CreateTask: true},
		{ID: "r4", WorkspaceID: "ws1", Name: "Too hot", IsActive: true, MinTotalScore: f(90), CreateTask: true},
		{ID: "r5", WorkspaceID: "ws2", Name: "Foreign", IsActive: true, CreateTask: true},
		{ID: "r6", WorkspaceID: "ws1", Name: "Custom", IsActive: true, CreateTask: true, TaskTitle: "Call {account.name} ({account.country})",
			CreateAlert: true, AlertTitle: "{rule.name}: {account.total_score}", AlertSeverity: domain.SeverityHigh},
	}

	actions, err := NewEvaluator(counter).Evaluate(ctx, sampleAccount(), rules)
	require.NoError(t, err)

	want := []domain.PlaybookAction{
		{Kind: domain.ActionCreateTask, RuleID: "r1", RuleName: "Hot", AccountID: "acc-1", Title: "Follow up with Acme"},
		{Kind: domain.ActionCreateAlert, RuleID: "r2", RuleName: "No tasks", AccountID: "acc-1", Title: "Playbook triggered: No tasks", Severity: domain.SeverityMedium},
		{Kind: domain.ActionPushToCRM, RuleID: "r2", RuleName: "No tasks", AccountID: "acc-1"},
		{Kind: domain.ActionCreateTask, RuleID: "r6", RuleName: "Custom", AccountID: "acc-1", Title: "Call Acme (Germany)"},
		{Kind: domain.ActionCreateAlert, RuleID: "r6", RuleName: "Custom", AccountID: "acc-1", Title: "Custom: 60.0", Severity: domain.SeverityHigh},
	}
	assert.Equal(t, want, actions)
	counter.AssertNumberOfCalls(t, "CountOpen", 1)
}

func TestEvaluate_UnknownTemplateField(t *testing.T) {
	rules := []domain.PlaybookRule{
		{ID: "r1", WorkspaceID: "ws1", Name: "Broken", IsActive: true, CreateTask: true, TaskTitle: "Ping {account.ceo}"},
	}

	_, err := NewEvaluator(nil).Evaluate(context.Background(), sampleAccount(), rules)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestRender(t *testing.T) {
	acc := sampleAccount()
	rule := &domain.PlaybookRule{Name: "Hot"}

	out, err := Render("plain text", acc, rule)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = Render("{account.name}/{account.buyer_stage}/{ rule.name }/{account.intent_score}", acc, rule)
	require.NoError(t, err)
	assert.Equal(t, "Acme/evaluating/Hot/30.0", out)

	out, err = Render("dangling {brace", acc, rule)
	require.NoError(t, err)
	assert.Equal(t, "dangling {brace", out)
}
