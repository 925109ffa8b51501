package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository/mocks"
)

type crmFixture struct {
	accounts      *mocks.AccountRepository
	contacts      *mocks.ContactRepository
	opportunities *mocks.OpportunityRepository
	mappings      *mocks.ExternalMapRepository
	uc            *UseCase
}

func newCRMFixture() *crmFixture {
	f := &crmFixture{
		accounts:      new(mocks.AccountRepository),
		contacts:      new(mocks.ContactRepository),
		opportunities: new(mocks.OpportunityRepository),
		mappings:      new(mocks.ExternalMapRepository),
	}
	f.uc = New(Deps{
		Accounts:      f.accounts,
		Contacts:      f.contacts,
		Opportunities: f.opportunities,
		Mappings:      f.mappings,
	}, zap.NewNop())
	return f
}

func TestUpsertAccount_CreatesAndMaps(t *testing.T) {
	ctx := context.Background()
	f := newCRMFixture()

	f.mappings.On("Get", ctx, "ws", "hubspot", domain.ObjectAccount, "hs-1").Return(nil, domain.ErrMappingNotFound)
	f.accounts.On("Create", ctx, mock.MatchedBy(func(a *domain.Account) bool { return a.Name == "Acme" })).
		Return(&domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Acme"}, nil)
	f.mappings.On("Put", ctx, &domain.ExternalObjectMap{
		WorkspaceID: "ws", Provider: "hubspot", ObjectType: domain.ObjectAccount, ExternalID: "hs-1", InternalID: "acc-1",
	}).Return(nil)

	res, err := f.uc.UpsertAccount(ctx, "ws", "hubspot", AccountInput{ExternalID: "hs-1", Name: "Acme"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "acc-1", res.Object.ID)
	f.mappings.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestUpsertAccount_UpdatesMapped(t *testing.T) {
	ctx := context.Background()
	f := newCRMFixture()
	stored := &domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Old", ScoreTotals: domain.ScoreTotals{TotalScore: 30}}

	f.mappings.On("Get", ctx, "ws", "hubspot", domain.ObjectAccount, "hs-1").
		Return(&domain.ExternalObjectMap{InternalID: "acc-1"}, nil)
	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(stored, nil)
	f.accounts.On("Update", ctx, stored).Return(nil)

	res, err := f.uc.UpsertAccount(ctx, "ws", "hubspot", AccountInput{ExternalID: "hs-1", Name: "New", Country: "US"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "New", res.Object.Name)
	assert.Equal(t, "US", res.Object.Country)
	assert.Equal(t, 30.0, res.Object.TotalScore)
}

func TestUpsertAccount_StaleMappingCreatesNew(t *testing.T) {
	ctx := context.Background()
	f := newCRMFixture()

	f.mappings.On("Get", ctx, "ws", "hubspot", domain.ObjectAccount, "hs-1").
		Return(&domain.ExternalObjectMap{InternalID: "deleted"}, nil)
	f.accounts.On("GetByID", ctx, "ws", "deleted").Return(nil, domain.ErrAccountNotFound)
	f.accounts.On("Create", ctx, mock.Anything).Return(&domain.Account{ID: "acc-2", WorkspaceID: "ws"}, nil)
	f.mappings.On("Put", ctx, mock.MatchedBy(func(m *domain.ExternalObjectMap) bool { return m.InternalID == "acc-2" })).Return(nil)

	res, err := f.uc.UpsertAccount(ctx, "ws", "hubspot", AccountInput{ExternalID: "hs-1", Name: "Acme"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	f.mappings.AssertExpectations(t)
}

func TestUpsertContact_UnknownAccountExternalID(t *testing.T) {
	ctx := context.Background()
	f := newCRMFixture()
	f.mappings.On("Get", ctx, "ws", "hubspot", domain.ObjectAccount, "missing").Return(nil, domain.ErrMappingNotFound)

	_, err := f.uc.UpsertContact(ctx, "ws", "hubspot", ContactInput{ExternalID: "c-9", AccountExternalID: "missing"})
	assert.ErrorIs(t, err, domain.ErrUnknownExternalID)
	f.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpsertOpportunity_Create(t *testing.T) {
	ctx := context.Background()
	f := newCRMFixture()

	f.mappings.On("Get", ctx, "ws", "hubspot", domain.ObjectAccount, "hs-1").Return(&domain.ExternalObjectMap{InternalID: "acc-1"}, nil)
	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
	f.mappings.On("Get", ctx, "ws", "hubspot", domain.ObjectOpportunity, "deal-1").Return(nil, domain.ErrMappingNotFound)
	f.opportunities.On("Create", ctx, mock.MatchedBy(func(o *domain.Opportunity) bool {
		return o.AccountID == "acc-1" && o.Source == "hubspot" && o.ExternalID == "deal-1"
	})).Return(&domain.Opportunity{ID: "opp-1", AccountID: "acc-1"}, nil)
	f.mappings.On("Put", ctx, mock.Anything).Return(nil)

	res, err := f.uc.UpsertOpportunity(ctx, "ws", "hubspot", OpportunityInput{ExternalID: "deal-1", AccountExternalID: "hs-1", Name: "Deal", Amount: 5000})
	require.NoError(t, err)
	assert.True(t, res.Created)
	f.opportunities.AssertExpectations(t)
}

func TestRequireIDs(t *testing.T) {
	f := newCRMFixture()
	_, err := f.uc.UpsertAccount(context.Background(), "ws", "", AccountInput{ExternalID: "x", Name: "n"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	_, err = f.uc.UpsertAccount(context.Background(), "ws", "hubspot", AccountInput{Name: "n"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCreateOpportunity_RequiresAccount(t *testing.T) {
	ctx := context.Background()
	f := newCRMFixture()
	f.accounts.On("GetByID", ctx, "ws", "ghost").Return(nil, domain.ErrAccountNotFound)

	_, err := f.uc.CreateOpportunity(ctx, &domain.Opportunity{WorkspaceID: "ws", AccountID: "ghost", Name: "Deal"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
