package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository/mocks"
)

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	active := &domain.APIKey{ID: "k1", WorkspaceID: "ws", Key: "secret", IsActive: true}

	tests := []struct {
		name    string
		key     string
		setup   func(repo *mocks.WorkspaceRepository, cache *mocks.APIKeyCache)
		wantWS  string
		wantErr error
	}{
		{
			name:    "blank key",
			key:     " ",
			wantErr: domain.ErrUnauthorized,
		},
		{
			name: "cache hit",
			key:  "secret",
			setup: func(_ *mocks.WorkspaceRepository, cache *mocks.APIKeyCache) {
				cache.On("Get", ctx, "secret").Return(active, nil)
			},
			wantWS: "ws",
		},
		{
			name: "cache miss loads and saves",
			key:  "secret",
			setup: func(repo *mocks.WorkspaceRepository, cache *mocks.APIKeyCache) {
				cache.On("Get", ctx, "secret").Return(nil, domain.ErrCacheMiss)
				repo.On("GetAPIKey", ctx, "secret").Return(active, nil)
				cache.On("Save", ctx, active).Return(nil)
			},
			wantWS: "ws",
		},
		{
			name: "cache outage falls through",
			key:  "secret",
			setup: func(repo *mocks.WorkspaceRepository, cache *mocks.APIKeyCache) {
				cache.On("Get", ctx, "secret").Return(nil, errors.New("dial tcp"))
				repo.On("GetAPIKey", ctx, "secret").Return(active, nil)
				cache.On("Save", ctx, active).Return(errors.New("dial tcp"))
			},
			wantWS: "ws",
		},
		{
			name: "unknown key",
			key:  "nope",
			setup: func(repo *mocks.WorkspaceRepository, cache *mocks.APIKeyCache) {
				cache.On("Get", ctx, "nope").Return(nil, domain.ErrCacheMiss)
				repo.On("GetAPIKey", ctx, "nope").Return(nil, domain.ErrAPIKeyNotFound)
			},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name: "inactive key",
			key:  "old",
			setup: func(repo *mocks.WorkspaceRepository, cache *mocks.APIKeyCache) {
				cache.On("Get", ctx, "old").Return(nil, domain.ErrCacheMiss)
				repo.On("GetAPIKey", ctx, "old").Return(&domain.APIKey{Key: "old", WorkspaceID: "ws"}, nil)
			},
			wantErr: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.WorkspaceRepository)
			cache := new(mocks.APIKeyCache)
			if tt.setup != nil {
				tt.setup(repo, cache)
			}
			uc := New(repo, cache, TokenConfig{}, zap.NewNop())

			key, err := uc.ResolveAPIKey(ctx, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWS, key.WorkspaceID)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestIssueAndParseToken(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.WorkspaceRepository)
	repo.On("GetAPIKey", ctx, "secret").Return(&domain.APIKey{ID: "k1", WorkspaceID: "ws", IsActive: true}, nil)

	issuedAt := time.Now().UTC()
	uc := New(repo, nil, TokenConfig{Secret: "s3cr3t", Issuer: "revenue-engine", TTL: time.Hour}, nil).
		WithClock(func() time.Time { return issuedAt })

	token, err := uc.IssueToken(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, "ws", token.WorkspaceID)
	assert.False(t, token.IsExpired(issuedAt))
	assert.WithinDuration(t, issuedAt.Add(time.Hour), token.ExpiresAt, time.Second)

	ws, err := uc.ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "ws", ws)

	other := New(repo, nil, TokenConfig{Secret: "different", TTL: time.Hour}, nil)
	_, err = other.ParseToken(token.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.ParseToken("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssueToken_Disabled(t *testing.T) {
	uc := New(new(mocks.WorkspaceRepository), nil, TokenConfig{}, nil)
	_, err := uc.IssueToken(context.Background(), "secret")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestParseToken_Expired(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.WorkspaceRepository)
	repo.On("GetAPIKey", ctx, mock.Anything).Return(&domain.APIKey{ID: "k1", WorkspaceID: "ws", IsActive: true}, nil)

	past := time.Now().Add(-2 * time.Hour)
	uc := New(repo, nil, TokenConfig{Secret: "s", TTL: time.Minute}, nil).WithClock(func() time.Time { return past })
	token, err := uc.IssueToken(ctx, "secret")
	require.NoError(t, err)

	_, err = uc.ParseToken(token.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
