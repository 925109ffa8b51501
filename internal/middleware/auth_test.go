package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/revenue-engine/api/transport"
	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/httpcontext"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) ResolveAPIKey(ctx context.Context, key string) (*domain.APIKey, error) {
	args := m.Called(ctx, key)
	rec, _ := args.Get(0).(*domain.APIKey)
	return rec, args.Error(1)
}

func (m *MockAuthenticator) ParseToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func TestWorkspaceAuth(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		setup      func(m *MockAuthenticator)
		wantStatus int
		wantWS     string
	}{
		{
			name:    "api key",
			headers: map[string]string{"X-API-Key": "key-1"},
			setup: func(m *MockAuthenticator) {
				m.On("ResolveAPIKey", mock.Anything, "key-1").Return(&domain.APIKey{WorkspaceID: "ws-1", IsActive: true}, nil)
			},
			wantStatus: http.StatusOK,
			wantWS:     "ws-1",
		},
		{
			name:    "bearer token",
			headers: map[string]string{"Authorization": "Bearer tok"},
			setup: func(m *MockAuthenticator) {
				m.On("ParseToken", "tok").Return("ws-2", nil)
			},
			wantStatus: http.StatusOK,
			wantWS:     "ws-2",
		},
		{
			name:       "no credentials",
			setup:      func(*MockAuthenticator) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non bearer authorization",
			headers:    map[string]string{"Authorization": "Basic abc"},
			setup:      func(*MockAuthenticator) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "unknown key",
			headers: map[string]string{"X-API-Key": "nope"},
			setup: func(m *MockAuthenticator) {
				m.On("ResolveAPIKey", mock.Anything, "nope").Return(nil, domain.ErrUnauthorized)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "expired token",
			headers: map[string]string{"Authorization": "bearer old"},
			setup: func(m *MockAuthenticator) {
				m.On("ParseToken", "old").Return("", domain.ErrUnauthorized)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "store outage",
			headers: map[string]string{"X-API-Key": "key-1"},
			setup: func(m *MockAuthenticator) {
				m.On("ResolveAPIKey", mock.Anything, "key-1").Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthenticator)
			tt.setup(auth)

			var seen string
			called := false
			handler := WorkspaceAuth(auth, nil, nil)(func(ctx *fasthttp.RequestCtx) {
				called = true
				seen, _ = ctx.UserValue(httpcontext.UserValueWorkspace).(string)
				ctx.SetStatusCode(http.StatusOK)
			})

			var rc fasthttp.RequestCtx
			for k, v := range tt.headers {
				rc.Request.Header.Set(k, v)
			}
			handler(&rc)

			assert.Equal(t, tt.wantStatus, rc.Response.StatusCode())
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			assert.Equal(t, tt.wantWS, seen)
			if tt.wantStatus != http.StatusOK {
				var env transport.Envelope
				require.NoError(t, json.Unmarshal(rc.Response.Body(), &env))
				assert.Equal(t, "error", env.Status)
			}
			auth.AssertExpectations(t)
		})
	}
}
