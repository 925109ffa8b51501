package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/internal/insight"
)

func textResponse(text string) map[string]any {
	return map[string]any{
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 100, req.MaxTokens)
		assert.Equal(t, "you are a test", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		_ = json.NewEncoder(w).Encode(textResponse("world"))
	}))
	defer server.Close()

	c := NewClient("test-key", "test-model", server.URL, 100, time.Second)
	got, err := c.Complete(context.Background(), "you are a test", []Message{{Role: "user", Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "world", got)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr string
	}{
		{
			name:    "api error",
			status:  http.StatusBadRequest,
			body:    map[string]any{"error": map[string]any{"type": "invalid_request_error", "message": "bad"}},
			wantErr: "invalid_request_error",
		},
		{
			name:    "plain failure",
			status:  http.StatusBadGateway,
			body:    "upstream",
			wantErr: "api error 502",
		},
		{
			name:    "empty content",
			status:  http.StatusOK,
			body:    map[string]any{"content": []any{}},
			wantErr: "empty response content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			c := NewClient("k", "m", server.URL, 0, time.Second)
			_, err := c.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNarrator_SendsFacts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var facts insight.Facts
		require.NoError(t, json.Unmarshal([]byte(req.Messages[0].Content), &facts))
		assert.Equal(t, "Acme", facts.AccountName)
		assert.Equal(t, domain.StageBuying, facts.BuyerStage)
		assert.NotEmpty(t, req.System)

		_ = json.NewEncoder(w).Encode(textResponse("  Acme is ready to buy.\n"))
	}))
	defer server.Close()

	n := NewNarrator(NewClient("k", "m", server.URL, 0, time.Second))
	got, err := n.Narrate(context.Background(), insight.Facts{AccountName: "Acme", BuyerStage: domain.StageBuying})
	require.NoError(t, err)
	assert.Equal(t, "Acme is ready to buy.", got)
}

func TestClient_DeadlineFromContext(t *testing.T) {
	c := NewClient("k", "m", "", 0, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.LessOrEqual(t, c.deadline(ctx), 50*time.Millisecond)
	assert.Equal(t, time.Minute, c.deadline(context.Background()))
}
