// Package anthropic calls the Anthropic Messages API to narrate account insights.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/revenue-engine/internal/insight"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

type Client struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	timeout   time.Duration
	client    *fasthttp.Client
}

func NewClient(apiKey, model, baseURL string, maxTokens int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxTokens: maxTokens,
		timeout:   timeout,
		client:    &fasthttp.Client{Name: "revenue-engine"},
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one request and returns the first text block.
func (c *Client) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	body, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/v1/messages")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.SetBody(body)

	if err := c.client.DoTimeout(req, resp, c.deadline(ctx)); err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}

	respBody := resp.Body()
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Type != "" {
			return "", fmt.Errorf("api error %d: %s: %s", status, errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("api error %d: %s", status, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response content")
	}
	return apiResp.Content[0].Text, nil
}

func (c *Client) deadline(ctx context.Context) time.Duration {
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

const narratorSystem = `You are a B2B sales analyst. Write two or three plain sentences about the account
described in the JSON facts: where it is in its buying journey and what the sales team should do next.
Do not invent facts that are not in the input.`

// Narrator adapts the client to insight.Narrator.
type Narrator struct {
	client *Client
}

func NewNarrator(client *Client) *Narrator {
	return &Narrator{client: client}
}

func (n *Narrator) Narrate(ctx context.Context, facts insight.Facts) (string, error) {
	payload, err := json.Marshal(facts)
	if err != nil {
		return "", err
	}
	text, err := n.client.Complete(ctx, narratorSystem, []Message{{Role: "user", Content: string(payload)}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

var _ insight.Narrator = (*Narrator)(nil)
