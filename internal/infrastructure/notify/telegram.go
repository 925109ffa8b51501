// Package notify sends playbook alerts to a Telegram chat.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultTelegramURL = "https://api.telegram.org"

// Telegram posts messages through the Bot API. Without a token or chat id it does nothing.
type Telegram struct {
	token  string
	chatID string
	apiURL string
	client *fasthttp.Client
	logger *zap.Logger
}

func NewTelegram(token, chatID, apiURL string, logger *zap.Logger) *Telegram {
	if apiURL == "" {
		apiURL = defaultTelegramURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{
		token:  token,
		chatID: chatID,
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &fasthttp.Client{
			Name:         "revenue-engine",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Enabled reports whether messages will actually be sent.
func (t *Telegram) Enabled() bool {
	return t != nil && t.token != "" && t.chatID != ""
}

// Notify sends text to the configured chat. Delivery failures are logged, never returned,
// so a Telegram outage cannot fail the playbook run that triggered it.
func (t *Telegram) Notify(ctx context.Context, text string) {
	if !t.Enabled() || strings.TrimSpace(text) == "" {
		return
	}
	if err := t.send(ctx, text); err != nil {
		t.logger.Warn("telegram notification failed", zap.Error(err))
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := 10 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	if err := t.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("telegram post: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
