// Package bus publishes domain notifications on NATS.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *zap.Logger
}

// NewClient connects to NATS. Connection failures at boot are retried in the background.
func NewClient(ctx context.Context, url, token string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []nats.Option{
		nats.Name("revenue-engine"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info("nats client ready", zap.String("url", url))
	return &Client{conn: nc, logger: logger}, nil
}

// Publish marshals data as JSON and publishes it on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", zap.String("subject", subject))
	return nil
}

// IsConnected feeds the connection monitor.
func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Shutdown waits for published messages to reach the server, then closes the connection.
func (c *Client) Shutdown(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return nil
	}
	var err error
	if c.conn.IsConnected() {
		if err = c.conn.FlushWithContext(ctx); err != nil {
			err = fmt.Errorf("nats flush: %w", err)
		}
	}
	c.Close()
	return err
}

// Close drains subscriptions and closes the connection.
func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}

// Nop drops every message. It is used when NATS_URL is empty.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }
