package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Client publishes and consumes JSON events over NATS.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to url. While the server is unreachable the client keeps
// retrying in the background and publishes are buffered.
func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("mentor"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats async error", "subject", subject, "error", err)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

// Publish marshals data as JSON and publishes it on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the subscriptions, letting in-flight handlers finish, and
// then closes the connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed, closing", "error", err)
		c.conn.Close()
	}
}

// Subscribe delivers each event published on subject to fn, decoded as T.
func Subscribe[T any](c *Client, subject string, fn func(evt T)) error {
	handle := Handle(c.logger, fn)
	_, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handle(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	var evt T
	c.logger.Info("subscribed", "subject", subject, "event", fmt.Sprintf("%T", evt))
	return nil
}

// Handle adapts a typed event handler to raw message payloads. Payloads that
// do not decode into T are logged and dropped.
func Handle[T any](logger *slog.Logger, fn func(evt T)) func(subject string, data []byte) {
	return func(subject string, data []byte) {
		var evt T
		if err := json.Unmarshal(data, &evt); err != nil {
			logger.Error("failed to parse event", "subject", subject, "error", err)
			return
		}
		fn(evt)
	}
}
