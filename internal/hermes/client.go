package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Client publishes JSON events under a fixed subject prefix.
type Client struct {
	conn   *nats.Conn
	prefix string
	subs   []*nats.Subscription
	logger *slog.Logger
}

// Connect dials NATS. The connection retries in the background, so a broker
// that is down at startup does not stop the session service.
func Connect(url, token, prefix string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("hcplog"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
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

	return &Client{conn: nc, prefix: strings.TrimSuffix(prefix, "."), logger: logger}, nil
}

// Subject joins name onto the client's prefix.
func (c *Client) Subject(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "." + name
}

// Publish sends data as JSON on the prefixed subject.
func (c *Client) Publish(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(c.Subject(name), payload)
}

// Subscribe listens on the prefixed subject; wildcards are allowed in name.
func (c *Client) Subscribe(name string, handler func(subject string, data []byte)) error {
	subject := c.Subject(name)
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Close unsubscribes and drains, giving in-flight publishes a chance to
// reach the server.
func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
}
