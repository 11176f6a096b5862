package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher emits domain events.
type Publisher interface {
	Publish(subject string, v any) error
	Close()
}

// NATS publishes JSON-encoded events under a subject prefix.
type NATS struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials the server. The connection reconnects on its own.
func Connect(url, prefix string, log *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("ecourse"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATS{conn: conn, prefix: prefix}, nil
}

func (n *NATS) Publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return n.conn.Publish(Subject(n.prefix, subject), data)
}

// Close flushes pending messages before closing.
func (n *NATS) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

// Subject joins the prefix and the event name.
func Subject(prefix, name string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(string, any) error { return nil }

func (Discard) Close() {}
