package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"constructia-backend/internal/shared/telemetry"
)

// SubjectPrefix scopes every lifecycle subject in the stream.
const SubjectPrefix = "audit"

// JetStream is the subset of nats.JetStreamContext used by NATSPublisher.
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSPublisher publishes events to a JetStream stream, deduplicated by event ID.
type NATSPublisher struct {
	conn *nats.Conn
	js   JetStream
}

// ConnectNATS dials the server, opens JetStream and ensures the stream exists.
func ConnectNATS(url, stream string) (*NATSPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(url,
		nats.Name("constructia-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				telemetry.Warn("nats.disconnected", map[string]any{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			telemetry.Info("nats.reconnected", map[string]any{"url": nc.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open jetstream: %w", err)
	}

	if err := ensureStream(js, stream); err != nil {
		telemetry.Warn("nats.stream_ensure_failed", map[string]any{"stream": stream, "error": err.Error()})
	}

	telemetry.Info("nats.connected", map[string]any{"stream": stream})
	return &NATSPublisher{conn: conn, js: js}, nil
}

// NewNATSPublisher wraps an existing JetStream context.
func NewNATSPublisher(js JetStream) *NATSPublisher {
	return &NATSPublisher{js: js}
}

func ensureStream(js nats.JetStreamContext, stream string) error {
	if _, err := js.StreamInfo(stream); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{SubjectPrefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   90 * 24 * time.Hour,
	})
	return err
}

// Publish implements Publisher. The event ID doubles as the JetStream message ID.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, evt Event) error {
	if p == nil || p.js == nil {
		return errors.New("jetstream not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	opts := []nats.PubOpt{nats.Context(ctx)}
	if evt.ID != "" {
		opts = append(opts, nats.MsgId(evt.ID))
	}
	if _, err := p.js.Publish(subject, data, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the underlying connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Subject builds the subject an audit action is published on.
func Subject(action string) string {
	return SubjectPrefix + "." + action
}
