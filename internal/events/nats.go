package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes domain events to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Compile-time check that NATSPublisher implements Publisher.
var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.Name("kerniflow-tax"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// SnapshotLocked publishes a snapshot-locked event.
func (p *NATSPublisher) SnapshotLocked(_ context.Context, event SnapshotLockedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot locked event: %w", err)
	}

	if err := p.conn.Publish(SubjectSnapshotLocked, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectSnapshotLocked, err)
	}

	p.logger.Debug("published snapshot locked event",
		slog.String("subject", SubjectSnapshotLocked),
		slog.String("snapshot_id", event.SnapshotID),
	)
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", slog.String("error", err.Error()))
	}
}
