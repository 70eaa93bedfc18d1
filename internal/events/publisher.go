// Package events publishes domain events over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// NatsPublisher emits domain events onto a NATS subject. Consumers are
// decoupled pipelines (analytics, retention); delivery is best-effort from
// the API's point of view.
type NatsPublisher struct {
	natsConnection *nats.Conn
	subject        string
}

// NewNatsPublisher creates a publisher for the given subject.
func NewNatsPublisher(natsConnection *nats.Conn, subject string) *NatsPublisher {
	return &NatsPublisher{
		natsConnection: natsConnection,
		subject:        subject,
	}
}

// PublishGenerationCreated announces a completed synthesis.
func (p *NatsPublisher) PublishGenerationCreated(
	_ context.Context,
	event *core.GenerationCreatedEvent,
) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal generation event: %w", err)
	}

	err = p.natsConnection.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish generation event to %s: %w", p.subject, err)
	}

	return nil
}
