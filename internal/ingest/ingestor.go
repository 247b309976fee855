// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package ingest

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/metrics"
	"github.com/tomtom215/attentra/internal/models"
)

// EventStore is the slice of the metadata store the ingestor needs.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) error
}

// EventSubscriber is the slice of the bus the ingestor needs.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Ingestor is the single consume loop. Every message is acked exactly once:
// stored events ack on success, malformed messages ack and drop, and store
// failures ack after logging (the event is lost, there is no retry path).
type Ingestor struct {
	subscriber EventSubscriber
	store      EventStore
	topic      string
}

// NewIngestor wires the consume loop to a subscriber and an event store.
func NewIngestor(subscriber EventSubscriber, store EventStore, topic string) *Ingestor {
	return &Ingestor{
		subscriber: subscriber,
		store:      store,
		topic:      topic,
	}
}

// Serve consumes messages until the context is canceled. It implements
// suture.Service; returning ctx.Err() signals a clean supervised stop.
func (i *Ingestor) Serve(ctx context.Context) error {
	messages, err := i.subscriber.Subscribe(ctx, i.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", i.topic, err)
	}

	logging.Info().Str("topic", i.topic).Msg("Event ingestor started")

	for {
		select {
		case <-ctx.Done():
			i.drain(messages)
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			i.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes one bus message. It never returns an error: the
// loop must survive malformed input and store outages alike.
func (i *Ingestor) handleMessage(ctx context.Context, msg *message.Message) {
	metrics.EventsConsumed.Inc()

	event, err := parseEvent(msg.Payload)
	if err != nil {
		metrics.EventParseFailures.Inc()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping malformed event")
		msg.Ack()
		return
	}

	if err := i.store.InsertEvent(ctx, event); err != nil {
		metrics.EventInsertFailures.Inc()
		logging.Warn().
			Err(err).
			Str("session_id", event.SessionID).
			Str("event_type", string(event.EventType)).
			Msg("Event lost: store write failed")
		msg.Ack()
		return
	}

	metrics.EventsStored.Inc()
	msg.Ack()
}

// drain nacks whatever is already buffered so those messages redeliver
// promptly after restart instead of waiting out the ack deadline.
func (i *Ingestor) drain(messages <-chan *message.Message) {
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			msg.Nack()
		default:
			return
		}
	}
}

// parseEvent decodes and validates a wire event.
func parseEvent(payload []byte) (*models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	return &event, nil
}
