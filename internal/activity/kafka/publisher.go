// Package kafka publishes activity events to the shared event bus so
// downstream consumers (billing, compliance) can subscribe without coupling
// to this service's storage.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"vigie/internal/activity"
)

// Topic carries every activity event, keyed by user ID so one user's events
// stay ordered.
const Topic = "vigie.activity"

// record is the JSON structure published to Kafka.
type record struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	UserID    string          `json:"user_id,omitempty"`
	Action    string          `json:"action"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Publisher produces activity events. Safe for concurrent use.
type Publisher struct {
	client *kgo.Client
}

// NewPublisher connects to the brokers and ensures the topic exists.
func NewPublisher(ctx context.Context, brokers []string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 3, 1, nil, Topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", Topic, err)
	}
	for _, resp := range resps.Sorted() {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}

	return &Publisher{client: client}, nil
}

// Emit publishes one event synchronously.
func (p *Publisher) Emit(ctx context.Context, event activity.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload := record{
		ID:        uuid.NewString(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		Metadata:  event.Metadata,
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal activity record: %w", err)
	}

	rec := &kgo.Record{Key: []byte(payload.UserID), Value: value}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce activity record: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
