//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"vigie/internal/activity"
	activitykafka "vigie/internal/activity/kafka"
	id "vigie/pkg/domain"
	"vigie/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *activitykafka.Publisher
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())

	publisher, err := activitykafka.NewPublisher(context.Background(), s.redpanda.Brokers)
	s.Require().NoError(err)
	s.publisher = publisher
}

func (s *PublisherSuite) TearDownSuite() {
	s.publisher.Close()
	s.Require().NoError(s.redpanda.Container.Terminate(context.Background()))
}

func (s *PublisherSuite) TestEmitProducesKeyedRecord() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(activitykafka.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	event := activity.Event{
		UserID:   userID,
		Action:   "surveillance.created",
		Metadata: json.RawMessage(`{"siren":"123456789"}`),
	}
	s.Require().NoError(s.publisher.Emit(ctx, event))

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)
	rec := records[0]
	s.Equal(userID.String(), string(rec.Key))

	var payload struct {
		ID        string          `json:"id"`
		Timestamp string          `json:"timestamp"`
		UserID    string          `json:"user_id"`
		Action    string          `json:"action"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	s.Require().NoError(json.Unmarshal(rec.Value, &payload))
	s.NotEmpty(payload.ID)
	s.Equal(userID.String(), payload.UserID)
	s.Equal("surveillance.created", payload.Action)
	s.JSONEq(`{"siren":"123456789"}`, string(payload.Metadata))

	_, err = time.Parse(time.RFC3339Nano, payload.Timestamp)
	s.NoError(err)
}

func (s *PublisherSuite) TestEmitWithoutUserOmitsKey() {
	ctx := context.Background()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(activitykafka.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	s.Require().NoError(s.publisher.Emit(ctx, activity.Event{Action: "sweep.completed"}))

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Empty(records[0].Key)

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(records[0].Value, &payload))
	s.Equal("sweep.completed", payload["action"])
	s.NotContains(payload, "user_id")
}
