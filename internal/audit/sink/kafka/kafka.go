// Package kafka forwards audit events to a Kafka topic so downstream
// transparency and reporting consumers can tail the trail without touching
// the primary store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"investgate/internal/audit"
)

// Sink produces one JSON record per audit event, keyed by subject ID so a
// subject's history stays ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Sink{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// record is the wire shape published to the topic.
type record struct {
	ID         string         `json:"id"`
	SubjectID  string         `json:"subject_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	Device     string         `json:"device,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(record{
		ID:         event.ID.String(),
		SubjectID:  event.SubjectID.String(),
		Action:     string(event.Action),
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Changes:    event.Changes,
		RequestID:  event.RequestID,
		ClientIP:   event.ClientIP,
		Device:     event.Device,
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	res := s.client.ProduceSync(ctx, &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SubjectID.String()),
		Value: payload,
	})
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
