// Package redpanda publishes candidate lifecycle events to Redpanda (Kafka API).
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// recordProducer is the part of *kgo.Client the Producer needs.
type recordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer implements domain.EventPublisher. Records are keyed by candidate
// email so one candidate's events stay ordered within a partition.
type Producer struct {
	client recordProducer
	topic  string
}

// NewProducer connects to brokers and makes sure the topic exists.
func NewProducer(ctx context.Context, brokers []string, spec TopicSpec) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.new_producer: %w: no seed brokers provided", domain.ErrInvalidArgument)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("op=redpanda.new_producer: %w", err)
	}
	topic := spec.Name
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers), slog.String("topic", topic))

	tracing := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer()))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
		kgo.ProduceRequestTimeout(10*time.Second),
		kgo.WithHooks(tracing.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.new_producer: %w", err)
	}
	if err := ensureTopic(ctx, client, spec); err != nil {
		slog.Warn("could not ensure candidate events topic",
			slog.String("topic", topic),
			slog.Any("error", err))
	}
	return &Producer{client: client, topic: topic}, nil
}

// Publish writes ev synchronously.
func (p *Producer) Publish(ctx domain.Context, ev domain.CandidateEvent) error {
	rec, err := p.record(ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.publish: %w", err)
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.publish: %w", err)
	}
	slog.Debug("candidate event published",
		slog.String("type", ev.Type),
		slog.String("email", ev.Email),
		slog.String("topic", p.topic))
	return nil
}

func (p *Producer) record(ev domain.CandidateEvent) (*kgo.Record, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	headers := []kgo.RecordHeader{
		{Key: "event_type", Value: []byte(ev.Type)},
		{Key: "content_type", Value: []byte("application/json")},
	}
	if ev.RequestID != "" {
		headers = append(headers, kgo.RecordHeader{Key: "request_id", Value: []byte(ev.RequestID)})
	}
	return &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(ev.Email),
		Value:   b,
		Headers: headers,
	}, nil
}

// Close releases the client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

// NoopPublisher drops events. It stands in when no brokers are configured.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(domain.Context, domain.CandidateEvent) error { return nil }
