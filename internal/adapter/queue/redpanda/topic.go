package redpanda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// topicRequester is the admin surface of *kgo.Client.
type topicRequester interface {
	Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error)
}

// TopicSpec describes the candidate events topic.
type TopicSpec struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	// Retention is how long events are kept. Zero leaves the broker default.
	Retention time.Duration
}

// CandidateEventsTopic keeps a week of events on a single-node cluster.
func CandidateEventsTopic(name string) TopicSpec {
	return TopicSpec{Name: name, Partitions: 3, ReplicationFactor: 1, Retention: 7 * 24 * time.Hour}
}

func (s TopicSpec) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: empty topic name", domain.ErrInvalidArgument)
	case s.Partitions <= 0:
		return fmt.Errorf("%w: topic %q needs at least one partition", domain.ErrInvalidArgument, s.Name)
	case s.ReplicationFactor <= 0:
		return fmt.Errorf("%w: topic %q needs a positive replication factor", domain.ErrInvalidArgument, s.Name)
	}
	return nil
}

func (s TopicSpec) request() *kmsg.CreateTopicsRequest {
	t := kmsg.NewCreateTopicsRequestTopic()
	t.Topic = s.Name
	t.NumPartitions = s.Partitions
	t.ReplicationFactor = s.ReplicationFactor
	if s.Retention > 0 {
		c := kmsg.NewCreateTopicsRequestTopicConfig()
		c.Name = "retention.ms"
		c.Value = kmsg.StringPtr(strconv.FormatInt(s.Retention.Milliseconds(), 10))
		t.Configs = append(t.Configs, c)
	}
	req := kmsg.NewCreateTopicsRequest()
	req.TimeoutMillis = 30000
	req.Topics = append(req.Topics, t)
	return &req
}

// ensureTopic creates the topic described by spec. An existing topic is
// left untouched, including its retention.
func ensureTopic(ctx context.Context, client topicRequester, spec TopicSpec) error {
	if err := spec.validate(); err != nil {
		return fmt.Errorf("op=redpanda.ensure_topic: %w", err)
	}
	resp, err := client.Request(ctx, spec.request())
	if err != nil {
		return fmt.Errorf("op=redpanda.ensure_topic: request failed: %w", err)
	}
	created, ok := resp.(*kmsg.CreateTopicsResponse)
	if !ok {
		return fmt.Errorf("op=redpanda.ensure_topic: unexpected response type %T", resp)
	}
	for _, t := range created.Topics {
		err := kerr.ErrorForCode(t.ErrorCode)
		switch {
		case err == nil:
			slog.Info("candidate events topic created",
				slog.String("topic", t.Topic),
				slog.Int("partitions", int(spec.Partitions)),
				slog.Duration("retention", spec.Retention))
		case errors.Is(err, kerr.TopicAlreadyExists):
			slog.Debug("candidate events topic exists", slog.String("topic", t.Topic))
		default:
			msg := ""
			if t.ErrorMessage != nil {
				msg = *t.ErrorMessage
			}
			return fmt.Errorf("op=redpanda.ensure_topic: %s: %w %s", t.Topic, err, msg)
		}
	}
	return nil
}
