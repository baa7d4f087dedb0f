package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// TopicSpec describes one topic to provision.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// DefaultTopicSpecs returns the provisioning layout for the three claim
// streams: six partitions for the claim topics, three for alerts.
func DefaultTopicSpecs(raw, validated, alerts string, replication int) []TopicSpec {
	return []TopicSpec{
		{Name: raw, Partitions: 6, ReplicationFactor: replication},
		{Name: validated, Partitions: 6, ReplicationFactor: replication},
		{Name: alerts, Partitions: 3, ReplicationFactor: replication},
	}
}

// EnsureTopics creates the given topics, treating already-existing topics
// as success. Provisioning is idempotent.
func EnsureTopics(ctx context.Context, brokers []string, log zerolog.Logger, specs []TopicSpec) error {
	if len(brokers) == 0 {
		return fmt.Errorf("topic provisioning requires at least one broker")
	}
	client := &kafka.Client{
		Addr:    kafka.TCP(brokers...),
		Timeout: 30 * time.Second,
	}

	configs := make([]kafka.TopicConfig, len(specs))
	for i, s := range specs {
		configs[i] = kafka.TopicConfig{
			Topic:             s.Name,
			NumPartitions:     s.Partitions,
			ReplicationFactor: s.ReplicationFactor,
		}
	}

	resp, err := client.CreateTopics(ctx, &kafka.CreateTopicsRequest{Topics: configs})
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}

	for topic, terr := range resp.Errors {
		if terr == nil {
			log.Info().Str("topic", topic).Msg("topic created")
			continue
		}
		if errors.Is(terr, kafka.TopicAlreadyExists) {
			log.Debug().Str("topic", topic).Msg("topic already exists")
			continue
		}
		return fmt.Errorf("create topic %q: %w", topic, terr)
	}
	return nil
}
