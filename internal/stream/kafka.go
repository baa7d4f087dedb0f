package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Kafka implements Sender over a kafka-go Writer with all-replica acks
// and hash-balanced key partitioning. Each send carries a token in the
// message's WriterData so the writer's Completion hook can route the
// assigned partition/offset back to the blocked caller.
type Kafka struct {
	writer  *kafka.Writer
	client  *kafka.Client
	tracker *inflight
}

type sendResult struct {
	partition int
	offset    int64
	err       error
}

type sendToken struct {
	done chan sendResult
}

// NewKafka connects a sender to the given brokers.
func NewKafka(brokers []string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sender requires at least one broker")
	}
	k := &Kafka{
		client: &kafka.Client{
			Addr:    kafka.TCP(brokers...),
			Timeout: 10 * time.Second,
		},
		tracker: newInflight(),
	}
	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Compression:  kafka.Snappy,
		// Topic provisioning is an administrative concern; an absent
		// topic at publish time is not an error.
		AllowAutoTopicCreation: true,
		Completion:             k.completion,
	}
	return k, nil
}

func (k *Kafka) completion(messages []kafka.Message, err error) {
	for i := range messages {
		tok, ok := messages[i].WriterData.(*sendToken)
		if !ok {
			continue
		}
		select {
		case tok.done <- sendResult{
			partition: messages[i].Partition,
			offset:    messages[i].Offset,
			err:       err,
		}:
		default:
		}
	}
}

// Send writes one keyed message and blocks until the broker acknowledges
// it or ctx expires. The write is synchronous, so the completion hook has
// already fired by the time WriteMessages returns.
func (k *Kafka) Send(ctx context.Context, topic string, key, value []byte, headers []Header) (Ack, error) {
	tok := &sendToken{done: make(chan sendResult, 1)}
	msg := kafka.Message{
		Topic:      topic,
		Key:        key,
		Value:      value,
		Headers:    toKafkaHeaders(headers),
		Time:       time.Now().UTC(),
		WriterData: tok,
	}

	k.tracker.add(1)
	defer k.tracker.add(-1)

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return Ack{}, err
	}

	select {
	case r := <-tok.done:
		if r.err != nil {
			return Ack{}, r.err
		}
		return Ack{Partition: r.partition, Offset: r.offset}, nil
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	}
}

// Partitions retrieves partition metadata for a topic without producing.
func (k *Kafka) Partitions(ctx context.Context, topic string) (int, error) {
	resp, err := k.client.Metadata(ctx, &kafka.MetadataRequest{
		Topics: []string{topic},
	})
	if err != nil {
		return 0, fmt.Errorf("fetch metadata for %q: %w", topic, err)
	}
	for _, t := range resp.Topics {
		if t.Name != topic {
			continue
		}
		if t.Error != nil {
			return 0, fmt.Errorf("topic %q metadata: %w", topic, t.Error)
		}
		return len(t.Partitions), nil
	}
	return 0, fmt.Errorf("topic %q not present in metadata response", topic)
}

// Flush blocks until every outstanding send has been acknowledged or has
// definitively failed.
func (k *Kafka) Flush(ctx context.Context) error {
	return k.tracker.wait(ctx)
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func toKafkaHeaders(headers []Header) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, len(headers))
	for i, h := range headers {
		out[i] = kafka.Header{Key: h.Key, Value: []byte(h.Value)}
	}
	return out
}

// inflight counts sends that have been handed to the backend but not yet
// resolved, and lets waiters block until the count drains to zero.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{} // replaced each time the count drains
}

func newInflight() *inflight {
	return &inflight{idle: make(chan struct{})}
}

func (f *inflight) add(delta int) {
	f.mu.Lock()
	f.n += delta
	if f.n == 0 {
		close(f.idle)
		f.idle = make(chan struct{})
	}
	f.mu.Unlock()
}

func (f *inflight) wait(ctx context.Context) error {
	for {
		f.mu.Lock()
		if f.n == 0 {
			f.mu.Unlock()
			return nil
		}
		idle := f.idle
		f.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

var _ Sender = (*Kafka)(nil)
