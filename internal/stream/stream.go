// Package stream adapts the messaging backend (Kafka) behind a small
// Sender port so the publish pipeline can be exercised against fakes.
package stream

import "context"

// Header is a key/value pair attached to a message for downstream filtering.
type Header struct {
	Key   string
	Value string
}

// Ack identifies where the backend persisted a delivered message.
type Ack struct {
	Partition int
	Offset    int64
}

// Sender is the outbound port to the message backend. Send blocks until
// the backend acknowledges the message or ctx expires; Flush blocks until
// no sends remain in flight.
type Sender interface {
	Send(ctx context.Context, topic string, key, value []byte, headers []Header) (Ack, error)
	Partitions(ctx context.Context, topic string) (int, error)
	Flush(ctx context.Context) error
	Close() error
}
