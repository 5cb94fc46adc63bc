package transport

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"drone-flight-tracker/internal/ledger"
	"drone-flight-tracker/internal/telemetry"
)

// ingestRetries bounds how often a store failure is retried before the single
// event is dropped. Retrying instead of dropping immediately covers brief
// store hiccups without buffering unbounded backlog in the process.
const ingestRetries = 3

// Ingestor consumes validated telemetry events. Implemented by ledger.Ledger.
type Ingestor interface {
	Ingest(ctx context.Context, ev ledger.Event) error
}

// messageReader is the subset of kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// NewReader creates a consumer-group Kafka reader for the telemetry topic.
// Reconnection and partition rebalancing are the reader's concern; callers
// just see a blocking ReadMessage. Call Close when shutting down.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
}

// Consumer drains the telemetry topic and feeds valid events to the ingestor.
type Consumer struct {
	reader       messageReader
	ingestor     Ingestor
	requirePilot bool

	now        func() time.Time
	newBackOff func() backoff.BackOff
}

// NewConsumer returns a consumer over the given reader. requirePilot selects
// the operator-aware validation variant.
func NewConsumer(reader messageReader, ingestor Ingestor, requirePilot bool) *Consumer {
	return &Consumer{
		reader:       reader,
		ingestor:     ingestor,
		requirePilot: requirePilot,
		now:          time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			return backoff.WithMaxRetries(b, ingestRetries)
		},
	}
}

// Run reads messages until ctx is cancelled or the reader is closed. Decode and
// validation failures drop the message with a log line and no state change;
// store failures retry with bounded backoff and then drop that one event.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			// io.EOF means the reader was closed during shutdown.
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Println("consumer: stopped")
				return
			}
			log.Printf("consumer: read: %v", err)
			continue
		}
		c.handle(ctx, msg.Value)
	}
}

func (c *Consumer) handle(ctx context.Context, raw []byte) {
	ev, err := Decode(raw, c.requirePilot)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			telemetry.EventDropped(ctx, "validation")
		} else {
			telemetry.EventDropped(ctx, "decode")
		}
		log.Printf("consumer: dropping message: %v", err)
		return
	}
	ev.ReceivedAt = c.now().UTC()

	op := func() error { return c.ingestor.Ingest(ctx, *ev) }
	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		telemetry.EventDropped(ctx, "store")
		log.Printf("consumer: dropping event for %s after retries: %v", ev.VehicleExternalID, err)
		return
	}
	telemetry.EventIngested(ctx)
}
