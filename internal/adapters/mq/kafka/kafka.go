// Package kafka feeds place enrichment requests from a Kafka topic into the
// enrichment queue and publishes such requests.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/thejerf/suture/v4"

	"github.com/okian/wayfarer/internal/adapters/mq/queue"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const (
	defaultBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	readerMinBytes = 1
	readerMaxBytes = 1 << 20
	commitInterval = time.Second
)

// Request is the message body on the enrichment topic.
type Request struct {
	PlaceID string `json:"place_id"`
}

// Submitter accepts a place for enrichment. Returning queue.ErrFull makes the
// consumer hold the message and retry after a backoff.
type Submitter interface {
	Submit(ctx context.Context, placeID, source string) error
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads enrichment requests and submits them. Offsets are committed
// only after a message was accepted or found unusable.
type Consumer struct {
	reader  messageReader
	sink    Submitter
	backoff time.Duration
	logger  logger.Logger
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBackoff sets the initial wait before resubmitting a message the queue
// refused.
func WithBackoff(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// SplitBrokers turns "a:9092, b:9092" into a broker list.
func SplitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewConsumer creates a consumer-group reader on topic.
func NewConsumer(brokers []string, topic, groupID string, sink Submitter, opts ...Option) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       readerMinBytes,
		MaxBytes:       readerMaxBytes,
		CommitInterval: commitInterval,
	})
	return newConsumer(r, sink, opts...)
}

func newConsumer(r messageReader, sink Submitter, opts ...Option) *Consumer {
	c := &Consumer{
		reader:  r,
		sink:    sink,
		backoff: defaultBackoff,
		logger:  logger.Get().Named("kafka-consumer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is canceled. It returns nil on cancellation and the
// reader error otherwise.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info(ctx, "consuming enrichment requests")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			metrics.RecordErrorByComponent("kafka", "fetch")
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			metrics.RecordErrorByComponent("kafka", "commit")
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// Serve implements suture.Service. A closed sink ends supervision.
func (c *Consumer) Serve(ctx context.Context) error {
	err := c.Run(ctx)
	if errors.Is(err, queue.ErrClosed) {
		return suture.ErrDoNotRestart
	}
	return err
}

// handle submits one message, waiting while the queue is full. Undecodable
// messages are logged and skipped.
func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) error {
	var req Request
	if err := json.Unmarshal(msg.Value, &req); err != nil || strings.TrimSpace(req.PlaceID) == "" {
		metrics.RecordErrorByComponent("kafka", "bad_message")
		c.logger.Warn(ctx, "skipping malformed enrichment request",
			logger.Int("partition", msg.Partition),
			logger.Any("offset", msg.Offset),
			logger.Error(err),
		)
		return nil
	}

	wait := c.backoff
	for {
		err := c.sink.Submit(ctx, req.PlaceID, queue.SourceKafka)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, queue.ErrFull):
			c.logger.Debug(ctx, "queue full, holding message", logger.String("place_id", req.PlaceID))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait = min(wait*2, maxBackoff)
		case errors.Is(err, queue.ErrClosed):
			return err
		default:
			c.logger.Warn(ctx, "enrichment request rejected",
				logger.String("place_id", req.PlaceID), logger.Error(err))
			return nil
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Publisher writes enrichment requests to the topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a synchronous writer on topic, keyed by place id.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}}
}

// Publish sends one request per place id.
func (p *Publisher) Publish(ctx context.Context, placeIDs ...string) error {
	msgs := make([]kafkago.Message, 0, len(placeIDs))
	for _, id := range placeIDs {
		v, err := json.Marshal(Request{PlaceID: id})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafkago.Message{Key: []byte(id), Value: v, Time: time.Now()})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d requests: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
