// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. Index requests arrive through the consumer and run
// completions leave through the producer, both JSON-encoded.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
)

// ErrMalformed marks a message that can never be processed. The consumer
// commits such messages instead of leaving them to be redelivered.
var ErrMalformed = errors.New("malformed message")

// fetchRetryDelay is the pause after a failed fetch before the next attempt.
const fetchRetryDelay = time.Second

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads messages from a Kafka topic and dispatches them to a
// MessageHandler, one at a time.
type Consumer struct {
	reader     messageReader
	logger     *slog.Logger
	handler    MessageHandler
	retryDelay time.Duration
}

// NewConsumer creates a Consumer for the given topic and handler.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:     r,
		logger:     logger.WithComponent("kafka-consumer").With("topic", topic),
		handler:    handler,
		retryDelay: fetchRetryDelay,
	}
}

// Start enters the consume loop, fetching and processing messages until ctx
// is cancelled. Fetch failures are retried after a pause.
//
// A message is committed once its handler succeeds or reports ErrMalformed.
// Any other handler error is logged and the message is left uncommitted, but
// the reader still moves past it: it is only redelivered after the consumer
// restarts or the group rebalances, and only if no later offset of the same
// partition has been committed by then.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err, "retry_in", c.retryDelay)
			select {
			case <-ctx.Done():
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}
		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
		log.Debug("message received", "key", string(msg.Key), "value_size", len(msg.Value))

		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			if !errors.Is(err, ErrMalformed) {
				log.Error("failed to process message, leaving it uncommitted", "error", err)
				continue
			}
			log.Warn("dropping malformed message", "error", err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error("failed to commit message", "error", err)
		}
	}
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a Kafka message value into T. Decoding failures wrap
// ErrMalformed.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w: %w", ErrMalformed, err)
	}
	return result, nil
}
