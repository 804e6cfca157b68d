// Package trigger drives indexing runs from Kafka: it consumes index
// requests, runs the indexer for the requested corpus version and announces
// the outcome on the completion topic.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
)

// Runner runs a full indexing pass for a version.
type Runner interface {
	Run(ctx context.Context, version string) (*vector.Report, error)
}

// Publisher publishes events to the completion topic.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// RequestConsumer wraps a Kafka consumer of index requests.
type RequestConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a RequestConsumer backed by the given Kafka consumer.
func New(consumer *kafka.Consumer) *RequestConsumer {
	return &RequestConsumer{
		consumer: consumer,
		logger:   logger.WithComponent("index-trigger"),
	}
}

// Start begins consuming index requests. It blocks until ctx is cancelled.
// Requests are handled one at a time, so runs never overlap.
func (rc *RequestConsumer) Start(ctx context.Context) error {
	rc.logger.Info("index request consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleIndexRequest returns a MessageHandler that runs the indexer for each
// request and publishes an IndexComplete event. A failed run is announced
// with StatusFailed; only a failure to announce leaves the request
// uncommitted.
func HandleIndexRequest(runner Runner, publisher Publisher) kafka.MessageHandler {
	log := logger.WithComponent("index-trigger")
	return func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[IndexRequest](value)
		if err != nil {
			log.Error("failed to decode index request", "error", err, "key", string(key))
			return err
		}
		if req.Version == "" {
			log.Error("index request without version", "key", string(key))
			return fmt.Errorf("index request %q: empty version: %w", key, kafka.ErrMalformed)
		}

		log.Info("index request received", "version", req.Version, "requested_at", req.RequestedAt)
		report, runErr := runner.Run(ctx, req.Version)
		done := completion(req.Version, report, runErr)

		if publisher == nil {
			return nil
		}
		if err := publisher.Publish(ctx, kafka.Event{Key: req.Version, Value: done}); err != nil {
			return fmt.Errorf("announcing run %s for %s: %w", done.RunID, req.Version, err)
		}
		log.Info("index completion published",
			"version", req.Version,
			"run_id", done.RunID,
			"status", done.Status,
		)
		return nil
	}
}

func completion(version string, report *vector.Report, runErr error) IndexComplete {
	done := IndexComplete{
		Version:     version,
		Status:      StatusOK,
		CompletedAt: time.Now().UTC(),
	}
	if report != nil {
		done.RunID = report.RunID
		done.Files = report.Files
		done.Terms = report.Terms
		done.Vectorized = report.Vectorized
		done.Skipped = len(report.Skipped)
		done.Failed = report.Failed()
		done.DurationMS = report.Duration.Milliseconds()
	}
	if runErr != nil {
		done.Status = StatusFailed
		done.Error = runErr.Error()
	}
	return done
}
