package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Relay drains the outbox to Kafka on a fixed tick. Delivery is
// at-least-once; consumers are expected to be idempotent on message key.
type Relay struct {
	repo     OutboxRepository
	writer   *kafkago.Writer
	logger   *zap.Logger
	interval time.Duration
	batch    int
}

func NewRelay(repo OutboxRepository, writer *kafkago.Writer, logger *zap.Logger) *Relay {
	return &Relay{
		repo:     repo,
		writer:   writer,
		logger:   logger.Named("outbox_relay"),
		interval: 2 * time.Second,
		batch:    100,
	}
}

// Run blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context) error {
	messages, err := r.repo.FetchPending(ctx, r.batch)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		err := r.writer.WriteMessages(ctx, kafkago.Message{
			Topic: msg.Topic,
			Key:   []byte(msg.Key),
			Value: msg.Payload,
		})
		if err != nil {
			r.logger.Warn("publish failed",
				zap.String("topic", msg.Topic),
				zap.String("message_id", msg.ID.String()),
				zap.Error(err),
			)
			if markErr := r.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
				r.logger.Error("mark failed errored", zap.Error(markErr))
			}
			continue
		}

		if err := r.repo.MarkSent(ctx, msg.ID, time.Now().UTC()); err != nil {
			r.logger.Error("mark sent errored",
				zap.String("message_id", msg.ID.String()),
				zap.Error(err),
			)
			continue
		}

		r.logger.Debug("published",
			zap.String("topic", msg.Topic),
			zap.String("key", msg.Key),
		)
	}

	return nil
}
