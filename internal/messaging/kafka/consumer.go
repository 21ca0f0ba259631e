package kafka

import (
	"context"
	"errors"
	"io"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one inbound message. Returning an error leaves the
// offset uncommitted so the message is redelivered.
type Handler func(ctx context.Context, msg kafkago.Message) error

// Consumer wraps a kafka-go reader with commit-after-handle semantics.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	logger  *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		handler: handler,
		logger:  logger.Named("consumer").With(zap.String("topic", topic)),
	}
}

// Run blocks until ctx is cancelled, then closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	c.logger.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("consumer stopped")
				return nil
			}
			return err
		}

		if err := c.handler(ctx, msg); err != nil {
			c.logger.Error("handler failed, message will be redelivered",
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed", zap.Error(err))
		}
	}
}
