// Package consumer wraps a franz-go consumer group behind a small handler
// interface so domain packages never touch broker details.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one consumed record, decoupled from the client library so
// handlers stay testable without a broker.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning an error keeps the message
// uncommitted so the broker redelivers it; returning nil commits it.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Config carries the connection settings for one consumer group.
type Config struct {
	Brokers []string
	Topic   string
	Group   string
}

// Consumer polls a topic and dispatches each record to the handler.
// Offsets are committed manually, only for records the handler accepted.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// EnsureTopic creates the topic if the broker does not know it yet.
func (c *Consumer) EnsureTopic(ctx context.Context, topic string, partitions int32) error {
	adm := kadm.NewClient(c.client)
	resp, err := adm.CreateTopic(ctx, partitions, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Run polls until the context is cancelled. A handler failure stops the
// loop without committing the failed record, so a restarted consumer gets
// it redelivered; retry policy stays with the broker, not this loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handled []*kgo.Record
		var handleErr error
		fetches.EachRecord(func(rec *kgo.Record) {
			if handleErr != nil {
				return
			}
			msg := &Message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
				Timestamp: rec.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				handleErr = fmt.Errorf("handle record %s/%d@%d: %w",
					rec.Topic, rec.Partition, rec.Offset, err)
				return
			}
			handled = append(handled, rec)
		})

		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil {
				c.logger.Error("kafka commit failed", "error", err)
			}
		}
		if handleErr != nil {
			return handleErr
		}
	}
}

// Close releases the underlying client. Safe after Run returns.
func (c *Consumer) Close() {
	c.client.Close()
}
