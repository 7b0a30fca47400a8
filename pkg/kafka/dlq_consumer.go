// pkg/kafka/dlq_consumer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const (
	MaxRetries = 3
	RetryDelay = 5 * time.Second
)

type DLQConsumer struct {
	group      sarama.ConsumerGroup
	reconciler Reconciler
	dlq        DLQPublisher
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewDLQConsumer(brokers []string, groupID string, reconciler Reconciler, dlq DLQPublisher, logger *zap.Logger) (*DLQConsumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, newConsumerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ consumer: %w", err)
	}
	return &DLQConsumer{
		group:      group,
		reconciler: reconciler,
		dlq:        dlq,
		logger:     logger.With(zap.String("component", "dlq_consumer")),
		retryDelay: RetryDelay,
	}, nil
}

func (c *DLQConsumer) Start(ctx context.Context) error {
	topics := []string{TopicOrphanedAccountDLQ}
	handler := &claimHandler{name: "dlq", logger: c.logger, handle: c.handle}

	for {
		if err := c.group.Consume(ctx, topics, handler); err != nil {
			c.logger.Error("DLQ consume failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			c.logger.Info("context cancelled, shutting down DLQ consumer")
			return nil
		}
	}
}

func (c *DLQConsumer) handle(ctx context.Context, value []byte) {
	var msg domain.OrphanedAccount
	if err := json.Unmarshal(value, &msg); err != nil {
		c.logger.Error("failed to unmarshal DLQ message", zap.Error(err))
		return
	}
	log := c.logger.With(
		zap.String("request_id", msg.RequestID),
		zap.String("account_id", msg.AccountID),
		zap.Int("retry_count", msg.RetryCount))

	// The first DLQ message already carries RetryCount 1.
	if msg.RetryCount > MaxRetries {
		log.Error("max retries exceeded, manual cleanup required", zap.String("reason", msg.FailureReason))
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(c.retryDelay):
	}

	if err := c.reconciler.Reconcile(ctx, &msg); err != nil {
		log.Warn("retry failed", zap.Error(err))
		msg.FailureReason = err.Error()
		if err := c.dlq.PublishToDLQ(ctx, &msg); err != nil {
			log.Error("failed to re-publish to DLQ, manual cleanup required", zap.Error(err))
		}
		return
	}
	log.Info("retry successful")
}

func (c *DLQConsumer) Close() error {
	return c.group.Close()
}
