// pkg/kafka/orphan_consumer.go
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

const ReconcilerGroupID = "account-orphan-reconciler"

type Reconciler interface {
	Reconcile(ctx context.Context, o *domain.OrphanedAccount) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, o *domain.OrphanedAccount) error
}

func newConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V3_0_0_0
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Session.Timeout = 20 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 6 * time.Second
	config.Consumer.MaxProcessingTime = 30 * time.Second
	return config
}

// OrphanConsumer feeds orphaned accounts to the reconciler. Failures go to the DLQ.
type OrphanConsumer struct {
	group      sarama.ConsumerGroup
	reconciler Reconciler
	dlq        DLQPublisher
	logger     *zap.Logger
}

func NewOrphanConsumer(brokers []string, groupID string, reconciler Reconciler, dlq DLQPublisher, logger *zap.Logger) (*OrphanConsumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, newConsumerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	return &OrphanConsumer{
		group:      group,
		reconciler: reconciler,
		dlq:        dlq,
		logger:     logger.With(zap.String("component", "orphan_consumer")),
	}, nil
}

func (c *OrphanConsumer) Start(ctx context.Context) error {
	topics := []string{TopicOrphanedAccount}
	handler := &claimHandler{name: "orphan", logger: c.logger, handle: c.handle}

	for {
		if err := c.group.Consume(ctx, topics, handler); err != nil {
			c.logger.Error("consume failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			c.logger.Info("context cancelled, shutting down consumer")
			return nil
		}
	}
}

func (c *OrphanConsumer) handle(ctx context.Context, value []byte) {
	var msg domain.OrphanedAccount
	if err := json.Unmarshal(value, &msg); err != nil {
		c.logger.Error("failed to unmarshal message", zap.Error(err))
		return
	}

	if err := c.reconciler.Reconcile(ctx, &msg); err != nil {
		msg.FailureReason = err.Error()
		if dlqErr := c.dlq.PublishToDLQ(ctx, &msg); dlqErr != nil {
			c.logger.Error("failed to publish to DLQ, manual cleanup required",
				zap.String("account_id", msg.AccountID),
				zap.Error(dlqErr))
		}
	}
}

func (c *OrphanConsumer) Close() error {
	return c.group.Close()
}

// claimHandler implements sarama.ConsumerGroupHandler around a per-message func.
// Messages are marked whatever the outcome; failures are carried forward by the DLQ.
type claimHandler struct {
	name   string
	logger *zap.Logger
	handle func(ctx context.Context, value []byte)
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer group session started", zap.String("handler", h.name))
	return nil
}

func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer group session ended", zap.String("handler", h.name))
	return nil
}

func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.handle(session.Context(), message.Value)
		session.MarkMessage(message, "")
	}
	return nil
}
