// pkg/kafka/orphan_producer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const (
	TopicOrphanedAccount    = "account.orphaned"
	TopicOrphanedAccountDLQ = "account.orphaned.dlq"
)

// OrphanProducer publishes accounts that registration could not clean up.
type OrphanProducer struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewOrphanProducer(brokers []string, logger *zap.Logger) (*OrphanProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return NewOrphanProducerWithClient(producer, logger), nil
}

// NewOrphanProducerWithClient wraps an existing producer, e.g. sarama/mocks in tests.
func NewOrphanProducerWithClient(producer sarama.SyncProducer, logger *zap.Logger) *OrphanProducer {
	return &OrphanProducer{producer: producer, logger: logger.With(zap.String("component", "orphan_producer"))}
}

// RecordOrphan implements usecase.OrphanRecorder.
func (p *OrphanProducer) RecordOrphan(ctx context.Context, o *domain.OrphanedAccount) error {
	return p.send(TopicOrphanedAccount, o)
}

// PublishToDLQ sends a failed reconciliation to the dead letter topic
func (p *OrphanProducer) PublishToDLQ(ctx context.Context, o *domain.OrphanedAccount) error {
	o.RetryCount++
	return p.send(TopicOrphanedAccountDLQ, o)
}

func (p *OrphanProducer) send(topic string, o *domain.OrphanedAccount) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(o.AccountID), // one partition per account keeps retries ordered
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", topic, err)
	}

	p.logger.Info("orphan published",
		zap.String("topic", topic),
		zap.String("request_id", o.RequestID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *OrphanProducer) Close() error {
	return p.producer.Close()
}
