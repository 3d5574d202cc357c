package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-wallet/internal/config"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

// Producer streams ledger events to Kafka. With Enabled false every publish
// is a no-op; with MockMode true events are only logged, which keeps local
// runs and tests free of a broker.
type Producer struct {
	Writer   *kafka.Writer
	Topic    string
	Enabled  bool
	MockMode bool
	Logger   *logger.Logger
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	p := &Producer{
		Topic:    cfg.Topic,
		Enabled:  cfg.Enabled,
		MockMode: cfg.MockMode,
		Logger:   log,
	}
	if cfg.Enabled && !cfg.MockMode {
		p.Writer = kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		})
	}
	return p
}

// PublishOrderCreated streams the order creation event.
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish("order_created", fmt.Sprintf("%d", order.UserID), order)
}

// PublishRefundApproved streams the refund approval event.
func (p *Producer) PublishRefundApproved(refund models.Refund) error {
	return p.publish("refund_approved", fmt.Sprintf("%d", refund.UserID), refund)
}

// PublishWalletTransaction streams a ledger row.
func (p *Producer) PublishWalletTransaction(tx models.WalletTransaction) error {
	return p.publish("wallet_transaction", fmt.Sprintf("%d", tx.UserID), tx)
}

func (p *Producer) publish(event, key string, payload any) error {
	if !p.Enabled {
		return nil
	}

	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	if p.MockMode {
		p.Logger.LogKafka(event, p.Topic, string(msgBytes))
		return nil
	}

	p.Logger.LogKafka(event, p.Topic, fmt.Sprintf("key=%s bytes=%d", key, len(msgBytes)))
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// Close flushes and closes the underlying writer if one was created.
func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}
