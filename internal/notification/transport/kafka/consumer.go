package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/greenmart/storefront/internal/notification/service"
	"github.com/greenmart/storefront/pkg/domain"
	"github.com/greenmart/storefront/pkg/kafka"
	"github.com/greenmart/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	service *service.NotificationService
	logger  *zap.Logger
	topic   string
}

func NewConsumer(service *service.NotificationService, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
		topic:   topic,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"notification-service-group",
		[]string{c.topic},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	// event_id is stamped onto the envelope by the outbox worker.
	type EventWrapper struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
		EventID int64           `json:"event_id"`
	}

	var wrapper EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return err
	}

	switch wrapper.Event {
	case "OrderCreated":
		var event domain.OrderCreatedEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing order created event", zap.Error(err))
			return nil
		}

		if err := c.service.HandleOrderCreated(ctx, wrapper.EventID, event); err != nil {
			mylogger.Error(ctx, c.logger, "Error processing order created event", zap.Error(err))
			return err
		}
	case "OrderPaid":
		var event domain.OrderPaidEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing order paid event", zap.Error(err))
			return nil
		}

		if err := c.service.HandleOrderPaid(ctx, wrapper.EventID, event); err != nil {
			mylogger.Error(ctx, c.logger, "Error processing order paid event", zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event", wrapper.Event))
	}

	return nil
}
