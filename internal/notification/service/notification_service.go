package service

import (
	"context"

	"github.com/greenmart/storefront/internal/notification/email"
	"github.com/greenmart/storefront/pkg/domain"
	"github.com/greenmart/storefront/pkg/mylogger"
	outboxUtils "github.com/greenmart/storefront/pkg/outbox/utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type NotificationService struct {
	emailSender email.Sender
	logger      *zap.Logger
	pool        *pgxpool.Pool
	tracer      trace.Tracer
}

func NewNotificationService(emailSender email.Sender, logger *zap.Logger, pool *pgxpool.Pool) *NotificationService {
	return &NotificationService{
		emailSender: emailSender,
		logger:      logger,
		pool:        pool,
		tracer:      otel.Tracer("notification-service"),
	}
}

func (s *NotificationService) HandleOrderCreated(ctx context.Context, eventID int64, event domain.OrderCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderCreated")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("order.id", event.OrderID),
	)

	if event.Email == "" {
		mylogger.Warn(
			ctx,
			s.logger,
			"Order created event has no email, skipping confirmation",
			zap.String("order_id", event.OrderID),
		)
		return nil
	}

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, eventID, func() error {
		return s.emailSender.SendOrderConfirmation(ctx, event.Email, event)
	})
}

func (s *NotificationService) HandleOrderPaid(ctx context.Context, eventID int64, event domain.OrderPaidEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderPaid")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("order.id", event.OrderID),
	)

	if event.Email == "" {
		mylogger.Warn(
			ctx,
			s.logger,
			"Order paid event has no email, skipping receipt",
			zap.String("order_id", event.OrderID),
		)
		return nil
	}

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, eventID, func() error {
		return s.emailSender.SendPurchaseReceipt(ctx, event.Email, event)
	})
}
