package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/greenmart/storefront/internal/order/domain"
	"github.com/greenmart/storefront/internal/order/repository"
	"github.com/greenmart/storefront/internal/payment/paypal"
	"github.com/greenmart/storefront/internal/payment/stripe"
	"github.com/greenmart/storefront/internal/pricing"
	generalDomain "github.com/greenmart/storefront/pkg/domain"
	"github.com/greenmart/storefront/pkg/mylogger"
	outboxDomain "github.com/greenmart/storefront/pkg/outbox/domain"
	"github.com/greenmart/storefront/pkg/outbox/worker"
	"github.com/greenmart/storefront/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const orderEventsTopic = "order_events"

// TxBeginner is the slice of pgxpool.Pool the service needs to own its
// transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PayPalClient interface {
	CreateOrder(ctx context.Context, amount float64) (string, error)
	CapturePayment(ctx context.Context, providerOrderID string) (*paypal.Capture, error)
}

type StripeClient interface {
	RetrievePaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
}

type OrderService interface {
	QuoteCart(ctx context.Context, items []domain.CartItem, hasShippingAddress bool, deliveryDateIndex *int) pricing.Quote
	Create(ctx context.Context, cart *domain.CartInput, userID string) (string, error)
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	CreatePayPalOrder(ctx context.Context, orderID string) (string, error)
	ApprovePayPalOrder(ctx context.Context, orderID, providerOrderID string) error
	MarkPaidFromStripeIntent(ctx context.Context, orderID, intentID string) error
}

type orderService struct {
	pool         TxBeginner
	logger       *zap.Logger
	orderRepo    repository.OrderRepository
	outboxRepo   worker.OutboxRepository
	calc         *pricing.Calculator
	paypalClient PayPalClient
	stripeClient StripeClient
	validate     *validator.Validate
	tracer       trace.Tracer
}

func NewOrderService(
	pool TxBeginner,
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	outboxRepo worker.OutboxRepository,
	calc *pricing.Calculator,
	paypalClient PayPalClient,
	stripeClient StripeClient,
) OrderService {
	return &orderService{
		pool:         pool,
		logger:       logger,
		orderRepo:    orderRepo,
		outboxRepo:   outboxRepo,
		calc:         calc,
		paypalClient: paypalClient,
		stripeClient: stripeClient,
		validate:     validator.New(),
		tracer:       otel.Tracer("order_service"),
	}
}

// QuoteCart derives the authoritative price breakdown for a cart snapshot.
// Pure delegation, never fails.
func (s *orderService) QuoteCart(ctx context.Context, items []domain.CartItem, hasShippingAddress bool, deliveryDateIndex *int) pricing.Quote {
	_, span := s.tracer.Start(ctx, "OrderService.QuoteCart")
	defer span.End()

	return s.calc.Quote(pricing.QuoteRequest{
		Items:              toPricingItems(items),
		HasShippingAddress: hasShippingAddress,
		DeliveryDateIndex:  deliveryDateIndex,
	})
}

func (s *orderService) Create(ctx context.Context, cart *domain.CartInput, userID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if userID == "" {
		return "", ErrUnauthenticated
	}

	span.SetAttributes(attribute.String("user_id", userID))

	if err := s.validate.Struct(cart); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return "", &ValidationError{Message: utils.FirstValidationError(err)}
		}

		return "", err
	}

	// Client-computed totals are never trusted: the quote below is the only
	// source of the persisted price fields.
	quote := s.calc.Quote(pricing.QuoteRequest{
		Items:              toPricingItems(cart.Items),
		HasShippingAddress: cart.ShippingAddress != nil,
		DeliveryDateIndex:  cart.DeliveryDateIndex,
	})

	if quote.ShippingPrice == nil || quote.TaxPrice == nil {
		return "", &ValidationError{Message: "delivery option could not be resolved for this cart"}
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	order := &domain.Order{
		ID:                   uuid.New().String(),
		UserID:               userID,
		PaymentMethod:        cart.PaymentMethod,
		Items:                items,
		ShippingAddress:      *cart.ShippingAddress,
		ItemsPrice:           quote.ItemsPrice,
		ShippingPrice:        *quote.ShippingPrice,
		TaxPrice:             *quote.TaxPrice,
		TotalPrice:           quote.TotalPrice,
		DeliveryDateIndex:    quote.DeliveryDateIndex,
		ExpectedDeliveryDate: quote.ExpectedDeliveryDate,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to create order",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return "", fmt.Errorf("failed to create order: %w", err)
	}

	email, err := s.orderRepo.GetUserEmail(ctx, userID)
	if err != nil {
		return "", err
	}

	err = s.emitEvent(ctx, tx, order.ID, "OrderCreated", &generalDomain.OrderCreatedEvent{
		OrderID:              order.ID,
		UserID:               userID,
		Email:                email,
		TotalPrice:           order.TotalPrice,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to emit event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order placed",
		zap.String("order_id", order.ID),
		zap.Float64("total_price", order.TotalPrice),
	)

	return order.ID, nil
}

func (s *orderService) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID")
	defer span.End()

	return s.orderRepo.GetByID(ctx, orderID)
}

// CreatePayPalOrder opens a provider payment session for the order total and
// stores the returned id as a pending marker (empty status).
func (s *orderService) CreatePayPalOrder(ctx context.Context, orderID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreatePayPalOrder")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	providerOrderID, err := s.paypalClient.CreateOrder(ctx, order.TotalPrice)
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Provider order creation failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", err
		}

		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	pending := &domain.PaymentResult{ID: providerOrderID, Status: ""}
	if err := s.orderRepo.SetPaymentResult(ctx, orderID, pending); err != nil {
		return "", err
	}

	return providerOrderID, nil
}

// ApprovePayPalOrder captures the client-approved payment and marks the order
// paid. The captured id must match the stored pending id and the capture must
// report COMPLETED: either mismatch means the confirmation does not belong to
// this order.
func (s *orderService) ApprovePayPalOrder(ctx context.Context, orderID, providerOrderID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.ApprovePayPalOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("provider_order_id", providerOrderID),
	)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	capture, err := s.paypalClient.CapturePayment(ctx, providerOrderID)
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Provider capture failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		if errors.Is(err, gobreaker.ErrOpenState) {
			return err
		}

		return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	if order.PaymentResult == nil ||
		capture.ID != order.PaymentResult.ID ||
		capture.Status != paypal.StatusCompleted {
		mylogger.Warn(
			ctx,
			s.logger,
			"Capture does not match pending payment session",
			zap.String("order_id", orderID),
			zap.String("captured_id", capture.ID),
			zap.String("captured_status", capture.Status),
		)

		return ErrPaymentVerification
	}

	result := domain.PaymentResult{
		ID:         capture.ID,
		Status:     capture.Status,
		PayerEmail: capture.PayerEmail,
		AmountPaid: capture.Amount,
	}

	return s.markPaid(ctx, order, result)
}

// MarkPaidFromStripeIntent is the redirect-landing fallback: the primary
// confirmation is the provider's asynchronous notification, which may be
// delayed or absent in local environments.
func (s *orderService) MarkPaidFromStripeIntent(ctx context.Context, orderID, intentID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.MarkPaidFromStripeIntent")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("intent_id", intentID),
	)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	intent, err := s.stripeClient.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return err
		}

		return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	// The intent id arrives from the client; only its embedded metadata
	// links it to an order, so the link is verified before anything else.
	if intent.Metadata[stripe.MetadataOrderID] != order.ID {
		mylogger.Warn(
			ctx,
			s.logger,
			"Payment intent does not reference this order",
			zap.String("order_id", orderID),
			zap.String("intent_id", intentID),
		)

		return repository.ErrOrderNotFound
	}

	if intent.Status != stripe.StatusSucceeded {
		return ErrPaymentPending
	}

	if order.IsPaid {
		return nil
	}

	result := domain.PaymentResult{
		ID:         intent.ID,
		Status:     intent.Status,
		AmountPaid: order.TotalPrice,
	}

	return s.markPaid(ctx, order, result)
}

// markPaid performs the paid transition, the receipt event, and nothing else,
// inside one transaction. The conditional write in the repository makes the
// whole thing safe to attempt concurrently: the loser of a race sees
// ErrOrderAlreadyPaid and backs off without a second event.
func (s *orderService) markPaid(ctx context.Context, order *domain.Order, result domain.PaymentResult) error {
	paidAt := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	if err := s.orderRepo.MarkPaid(ctx, tx, order.ID, result, paidAt); err != nil {
		if errors.Is(err, repository.ErrOrderAlreadyPaid) {
			mylogger.Info(
				ctx,
				s.logger,
				"Order already paid, skipping",
				zap.String("order_id", order.ID),
			)

			return nil
		}

		return err
	}

	email, err := s.orderRepo.GetUserEmail(ctx, order.UserID)
	if err != nil {
		return err
	}

	err = s.emitEvent(ctx, tx, order.ID, "OrderPaid", &generalDomain.OrderPaidEvent{
		OrderID:       order.ID,
		Email:         email,
		PaymentID:     result.ID,
		PaymentStatus: result.Status,
		AmountPaid:    result.AmountPaid,
		TotalPrice:    order.TotalPrice,
		PaidAt:        paidAt,
	})
	if err != nil {
		return fmt.Errorf("failed to emit event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order marked paid",
		zap.String("order_id", order.ID),
		zap.String("payment_id", result.ID),
	)

	return nil
}

func (s *orderService) emitEvent(ctx context.Context, tx pgx.Tx, orderID, eventType string, payload any) error {
	wrapper := map[string]any{
		"event":   eventType,
		"payload": payload,
	}

	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to marshal wrapper: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Order",
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       wrapperBytes,
		Topic:         orderEventsTopic,
	}

	return s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent)
}

func (s *orderService) rollback(ctx context.Context, tx pgx.Tx) {
	cleanupCtx := context.WithoutCancel(ctx)

	err := tx.Rollback(cleanupCtx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		mylogger.Warn(
			cleanupCtx,
			s.logger,
			"Error rolling back transaction",
			zap.Error(err),
		)
	}
}

func toPricingItems(items []domain.CartItem) []pricing.Item {
	result := make([]pricing.Item, 0, len(items))
	for _, item := range items {
		result = append(result, pricing.Item{Price: item.Price, Quantity: item.Quantity})
	}

	return result
}
