package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greenmart/storefront/internal/order/domain"
	"github.com/greenmart/storefront/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	SetPaymentResult(ctx context.Context, orderID string, result *domain.PaymentResult) error
	MarkPaid(ctx context.Context, tx pgx.Tx, orderID string, result domain.PaymentResult, paidAt time.Time) error
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.Int("items_count", len(order.Items)),
	)

	queryOrder := `
		INSERT INTO orders (
			id, user_id, payment_method,
			shipping_full_name, shipping_street, shipping_city, shipping_province,
			shipping_postal_code, shipping_country, shipping_phone,
			items_price, shipping_price, tax_price, total_price,
			delivery_date_index, expected_delivery_date,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if err := tx.QueryRow(
		ctx,
		queryOrder,
		order.ID,
		order.UserID,
		order.PaymentMethod,
		order.ShippingAddress.FullName,
		order.ShippingAddress.Street,
		order.ShippingAddress.City,
		order.ShippingAddress.Province,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.ShippingAddress.Phone,
		order.ItemsPrice,
		order.ShippingPrice,
		order.TaxPrice,
		order.TotalPrice,
		order.DeliveryDateIndex,
		order.ExpectedDeliveryDate,
	).Scan(
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.Error(err),
		)

		return err
	}

	queryItem := `
		INSERT INTO order_items (order_id, product_id, name, image, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if err := tx.QueryRow(
			ctx,
			queryItem,
			order.ID,
			item.ProductID,
			item.Name,
			item.Image,
			item.Price,
			item.Quantity,
		).Scan(&item.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order item",
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
	)

	query := `
		SELECT id, user_id, payment_method,
			shipping_full_name, shipping_street, shipping_city, shipping_province,
			shipping_postal_code, shipping_country, shipping_phone,
			items_price, shipping_price, tax_price, total_price,
			delivery_date_index, expected_delivery_date,
			is_paid, paid_at, payment_id, payment_status, payer_email, amount_paid,
			is_delivered, delivered_at,
			created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var (
		order         domain.Order
		paymentID     *string
		paymentStatus *string
		payerEmail    *string
		amountPaid    *float64
	)

	if err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.PaymentMethod,
		&order.ShippingAddress.FullName,
		&order.ShippingAddress.Street,
		&order.ShippingAddress.City,
		&order.ShippingAddress.Province,
		&order.ShippingAddress.PostalCode,
		&order.ShippingAddress.Country,
		&order.ShippingAddress.Phone,
		&order.ItemsPrice,
		&order.ShippingPrice,
		&order.TaxPrice,
		&order.TotalPrice,
		&order.DeliveryDateIndex,
		&order.ExpectedDeliveryDate,
		&order.IsPaid,
		&order.PaidAt,
		&paymentID,
		&paymentStatus,
		&payerEmail,
		&amountPaid,
		&order.IsDelivered,
		&order.DeliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if paymentID != nil {
		order.PaymentResult = &domain.PaymentResult{
			ID:     *paymentID,
			Status: deref(paymentStatus),
		}
		if payerEmail != nil {
			order.PaymentResult.PayerEmail = *payerEmail
		}
		if amountPaid != nil {
			order.PaymentResult.AmountPaid = *amountPaid
		}
	}

	items, err := r.getOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *orderRepo) getOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, image, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order items",
			zap.Error(err),
		)

		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Image,
			&item.Price,
			&item.Quantity,
		); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// SetPaymentResult attaches the pending provider session to an unpaid order.
func (r *orderRepo) SetPaymentResult(ctx context.Context, orderID string, result *domain.PaymentResult) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.SetPaymentResult")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("payment_id", result.ID),
	)

	query := `
		UPDATE orders
		SET payment_id = $1,
			payment_status = $2,
			payer_email = $3,
			amount_paid = $4,
			updated_at = NOW()
		WHERE id = $5 AND is_paid = FALSE
	`

	commandTag, err := r.pool.Exec(
		ctx,
		query,
		result.ID,
		result.Status,
		result.PayerEmail,
		result.AmountPaid,
		orderID,
	)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to set payment result: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return r.classifyMissing(ctx, orderID)
	}

	return nil
}

// MarkPaid transitions an order to paid as a single conditional write, so
// two racing confirmations (webhook vs. redirect landing) cannot both win.
func (r *orderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, orderID string, result domain.PaymentResult, paidAt time.Time) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.MarkPaid")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("payment_id", result.ID),
	)

	query := `
		UPDATE orders
		SET is_paid = TRUE,
			paid_at = $1,
			payment_id = $2,
			payment_status = $3,
			payer_email = $4,
			amount_paid = $5,
			updated_at = NOW()
		WHERE id = $6 AND is_paid = FALSE
	`

	commandTag, err := tx.Exec(
		ctx,
		query,
		paidAt,
		result.ID,
		result.Status,
		result.PayerEmail,
		result.AmountPaid,
		orderID,
	)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to mark order paid",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return r.classifyMissing(ctx, orderID)
	}

	return nil
}

// classifyMissing tells a vanished order apart from one that is already paid
// after a zero-row conditional update.
func (r *orderRepo) classifyMissing(ctx context.Context, orderID string) error {
	var isPaid bool
	err := r.pool.QueryRow(ctx, `SELECT is_paid FROM orders WHERE id = $1`, orderID).Scan(&isPaid)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect order state: %w", err)
	}

	if isPaid {
		return ErrOrderAlreadyPaid
	}

	return ErrOrderNotFound
}

func (r *orderRepo) GetUserEmail(ctx context.Context, userID string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetUserEmail")
	defer span.End()

	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		mylogger.Warn(
			ctx,
			r.logger,
			"User has no stored email",
			zap.String("user_id", userID),
		)

		return "", nil
	}
	if err != nil {
		span.RecordError(err)

		return "", fmt.Errorf("failed to query user email: %w", err)
	}

	return email, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
