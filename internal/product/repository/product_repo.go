package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/greenmart/storefront/internal/product/domain"
	"github.com/greenmart/storefront/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type productRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("product_repository"),
	}
}

func (r *productRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("limit", limit),
		attribute.String("search", search),
	)

	query := `
		SELECT id, name, slug, description, image, price, count_in_stock, created_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query products",
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Slug,
			&p.Description,
			&p.Image,
			&p.Price,
			&p.CountInStock,
			&p.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, 0, err
		}

		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
	`

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, search).Scan(&total); err != nil {
		span.RecordError(err)

		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetBySlug")
	defer span.End()

	span.SetAttributes(
		attribute.String("slug", slug),
	)

	query := `
		SELECT id, name, slug, description, image, price, count_in_stock, created_at
		FROM products
		WHERE slug = $1
	`

	return r.scanOne(ctx, span, query, slug)
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", id),
	)

	query := `
		SELECT id, name, slug, description, image, price, count_in_stock, created_at
		FROM products
		WHERE id = $1
	`

	return r.scanOne(ctx, span, query, id)
}

func (r *productRepo) scanOne(ctx context.Context, span trace.Span, query string, arg any) (*domain.Product, error) {
	var p domain.Product
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Image,
		&p.Price,
		&p.CountInStock,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}
