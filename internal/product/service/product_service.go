package service

import (
	"context"

	"github.com/greenmart/storefront/internal/product/domain"
	"github.com/greenmart/storefront/internal/product/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductService interface {
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
	tracer      trace.Tracer
}

func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
		tracer:      otel.Tracer("product_service"),
	}
}

func (s *productService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.List")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.productRepo.List(ctx, limit, offset, search)
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetBySlug")
	defer span.End()

	return s.productRepo.GetBySlug(ctx, slug)
}

func (s *productService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	return s.productRepo.GetByID(ctx, id)
}
