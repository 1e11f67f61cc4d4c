package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenmart/storefront/internal/product/domain"
	"github.com/redis/go-redis/v9"
)

type cachedProductService struct {
	next        ProductService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedProductService(next ProductService, redisClient *redis.Client) ProductService {
	return &cachedProductService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func (s *cachedProductService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	return s.next.List(ctx, limit, offset, search)
}

func (s *cachedProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.next.GetByID(ctx, id)
}

func (s *cachedProductService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	key := fmt.Sprintf("product:%s", slug)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(val), &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return product, nil
}
