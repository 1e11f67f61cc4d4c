package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenmart/storefront/internal/order/domain"
	"github.com/greenmart/storefront/internal/pricing"
	"github.com/redis/go-redis/v9"
)

// cachedOrderService keeps rendered order views in redis and drops them
// whenever the payment state moves, so a paid order is never served stale.
type cachedOrderService struct {
	next        OrderService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedOrderService(next OrderService, redisClient *redis.Client) OrderService {
	return &cachedOrderService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func (s *cachedOrderService) QuoteCart(ctx context.Context, items []domain.CartItem, hasShippingAddress bool, deliveryDateIndex *int) pricing.Quote {
	return s.next.QuoteCart(ctx, items, hasShippingAddress, deliveryDateIndex)
}

func (s *cachedOrderService) Create(ctx context.Context, cart *domain.CartInput, userID string) (string, error) {
	return s.next.Create(ctx, cart, userID)
}

func (s *cachedOrderService) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	key := orderKey(orderID)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var order domain.Order
		if err := json.Unmarshal([]byte(val), &order); err == nil {
			return &order, nil
		}
	}

	order, err := s.next.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(order); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return order, nil
}

func (s *cachedOrderService) CreatePayPalOrder(ctx context.Context, orderID string) (string, error) {
	providerOrderID, err := s.next.CreatePayPalOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	s.redisClient.Del(ctx, orderKey(orderID))
	return providerOrderID, nil
}

func (s *cachedOrderService) ApprovePayPalOrder(ctx context.Context, orderID, providerOrderID string) error {
	if err := s.next.ApprovePayPalOrder(ctx, orderID, providerOrderID); err != nil {
		return err
	}

	s.redisClient.Del(ctx, orderKey(orderID))
	return nil
}

func (s *cachedOrderService) MarkPaidFromStripeIntent(ctx context.Context, orderID, intentID string) error {
	if err := s.next.MarkPaidFromStripeIntent(ctx, orderID, intentID); err != nil {
		return err
	}

	s.redisClient.Del(ctx, orderKey(orderID))
	return nil
}
