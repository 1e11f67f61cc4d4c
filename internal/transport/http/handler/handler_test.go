package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/greenmart/storefront/internal/order/domain"
	"github.com/greenmart/storefront/internal/order/repository"
	"github.com/greenmart/storefront/internal/order/service"
	"github.com/greenmart/storefront/internal/pricing"
	productDomain "github.com/greenmart/storefront/internal/product/domain"
	productService "github.com/greenmart/storefront/internal/product/service"
	transport "github.com/greenmart/storefront/internal/transport/http"
	"github.com/greenmart/storefront/internal/transport/http/handler"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type stubOrderService struct {
	createID     string
	createErr    error
	order        *domain.Order
	getErr       error
	sessionID    string
	sessionErr   error
	approveErr   error
	markPaidErr  error
	lastCartUser string
}

func (s *stubOrderService) QuoteCart(_ context.Context, items []domain.CartItem, hasShippingAddress bool, deliveryDateIndex *int) pricing.Quote {
	return pricing.NewCalculator(nil).Quote(pricing.QuoteRequest{
		Items:              toPricingItems(items),
		HasShippingAddress: hasShippingAddress,
		DeliveryDateIndex:  deliveryDateIndex,
	})
}

func toPricingItems(items []domain.CartItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, item := range items {
		out = append(out, pricing.Item{Price: item.Price, Quantity: item.Quantity})
	}
	return out
}

func (s *stubOrderService) Create(_ context.Context, _ *domain.CartInput, userID string) (string, error) {
	s.lastCartUser = userID
	return s.createID, s.createErr
}

func (s *stubOrderService) GetByID(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrderService) CreatePayPalOrder(_ context.Context, _ string) (string, error) {
	return s.sessionID, s.sessionErr
}

func (s *stubOrderService) ApprovePayPalOrder(_ context.Context, _, _ string) error {
	return s.approveErr
}

func (s *stubOrderService) MarkPaidFromStripeIntent(_ context.Context, _, _ string) error {
	return s.markPaidErr
}

var _ service.OrderService = (*stubOrderService)(nil)

func newTestApp(t *testing.T, orders *stubOrderService) *fiber.App {
	t.Helper()

	logger := zap.NewNop()
	app := fiber.New()

	handlers := &transport.Handlers{
		Order:    handler.NewOrderHandler(orders, logger),
		Product:  handler.NewProductHandler(stubProducts{}, logger),
		Checkout: handler.NewCheckoutHandler(orders, "http://shop.local", logger),
	}
	transport.RegisterRoutes(app, handlers, testSecret)

	return app
}

type stubProducts struct{}

func (stubProducts) List(_ context.Context, _, _ int64, _ string) ([]productDomain.Product, int64, error) {
	return nil, 0, nil
}

func (stubProducts) GetBySlug(_ context.Context, slug string) (*productDomain.Product, error) {
	return &productDomain.Product{Slug: slug}, nil
}

func (stubProducts) GetByID(_ context.Context, id string) (*productDomain.Product, error) {
	return &productDomain.Product{ID: id}, nil
}

var _ productService.ProductService = stubProducts{}

func bearerToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	app := newTestApp(t, &stubOrderService{})

	resp := doJSON(t, app, http.MethodPost, "/api/orders", "", fiber.Map{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestCreateOrder_Success(t *testing.T) {
	orders := &stubOrderService{createID: "order-1"}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", bearerToken(t, "user-1"), fiber.Map{
		"payment_method": "PayPal",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "order-1", body["order_id"])
	assert.Equal(t, "user-1", orders.lastCartUser)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	orders := &stubOrderService{createErr: &service.ValidationError{Message: "Items is required"}}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", bearerToken(t, "user-1"), fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Items is required", body["message"])
}

func TestGetOrder_HiddenFromOtherUsers(t *testing.T) {
	orders := &stubOrderService{order: &domain.Order{ID: "order-1", UserID: "owner"}}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodGet, "/api/orders/order-1", bearerToken(t, "intruder"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetOrder_Success(t *testing.T) {
	orders := &stubOrderService{order: &domain.Order{ID: "order-1", UserID: "owner"}}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodGet, "/api/orders/order-1", bearerToken(t, "owner"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := &stubOrderService{getErr: repository.ErrOrderNotFound}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodGet, "/api/orders/missing", bearerToken(t, "owner"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePayPalOrder_Success(t *testing.T) {
	orders := &stubOrderService{sessionID: "PAYPAL-1"}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/order-1/paypal", bearerToken(t, "owner"), nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "PAYPAL-1", body["id"])
}

func TestCreatePayPalOrder_BreakerOpen(t *testing.T) {
	orders := &stubOrderService{sessionErr: gobreaker.ErrOpenState}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/order-1/paypal", bearerToken(t, "owner"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCreatePayPalOrder_ProviderDown(t *testing.T) {
	orders := &stubOrderService{sessionErr: service.ErrPaymentProvider}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/order-1/paypal", bearerToken(t, "owner"), nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestApprovePayPalOrder_VerificationFailed(t *testing.T) {
	orders := &stubOrderService{approveErr: service.ErrPaymentVerification}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/order-1/paypal/capture", bearerToken(t, "owner"), fiber.Map{
		"orderID": "PAYPAL-1",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestApprovePayPalOrder_Success(t *testing.T) {
	orders := &stubOrderService{}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/order-1/paypal/capture", bearerToken(t, "owner"), fiber.Map{
		"orderID": "PAYPAL-1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
}

func TestQuote_NoAddress(t *testing.T) {
	app := newTestApp(t, &stubOrderService{})

	resp := doJSON(t, app, http.MethodPost, "/api/orders/quote", bearerToken(t, "user-1"), fiber.Map{
		"items": []fiber.Map{
			{"product_id": "p1", "name": "Tea", "price": 10.00, "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	quote, ok := body["quote"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 20.00, quote["items_price"])
	assert.Nil(t, quote["shipping_price"])
	assert.Nil(t, quote["tax_price"])
}

func TestStripeSuccess_Redirects(t *testing.T) {
	orders := &stubOrderService{}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodGet, "/checkout/order-1/stripe-success?payment_intent=pi_1", "", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "http://shop.local/account/orders/order-1", resp.Header.Get("Location"))
}

func TestStripeSuccess_PendingGoesBackToCheckout(t *testing.T) {
	orders := &stubOrderService{markPaidErr: service.ErrPaymentPending}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodGet, "/checkout/order-1/stripe-success?payment_intent=pi_1", "", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "http://shop.local/checkout/order-1", resp.Header.Get("Location"))
}

func TestStripeSuccess_UnknownOrder(t *testing.T) {
	orders := &stubOrderService{markPaidErr: repository.ErrOrderNotFound}
	app := newTestApp(t, orders)

	resp := doJSON(t, app, http.MethodGet, "/checkout/order-1/stripe-success?payment_intent=pi_1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStripeSuccess_MissingIntent(t *testing.T) {
	app := newTestApp(t, &stubOrderService{})

	resp := doJSON(t, app, http.MethodGet, "/checkout/order-1/stripe-success", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
