package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/greenmart/storefront/pkg/mylogger"
	"github.com/greenmart/storefront/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// StatusCompleted is the provider's success sentinel for a captured payment.
const StatusCompleted = "COMPLETED"

// Capture is the flattened outcome of a capture call.
type Capture struct {
	ID         string
	Status     string
	PayerEmail string
	Amount     float64
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	cb           *gobreaker.CircuitBreaker
	logger       *zap.Logger
	tracer       trace.Tracer
}

func NewClient(baseURL, clientID, clientSecret string, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "PayPal",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		cb:           gobreaker.NewCircuitBreaker(settings),
		logger:       logger,
		tracer:       otel.Tracer("payment/paypal"),
	}
}

// CreateOrder opens a remote payment session for the given amount and
// returns the provider's order id.
func (c *Client) CreateOrder(ctx context.Context, amount float64) (string, error) {
	ctx, span := c.tracer.Start(ctx, "PayPalClient.CreateOrder")
	defer span.End()

	span.SetAttributes(attribute.Float64("amount", amount))

	return utils.ExecuteWithBreaker(c.cb, func() (string, error) {
		token, err := c.accessToken(ctx)
		if err != nil {
			return "", err
		}

		body := map[string]any{
			"intent": "CAPTURE",
			"purchase_units": []map[string]any{
				{
					"amount": map[string]string{
						"currency_code": "USD",
						"value":         strconv.FormatFloat(amount, 'f', 2, 64),
					},
				},
			},
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := c.post(ctx, "/v2/checkout/orders", token, body, &created); err != nil {
			span.RecordError(err)

			mylogger.Warn(
				ctx,
				c.logger,
				"PayPal create order failed",
				zap.Error(err),
			)

			return "", err
		}

		return created.ID, nil
	})
}

// CapturePayment captures the funds of a previously approved provider order.
func (c *Client) CapturePayment(ctx context.Context, providerOrderID string) (*Capture, error) {
	ctx, span := c.tracer.Start(ctx, "PayPalClient.CapturePayment")
	defer span.End()

	span.SetAttributes(attribute.String("provider_order_id", providerOrderID))

	return utils.ExecuteWithBreaker(c.cb, func() (*Capture, error) {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}

		var captured struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Payer  struct {
				EmailAddress string `json:"email_address"`
			} `json:"payer"`
			PurchaseUnits []struct {
				Payments struct {
					Captures []struct {
						Amount struct {
							Value string `json:"value"`
						} `json:"amount"`
					} `json:"captures"`
				} `json:"payments"`
			} `json:"purchase_units"`
		}

		path := fmt.Sprintf("/v2/checkout/orders/%s/capture", providerOrderID)
		if err := c.post(ctx, path, token, map[string]any{}, &captured); err != nil {
			span.RecordError(err)

			mylogger.Warn(
				ctx,
				c.logger,
				"PayPal capture failed",
				zap.String("provider_order_id", providerOrderID),
				zap.Error(err),
			)

			return nil, err
		}

		capture := &Capture{
			ID:         captured.ID,
			Status:     captured.Status,
			PayerEmail: captured.Payer.EmailAddress,
		}

		if len(captured.PurchaseUnits) > 0 {
			captures := captured.PurchaseUnits[0].Payments.Captures
			if len(captures) > 0 {
				amount, err := strconv.ParseFloat(captures[0].Amount.Value, 64)
				if err != nil {
					return nil, fmt.Errorf("paypal returned malformed capture amount %q: %w", captures[0].Amount.Value, err)
				}
				capture.Amount = amount
			}
		}

		return capture, nil
	})
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"),
	)
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("paypal token", resp)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("paypal token decode failed: %w", err)
	}

	return token.AccessToken, nil
}

func (c *Client) post(ctx context.Context, path, token string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError("paypal", resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(prefix string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s: %s: %s", prefix, resp.Status, strings.TrimSpace(string(raw)))
}
