package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenmart/storefront/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// StatusSucceeded marks a payment intent whose funds are settled.
const StatusSucceeded = "succeeded"

// MetadataOrderID is the metadata key carrying the storefront order id the
// intent was created for.
const MetadataOrderID = "orderId"

type PaymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	tracer     trace.Tracer
}

func NewClient(baseURL, secretKey string, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "Stripe",
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
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cb:         gobreaker.NewCircuitBreaker(settings),
		tracer:     otel.Tracer("payment/stripe"),
	}
}

func (c *Client) RetrievePaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	ctx, span := c.tracer.Start(ctx, "StripeClient.RetrievePaymentIntent")
	defer span.End()

	span.SetAttributes(attribute.String("intent_id", intentID))

	return utils.ExecuteWithBreaker(c.cb, func() (*PaymentIntent, error) {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.baseURL+"/v1/payment_intents/"+intentID,
			nil,
		)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Authorization", "Bearer "+c.secretKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("stripe request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("stripe: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
			span.RecordError(err)

			return nil, err
		}

		var intent PaymentIntent
		if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
			return nil, fmt.Errorf("stripe decode failed: %w", err)
		}

		return &intent, nil
	})
}
