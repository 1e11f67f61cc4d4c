package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "client-id", "client-secret", zap.NewNop())
	client.httpClient = srv.Client()

	return srv, client
}

func tokenResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"access_token":"test-token"}`)
}

func TestCreateOrder(t *testing.T) {
	var gotAmount string

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)
			tokenResponse(w)
		case "/v2/checkout/orders":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			var body struct {
				Intent        string `json:"intent"`
				PurchaseUnits []struct {
					Amount struct {
						CurrencyCode string `json:"currency_code"`
						Value        string `json:"value"`
					} `json:"amount"`
				} `json:"purchase_units"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.PurchaseUnits, 1)
			assert.Equal(t, "CAPTURE", body.Intent)
			assert.Equal(t, "USD", body.PurchaseUnits[0].Amount.CurrencyCode)
			gotAmount = body.PurchaseUnits[0].Amount.Value

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"PROVIDER-ORDER-1","status":"CREATED"}`)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	id, err := client.CreateOrder(context.Background(), 33.65)
	require.NoError(t, err)
	assert.Equal(t, "PROVIDER-ORDER-1", id)
	assert.Equal(t, "33.65", gotAmount)
}

func TestCreateOrder_ProviderError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}

		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"name":"UNPROCESSABLE_ENTITY"}`)
	})

	_, err := client.CreateOrder(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNPROCESSABLE_ENTITY")
}

func TestCapturePayment(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenResponse(w)
		case "/v2/checkout/orders/PROVIDER-ORDER-1/capture":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"id": "PROVIDER-ORDER-1",
				"status": "COMPLETED",
				"payer": {"email_address": "payer@example.com"},
				"purchase_units": [
					{"payments": {"captures": [{"amount": {"value": "33.65"}}]}}
				]
			}`)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	capture, err := client.CapturePayment(context.Background(), "PROVIDER-ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, "PROVIDER-ORDER-1", capture.ID)
	assert.Equal(t, StatusCompleted, capture.Status)
	assert.Equal(t, "payer@example.com", capture.PayerEmail)
	assert.Equal(t, 33.65, capture.Amount)
}

func TestCapturePayment_MalformedAmount(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "PROVIDER-ORDER-1",
			"status": "COMPLETED",
			"purchase_units": [
				{"payments": {"captures": [{"amount": {"value": "not-a-number"}}]}}
			]
		}`)
	})

	_, err := client.CapturePayment(context.Background(), "PROVIDER-ORDER-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed capture amount")
}

func TestAccessToken_Unauthorized(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	})

	_, err := client.CreateOrder(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paypal token")
}
