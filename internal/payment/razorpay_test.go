package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *RazorpayClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRazorpayClient(RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		BaseURL:   server.URL,
		Timeout:   timeout,
	}, zap.NewNop())
}

func TestCreateIntent_Success(t *testing.T) {
	var got createOrderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":30600,"currency":"INR","receipt":"o-1","status":"created"}`))
	}, time.Second)

	intent, err := client.CreateIntent(context.Background(), IntentRequest{Amount: 30600, Currency: "INR", Receipt: "o-1"})

	require.NoError(t, err)
	assert.Equal(t, "order_abc", intent.ID)
	assert.Equal(t, int64(30600), intent.Amount)
	assert.Equal(t, createOrderRequest{Amount: 30600, Currency: "INR", Receipt: "o-1", PaymentCapture: 1}, got)
}

func TestCreateIntent_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}, time.Second)

	_, err := client.CreateIntent(context.Background(), IntentRequest{Amount: 1, Currency: "INR", Receipt: "o-1"})

	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "amount too small", apiErr.Description)
}

func TestCreateIntent_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := client.CreateIntent(context.Background(), IntentRequest{Amount: 100, Currency: "INR", Receipt: "o-1"})

	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestCreateIntent_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Second)

	for i := 0; i < 5; i++ {
		_, err := client.CreateIntent(context.Background(), IntentRequest{Amount: 100, Currency: "INR", Receipt: "o"})
		require.Error(t, err)
	}
	_, err := client.CreateIntent(context.Background(), IntentRequest{Amount: 100, Currency: "INR", Receipt: "o"})

	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Equal(t, int32(5), calls.Load(), "open breaker must not reach the gateway")
}

func TestCreateIntent_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, time.Second)

	for i := 0; i < 7; i++ {
		_, _ = client.CreateIntent(context.Background(), IntentRequest{Amount: 100, Currency: "INR", Receipt: "o"})
	}

	assert.Equal(t, int32(7), calls.Load())
}

func TestCreateIntent_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":100}`))
	}, time.Second)

	_, err := client.CreateIntent(context.Background(), IntentRequest{Amount: 100, Currency: "INR", Receipt: "o"})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}
