package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.razorpay.com"

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay returned %d: %s %s", e.StatusCode, e.Code, e.Description)
}

type RazorpayClient struct {
	cfg        RazorpayConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*domain.PaymentIntent]
	logger     *zap.Logger
}

func NewRazorpayClient(cfg RazorpayConfig, logger *zap.Logger) *RazorpayClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	settings := circuitbreaker.DefaultSettings("razorpay")
	// Rejected requests are our fault, not a sign the gateway is down
	settings.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.StatusCode < http.StatusInternalServerError
		}
		return err == nil
	}

	return &RazorpayClient{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[*domain.PaymentIntent](settings, logger),
		logger:  logger,
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent creates a gateway order. Any failure is reported as domain.ErrGatewayUnavailable
// so callers know nothing was committed locally.
func (c *RazorpayClient) CreateIntent(ctx context.Context, req IntentRequest) (*domain.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	intent, err := c.breaker.Execute(func() (*domain.PaymentIntent, error) {
		return c.createOrder(ctx, req)
	})
	if err != nil {
		c.logger.Warn("gateway order creation failed",
			zap.String("receipt", req.Receipt),
			zap.Bool("breaker_open", circuitbreaker.IsOpen(err)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}
	return intent, nil
}

func (c *RazorpayClient) createOrder(ctx context.Context, req IntentRequest) (*domain.PaymentIntent, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Receipt:        req.Receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read razorpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(payload, &errResp) == nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Description = errResp.Error.Description
		}
		return nil, apiErr
	}

	var intent domain.PaymentIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay order: %w", err)
	}
	if intent.ID == "" {
		return nil, errors.New("razorpay order without id")
	}
	return &intent, nil
}
