package http

import (
	"context"
	"net/http"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/service"
	"go.uber.org/zap"
)

type OrderService interface {
	PlaceCOD(ctx context.Context, userID string, items []domain.LineItem, addressID string) (*domain.Order, error)
	CreatePendingOrder(ctx context.Context, userID string, items []domain.LineItem, addressID string, clientAmount int64) (*domain.PendingCheckout, error)
	ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
}

type PaymentService interface {
	Confirm(ctx context.Context, userID string, req service.ConfirmRequest) (*domain.Order, error)
}

type OrderHandler struct {
	orders   OrderService
	payments PaymentService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewOrderHandler(orders OrderService, payments PaymentService, timeout time.Duration, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments, timeout: timeout, logger: logger}
}

type PlaceOrderRequestDTO struct {
	Items   []domain.LineItem `json:"items" validate:"required,min=1,dive"`
	Address string            `json:"address" validate:"required"`
	// Amount is optional; when set it must match the server-side total.
	Amount int64 `json:"amount" validate:"gte=0"`
}

type VerifyPaymentRequestDTO struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
	OrderID        string `json:"orderId"`
}

type OrderPlacedResponseDTO struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (h *OrderHandler) PlaceCOD(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	order, err := h.orders.PlaceCOD(ctx, uid, req.Items, req.Address)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, OrderPlacedResponseDTO{Success: true, Message: "Order Placed Successfully", Order: order})
}

func (h *OrderHandler) CreateOnlineOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	checkout, err := h.orders.CreatePendingOrder(ctx, uid, req.Items, req.Address, req.Amount)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, checkout)
}

func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req VerifyPaymentRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	order, err := h.payments.Confirm(ctx, uid, service.ConfirmRequest{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		OrderID:        req.OrderID,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderPlacedResponseDTO{Success: true, Message: "Payment verified successfully", Order: order})
}

func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListUserOrders(ctx, uid)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAllOrders(ctx)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
