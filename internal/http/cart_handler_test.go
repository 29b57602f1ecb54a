package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetCart_Success(t *testing.T) {
	mock := &CartServiceMock{cart: domain.CartSnapshot{"b": 1, "a": 2}}
	handler := NewCartHandler(mock, 5*time.Second, zap.NewNop())

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/", nil), "u1")

	handler.GetCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, []domain.CartItem{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}, response.CartItems)
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&CartServiceMock{}, 5*time.Second, zap.NewNop())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)

	handler.GetCart(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "unauthorized", response.Code)
}

func TestUpdateCart_Success(t *testing.T) {
	mock := &CartServiceMock{}
	handler := NewCartHandler(mock, 5*time.Second, zap.NewNop())

	body := `{"cartItems":[{"product":"a","quantity":2},{"product":"b","quantity":0}]}`
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/update", bytes.NewBufferString(body)), "u1")

	handler.UpdateCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, domain.CartSnapshot{"a": 2}, mock.requested)
}

func TestUpdateCart_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", "invalid json", "invalid_request"},
		{"negative quantity", `{"cartItems":[{"product":"a","quantity":-1}]}`, "invalid_input"},
		{"missing product", `{"cartItems":[{"quantity":1}]}`, "invalid_input"},
		{"duplicate product", `{"cartItems":[{"product":"a","quantity":1},{"product":"a","quantity":2}]}`, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &CartServiceMock{}
			handler := NewCartHandler(mock, 5*time.Second, zap.NewNop())

			recorder := httptest.NewRecorder()
			request := withUser(httptest.NewRequest("POST", "/cart/update", bytes.NewBufferString(tt.body)), "u1")

			handler.UpdateCart(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			var response ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
			assert.Equal(t, tt.code, response.Code)
			assert.Nil(t, mock.requested)
		})
	}
}

func TestUpdateCart_InsufficientStock(t *testing.T) {
	mock := &CartServiceMock{err: fmt.Errorf("reconcile: %w", &domain.InsufficientStockError{ProductID: "a", Available: 2, Requested: 4})}
	handler := NewCartHandler(mock, 5*time.Second, zap.NewNop())

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/update", bytes.NewBufferString(`{"cartItems":[{"product":"a","quantity":4}]}`)), "u1")

	handler.UpdateCart(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "insufficient_stock", response.Code)
	assert.Contains(t, response.Details, "a")
}
