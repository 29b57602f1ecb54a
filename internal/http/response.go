package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

var validate = validator.New()

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// decodeRequest reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the caller may continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation failed",
				Code:    "invalid_input",
				Details: describeValidation(validationErrors),
			})
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return false
	}
	return true
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", e.Namespace(), e.Tag()))
	}
	return strings.Join(parts, "; ")
}

// handleServiceError maps service errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "insufficient stock",
			Code:    "insufficient_stock",
			Details: stockErr.Error(),
		})
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrVerificationFailed):
		respondError(w, http.StatusBadRequest, "verification_failed", domain.ErrVerificationFailed.Error())
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrWishlistNotFound),
		errors.Is(err, domain.ErrChatSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrPendingRecordMissing):
		respondError(w, http.StatusNotFound, "pending_payment_missing", err.Error())
	case errors.Is(err, domain.ErrAlreadyInWishlist),
		errors.Is(err, domain.ErrAlreadyReviewed),
		errors.Is(err, domain.ErrOrderAlreadyPaid):
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, "gateway_unavailable", "payment gateway unavailable, please retry")
	case errors.Is(err, domain.ErrTransientStore):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "temporarily unavailable, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.Error("unhandled service error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
