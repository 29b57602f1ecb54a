package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/ledger"
	"go.uber.org/zap"
)

const defaultLedgerLimit = 100

type LedgerReader interface {
	List(ctx context.Context, limit int) ([]*ledger.Entry, error)
}

type LedgerHandler struct {
	ledger  LedgerReader
	timeout time.Duration
	logger  *zap.Logger
}

func NewLedgerHandler(l LedgerReader, timeout time.Duration, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, timeout: timeout, logger: logger}
}

func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit := defaultLedgerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := h.ledger.List(ctx, limit)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
