package http

import (
	"context"
	"net/http"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChatService interface {
	StartSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)
	SendMessage(ctx context.Context, userID, sessionID, message string) (*domain.ChatMessage, error)
	History(ctx context.Context, userID, sessionID string) ([]domain.ChatMessage, error)
	EndSession(ctx context.Context, userID, sessionID string) error
}

type ChatHandler struct {
	chat    ChatService
	timeout time.Duration
	logger  *zap.Logger
}

func NewChatHandler(chat ChatService, timeout time.Duration, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, timeout: timeout, logger: logger}
}

type StartChatRequestDTO struct {
	SessionID string `json:"sessionId"`
}

type ChatMessageRequestDTO struct {
	SessionID string `json:"sessionId" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

type EndChatRequestDTO struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type ChatReplyDTO struct {
	SessionID string             `json:"sessionId"`
	Reply     domain.ChatMessage `json:"reply"`
}

func (h *ChatHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req StartChatRequestDTO
	if r.ContentLength != 0 && !decodeRequest(w, r, &req) {
		return
	}

	session, err := h.chat.StartSession(ctx, uid, req.SessionID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req ChatMessageRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	reply, err := h.chat.SendMessage(ctx, uid, req.SessionID, req.Message)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ChatReplyDTO{SessionID: req.SessionID, Reply: *reply})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	messages, err := h.chat.History(ctx, uid, chi.URLParam(r, "sessionId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req EndChatRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.chat.EndSession(ctx, uid, req.SessionID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
