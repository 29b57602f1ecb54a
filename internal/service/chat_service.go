package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	welcomeMessage   = "Hello! I'm your GreenCart assistant. How can I help you today? I can help you with orders, products, account issues, or any other questions you might have."
	greetingReply    = "Hello! Welcome to GreenCart. How can I help you today?"
	orderReply       = "I can help you with your orders. What would you like to know about your orders?"
	productReply     = "We have a great selection of fresh products! What specific product are you looking for?"
	helpReply        = "I'm here to help! I can assist you with orders, products, account issues, or any other questions about GreenCart."
	thanksReply      = "You're welcome! Is there anything else I can help you with?"
	fallbackReply    = "I'm here to help! How can I assist you with your GreenCart shopping today?"
	maxMessageLength = 2000
)

type orderLister interface {
	ListOrdersByUser(ctx context.Context, userID string) ([]*d.Order, error)
}

// ChatService runs the scripted support assistant.
type ChatService struct {
	chats  store.ChatStore
	orders orderLister
	logger *zap.Logger
	now    func() time.Time
}

func NewChatService(chats store.ChatStore, orders orderLister, logger *zap.Logger) *ChatService {
	return &ChatService{chats: chats, orders: orders, logger: logger, now: time.Now}
}

// StartSession resumes the active session with sessionID, or opens a new one with a welcome message.
func (s *ChatService) StartSession(ctx context.Context, userID, sessionID string) (*d.ChatSession, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	if sessionID != "" {
		session, err := s.chats.GetChatSession(ctx, userID, sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, d.ErrChatSessionNotFound) {
			return nil, err
		}
	}

	now := s.now()
	session := &d.ChatSession{
		ID:     "chat_" + uuid.New().String(),
		UserID: userID,
		Messages: []d.ChatMessage{
			{Role: d.RoleAssistant, Content: welcomeMessage, Timestamp: now},
		},
		IsActive:     true,
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := s.chats.CreateChatSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID, message string) (*d.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if userID == "" || sessionID == "" || message == "" {
		return nil, d.InvalidInput("session id and message are required")
	}
	if len(message) > maxMessageLength {
		return nil, d.InvalidInput("message is too long")
	}
	if _, err := s.chats.GetChatSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	now := s.now()
	reply := d.ChatMessage{Role: d.RoleAssistant, Content: s.reply(ctx, userID, message), Timestamp: now}
	err := s.chats.AppendChatMessages(ctx, userID, sessionID, now,
		d.ChatMessage{Role: d.RoleUser, Content: message, Timestamp: now},
		reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *ChatService) History(ctx context.Context, userID, sessionID string) ([]d.ChatMessage, error) {
	session, err := s.chats.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

func (s *ChatService) EndSession(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return d.InvalidInput("session id is required")
	}
	return s.chats.EndChatSession(ctx, userID, sessionID)
}

func (s *ChatService) reply(ctx context.Context, userID, message string) string {
	text := strings.ToLower(message)
	switch {
	case hasWord(text, "hello", "hi"):
		return greetingReply
	case strings.Contains(text, "order"):
		return orderReply + s.latestOrderNote(ctx, userID)
	case strings.Contains(text, "product"):
		return productReply
	case strings.Contains(text, "help"):
		return helpReply
	case strings.Contains(text, "thank"):
		return thanksReply
	default:
		return fallbackReply
	}
}

func (s *ChatService) latestOrderNote(ctx context.Context, userID string) string {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("chat could not load orders", zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	for _, o := range orders {
		if !o.Visible() {
			continue
		}
		status := "awaiting cash on delivery"
		if o.IsPaid {
			status = "paid"
		}
		return fmt.Sprintf(" Your most recent order %s from %s for ₹%d is %s.",
			o.ID, o.CreatedAt.Format("02 Jan 2006"), o.Amount, status)
	}
	return ""
}

func hasWord(text string, words ...string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
