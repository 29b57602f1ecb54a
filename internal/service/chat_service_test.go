package service

import (
	"context"
	"strings"
	"testing"
	"time"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChat_StartSessionGreets(t *testing.T) {
	st := newMemoryStore(t)
	svc := NewChatService(st, st, zap.NewNop())

	session, err := svc.StartSession(context.Background(), "u1", "")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.ID, "chat_"))
	assert.True(t, session.IsActive)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, d.RoleAssistant, session.Messages[0].Role)
	assert.Equal(t, welcomeMessage, session.Messages[0].Content)
}

func TestChat_StartSessionResumesActiveSession(t *testing.T) {
	st := newMemoryStore(t)
	svc := NewChatService(st, st, zap.NewNop())
	ctx := context.Background()
	first, err := svc.StartSession(ctx, "u1", "")
	require.NoError(t, err)

	resumed, err := svc.StartSession(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, resumed.ID)

	other, err := svc.StartSession(ctx, "u2", first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestChat_Replies(t *testing.T) {
	st := newMemoryStore(t)
	svc := NewChatService(st, st, zap.NewNop())
	ctx := context.Background()
	session, err := svc.StartSession(ctx, "u1", "")
	require.NoError(t, err)

	tests := []struct {
		message string
		want    string
	}{
		{"Hello there", greetingReply},
		{"hi!", greetingReply},
		{"this is about shipping", fallbackReply},
		{"Where is my ORDER?", orderReply},
		{"do you sell this product", productReply},
		{"I need help", helpReply},
		{"thanks a lot", thanksReply},
		{"what's the weather", fallbackReply},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply, err := svc.SendMessage(ctx, "u1", session.ID, tt.message)
			require.NoError(t, err)
			assert.Equal(t, d.RoleAssistant, reply.Role)
			assert.Equal(t, tt.want, reply.Content)
		})
	}

	history, err := svc.History(ctx, "u1", session.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1+2*len(tests))
}

func TestChat_OrderReplyMentionsLatestVisibleOrder(t *testing.T) {
	st := newMemoryStore(t)
	ctx := context.Background()
	placed := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateOrder(ctx, &d.Order{ID: "o1", UserID: "u1", Amount: 306, PaymentType: d.PaymentCOD, CreatedAt: placed}))
	require.NoError(t, st.CreateOrder(ctx, &d.Order{ID: "o2", UserID: "u1", Amount: 99, PaymentType: d.PaymentOnline, CreatedAt: placed.Add(time.Hour)}))
	svc := NewChatService(st, st, zap.NewNop())
	session, err := svc.StartSession(ctx, "u1", "")
	require.NoError(t, err)

	reply, err := svc.SendMessage(ctx, "u1", session.ID, "order status")

	require.NoError(t, err)
	assert.Contains(t, reply.Content, "o1")
	assert.Contains(t, reply.Content, "14 Mar 2025")
	assert.Contains(t, reply.Content, "cash on delivery")
	assert.NotContains(t, reply.Content, "o2")
}

func TestChat_EndedSessionRejectsMessages(t *testing.T) {
	st := newMemoryStore(t)
	svc := NewChatService(st, st, zap.NewNop())
	ctx := context.Background()
	session, err := svc.StartSession(ctx, "u1", "")
	require.NoError(t, err)

	require.NoError(t, svc.EndSession(ctx, "u1", session.ID))

	_, err = svc.SendMessage(ctx, "u1", session.ID, "hello")
	assert.ErrorIs(t, err, d.ErrChatSessionNotFound)
}

func TestChat_MessageValidation(t *testing.T) {
	st := newMemoryStore(t)
	svc := NewChatService(st, st, zap.NewNop())
	ctx := context.Background()
	session, err := svc.StartSession(ctx, "u1", "")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, "u1", session.ID, "   ")
	assert.ErrorIs(t, err, d.ErrInvalidInput)

	_, err = svc.SendMessage(ctx, "u1", session.ID, strings.Repeat("a", maxMessageLength+1))
	assert.ErrorIs(t, err, d.ErrInvalidInput)

	_, err = svc.SendMessage(ctx, "u2", session.ID, "hello")
	assert.ErrorIs(t, err, d.ErrChatSessionNotFound)
}
