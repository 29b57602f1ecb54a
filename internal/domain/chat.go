package domain

import "time"

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role      ChatRole  `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type ChatSession struct {
	ID           string        `bson:"_id" json:"sessionId"`
	UserID       string        `bson:"user_id" json:"userId"`
	Messages     []ChatMessage `bson:"messages" json:"messages"`
	IsActive     bool          `bson:"is_active" json:"isActive"`
	LastActivity time.Time     `bson:"last_activity" json:"lastActivity"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`
}

func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Messages = append([]ChatMessage(nil), s.Messages...)
	return &c
}
