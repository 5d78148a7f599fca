package conversations

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("conversation not found")
	ErrMessageNotFound = errors.New("message not found")
)

type Conversation struct {
	ID        int64     `json:"id"`
	UserOneID int64     `json:"user_one_id"`
	UserTwoID int64     `json:"user_two_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	UserOneUsername string `json:"user_one_username,omitempty"`
	UserTwoUsername string `json:"user_two_username,omitempty"`
}

// Participant reports whether the user is one of the two parties.
func (c *Conversation) Participant(userID int64) bool {
	return c.UserOneID == userID || c.UserTwoID == userID
}

// Other returns the counterparty, or 0 for a non-participant.
func (c *Conversation) Other(userID int64) int64 {
	switch userID {
	case c.UserOneID:
		return c.UserTwoID
	case c.UserTwoID:
		return c.UserOneID
	}
	return 0
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, conversation *Conversation) error
	GetByID(ctx context.Context, conversationID int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]Conversation, error)
	Delete(ctx context.Context, conversationID int64) error
	CreateMessage(ctx context.Context, message *Message) error
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)
	GetMessage(ctx context.Context, messageID int64) (*Message, error)
	MarkMessageRead(ctx context.Context, messageID int64) error
}
