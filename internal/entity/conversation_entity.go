package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id         uuid.UUID
	Title      string
	TitleFixed bool
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// LastActivity is the timestamp used for recency grouping.
func (c *Conversation) LastActivity() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// ConversationRecord is the unit stored in the key-value backend: the
// conversation metadata plus its ordered messages.
type ConversationRecord struct {
	Conversation Conversation
	Messages     []*ChatMessage
}
