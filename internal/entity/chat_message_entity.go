package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusStreaming MessageStatus = "streaming"
	MessageStatusCompleted MessageStatus = "completed"
	MessageStatusErrored   MessageStatus = "errored"
)

type ChatMessage struct {
	Id               uuid.UUID
	Role             string
	Content          string
	Status           MessageStatus
	Citations        []Citation
	Confidence       *ConfidenceScore
	Validation       *ValidationResult
	ProcessingTimeMs int64
	ConversationId   uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// Terminal reports whether the message may no longer be mutated.
func (m *ChatMessage) Terminal() bool {
	return m.Status == MessageStatusCompleted || m.Status == MessageStatusErrored
}
