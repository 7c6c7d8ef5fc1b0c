package stream

import (
	"legal-assist-be/internal/entity"

	"github.com/google/uuid"
)

// TopicMessageUpdates is the in-process bus topic the assembler publishes on.
// The conversation side subscribes and applies updates as discrete store
// calls; the two components never call each other directly.
const TopicMessageUpdates = "chat.message.updates"

type UpdateKind string

const (
	UpdateKindChunk     UpdateKind = "chunk"
	UpdateKindMetadata  UpdateKind = "metadata"
	UpdateKindCompleted UpdateKind = "completed"
	UpdateKindErrored   UpdateKind = "errored"
)

// Update is one observable state change of an in-flight answer.
type Update struct {
	ConversationId uuid.UUID  `json:"conversation_id"`
	MessageId      uuid.UUID  `json:"message_id"`
	Kind           UpdateKind `json:"kind"`

	// chunk
	ChunkText string `json:"chunk_text,omitempty"`

	// metadata
	Citations  []entity.Citation       `json:"citations,omitempty"`
	Confidence *entity.ConfidenceScore `json:"confidence_score,omitempty"`

	// completed
	Content          string                   `json:"content,omitempty"`
	Validation       *entity.ValidationResult `json:"validation,omitempty"`
	ProcessingTimeMs int64                    `json:"processing_time_ms,omitempty"`
	Refused          bool                     `json:"refused,omitempty"`

	// errored: the user-facing notice. The raw error stays in the logs.
	Notice string `json:"notice,omitempty"`
}
