package dto

import (
	"time"

	"legal-assist-be/internal/entity"
	"legal-assist-be/pkg/citation"

	"github.com/google/uuid"
)

type CreateConversationResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type ConversationListItem struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// GroupedConversations is a read-only recency projection: a label like
// "Hari ini" plus its conversations, most recent first.
type GroupedConversations struct {
	Label         string                  `json:"label"`
	Conversations []*ConversationListItem `json:"conversations"`
}

type CitationDTO struct {
	SourceId     string  `json:"source_id"`
	Title        string  `json:"title"`
	Excerpt      string  `json:"excerpt,omitempty"`
	Relevance    float64 `json:"relevance"`
	DocumentType string  `json:"document_type,omitempty"`
}

type ConfidenceDTO struct {
	Overall  float64 `json:"overall"`
	TopScore float64 `json:"top_score"`
	AvgScore float64 `json:"avg_score"`
}

type ValidationDTO struct {
	IsValid           bool     `json:"is_valid"`
	HallucinationRisk string   `json:"hallucination_risk"`
	CitationCoverage  float64  `json:"citation_coverage"`
	GroundingScore    *float64 `json:"grounding_score,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	UngroundedClaims  []string `json:"ungrounded_claims,omitempty"`
}

// ChatHistoryMessage carries a stored message plus its render-ready segments:
// parsing runs here, at the boundary, on the completed text only.
type ChatHistoryMessage struct {
	Id               uuid.UUID            `json:"id"`
	Role             string               `json:"role"`
	Content          string               `json:"content"`
	Status           entity.MessageStatus `json:"status"`
	Segments         []citation.Segment   `json:"segments"`
	Citations        []CitationDTO        `json:"citations,omitempty"`
	Confidence       *ConfidenceDTO       `json:"confidence_score,omitempty"`
	Validation       *ValidationDTO       `json:"validation,omitempty"`
	Refused          bool                 `json:"refused,omitempty"`
	ProcessingTimeMs int64                `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type SendChatRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	Question       string     `json:"question" validate:"required,max=2000"`
}

// SendChatResponse acknowledges submission; the answer itself arrives over
// the conversation's websocket as the stream progresses.
type SendChatResponse struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	Title          string    `json:"title"`
	UserMessageId  uuid.UUID `json:"user_message_id"`
	ReplyMessageId uuid.UUID `json:"reply_message_id"`
}

type AskDirectRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type AskDirectResponse struct {
	Answer           string             `json:"answer"`
	Segments         []citation.Segment `json:"segments"`
	Citations        []CitationDTO      `json:"citations,omitempty"`
	Confidence       *ConfidenceDTO     `json:"confidence_score,omitempty"`
	Validation       *ValidationDTO     `json:"validation,omitempty"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}
