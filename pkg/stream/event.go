package stream

import (
	"encoding/json"
	"fmt"

	"legal-assist-be/internal/entity"
)

type EventType string

const (
	EventTypeMetadata EventType = "metadata"
	EventTypeChunk    EventType = "chunk"
	EventTypeDone     EventType = "done"
	EventTypeError    EventType = "error"
)

// Event is the closed union of the four kinds the answer channel can emit.
// The marker method keeps the set closed; the assembler switches exhaustively.
type Event interface {
	Type() EventType
}

// MetadataEvent arrives at most once, early: the citation list plus an
// optional confidence score for the answer being generated.
type MetadataEvent struct {
	Citations  []entity.Citation
	Confidence *entity.ConfidenceScore
}

func (MetadataEvent) Type() EventType { return EventTypeMetadata }

// ChunkEvent carries one text fragment. Fragments are applied strictly in
// arrival order; citation markers may straddle chunk boundaries.
type ChunkEvent struct {
	Text string
}

func (ChunkEvent) Type() EventType { return EventTypeChunk }

// DoneEvent closes the stream with the validation verdict and total
// processing time.
type DoneEvent struct {
	Validation       *entity.ValidationResult
	ProcessingTimeMs int64
}

func (DoneEvent) Type() EventType { return EventTypeDone }

// ErrorEvent reports an upstream failure. Message is diagnostic detail,
// never shown verbatim to the user.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) Type() EventType { return EventTypeError }

// envelope is the wire shape: a type tag plus the union of all fields.
type envelope struct {
	Type             EventType                `json:"type"`
	Citations        []entity.Citation        `json:"citations,omitempty"`
	Confidence       *entity.ConfidenceScore  `json:"confidence_score,omitempty"`
	Text             string                   `json:"text,omitempty"`
	Validation       *entity.ValidationResult `json:"validation,omitempty"`
	ProcessingTimeMs int64                    `json:"processing_time_ms,omitempty"`
	Message          string                   `json:"message,omitempty"`
}

// DecodeEvent parses one wire event. An unknown or missing type tag is a
// malformed event and terminates the stream on the error path.
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed stream event: %w", err)
	}

	switch env.Type {
	case EventTypeMetadata:
		return MetadataEvent{Citations: env.Citations, Confidence: env.Confidence}, nil
	case EventTypeChunk:
		return ChunkEvent{Text: env.Text}, nil
	case EventTypeDone:
		return DoneEvent{Validation: env.Validation, ProcessingTimeMs: env.ProcessingTimeMs}, nil
	case EventTypeError:
		return ErrorEvent{Message: env.Message}, nil
	default:
		return nil, fmt.Errorf("malformed stream event: unknown type %q", env.Type)
	}
}
