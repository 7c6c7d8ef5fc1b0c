package stream

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"legal-assist-be/internal/constant"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
)

// Source is the transport under one streaming session. Events must arrive in
// send order; Close tears the transport down and eventually closes Events.
type Source interface {
	Events() <-chan Event
	Close() error
}

// Session assembles one in-flight answer from its event stream. It owns the
// accumulating text, transitions idle → streaming → completed/errored, and
// publishes every observable change on the message bus.
type Session struct {
	conversationId uuid.UUID
	messageId      uuid.UUID
	source         Source
	publisher      message.Publisher
	log            logger.ILogger
	timeout        time.Duration

	mu         sync.Mutex
	state      State
	content    strings.Builder
	citations  []entity.Citation
	confidence *entity.ConfidenceScore
	result     *entity.ChatMessage
	err        error

	cancelOnce sync.Once
	cancelled  chan struct{}
	finished   chan struct{}
}

func newSession(
	conversationId uuid.UUID,
	messageId uuid.UUID,
	source Source,
	publisher message.Publisher,
	log logger.ILogger,
	timeout time.Duration,
) *Session {
	return &Session{
		conversationId: conversationId,
		messageId:      messageId,
		source:         source,
		publisher:      publisher,
		log:            log,
		timeout:        timeout,
		state:          StateIdle,
		cancelled:      make(chan struct{}),
		finished:       make(chan struct{}),
	}
}

func (s *Session) ConversationId() uuid.UUID { return s.conversationId }
func (s *Session) MessageId() uuid.UUID      { return s.messageId }

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.finished
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error: nil for a clean completion,
// UpstreamRefusalError for a refusal, the taxonomy error otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Message returns the assembled message once the session is terminal.
func (s *Session) Message() *entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Cancel closes the underlying transport and forces the errored state with
// the cancellation notice. Safe to call any number of times, including after
// the session already finished.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancelled)
		if err := s.source.Close(); err != nil {
			s.log.Warn("Stream", "Failed to close stream source on cancel", map[string]interface{}{
				"conversation_id": s.conversationId,
				"error":           err.Error(),
			})
		}
	})
}

// run drives the state machine until a terminal state. Chunks are applied in
// arrival order only; markers straddling chunk boundaries are resolved later,
// when the completed text is parsed at the render boundary.
func (s *Session) run() {
	defer close(s.finished)

	s.setState(StateStreaming)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case <-s.cancelled:
			s.finishError(ErrStreamCancelled, constant.StreamCancelledNotice)
			return

		case <-timer.C:
			s.Cancel()
			s.finishError(ErrStreamTimeout, constant.StreamTimeoutNotice)
			return

		case ev, ok := <-s.source.Events():
			if !ok {
				// Transport closed without a done/error event.
				s.finishError(&StreamError{Reason: "channel closed before done"}, constant.StreamErrorNotice)
				return
			}

			switch e := ev.(type) {
			case MetadataEvent:
				s.applyMetadata(e)

			case ChunkEvent:
				s.applyChunk(e)

			case DoneEvent:
				s.finishDone(e)
				return

			case ErrorEvent:
				s.finishError(&StreamError{Reason: e.Message}, constant.StreamErrorNotice)
				return
			}
		}
	}
}

func (s *Session) applyMetadata(e MetadataEvent) {
	s.mu.Lock()
	s.citations = e.Citations
	s.confidence = e.Confidence
	s.mu.Unlock()

	s.publish(Update{
		ConversationId: s.conversationId,
		MessageId:      s.messageId,
		Kind:           UpdateKindMetadata,
		Citations:      e.Citations,
		Confidence:     e.Confidence,
	})
}

func (s *Session) applyChunk(e ChunkEvent) {
	s.mu.Lock()
	s.content.WriteString(e.Text)
	s.mu.Unlock()

	s.publish(Update{
		ConversationId: s.conversationId,
		MessageId:      s.messageId,
		Kind:           UpdateKindChunk,
		ChunkText:      e.Text,
	})
}

func (s *Session) finishDone(e DoneEvent) {
	s.mu.Lock()
	content := s.content.String()
	refused := e.Validation.Refused()
	if refused {
		s.err = UpstreamRefusalError{}
		if content == "" {
			// Backend declined without streaming any text of its own.
			content = constant.StreamRefusalNotice
		}
	}

	now := time.Now()
	s.result = &entity.ChatMessage{
		Id:               s.messageId,
		Role:             constant.ChatMessageRoleAssistant,
		Content:          content,
		Status:           entity.MessageStatusCompleted,
		Citations:        s.citations,
		Confidence:       s.confidence,
		Validation:       e.Validation,
		ProcessingTimeMs: e.ProcessingTimeMs,
		ConversationId:   s.conversationId,
		CreatedAt:        now,
		UpdatedAt:        &now,
	}
	s.state = StateCompleted
	citations := s.citations
	confidence := s.confidence
	s.mu.Unlock()

	s.publish(Update{
		ConversationId:   s.conversationId,
		MessageId:        s.messageId,
		Kind:             UpdateKindCompleted,
		Content:          content,
		Citations:        citations,
		Confidence:       confidence,
		Validation:       e.Validation,
		ProcessingTimeMs: e.ProcessingTimeMs,
		Refused:          refused,
	})
}

// finishError discards the partial text from the committed view: the message
// content becomes the user notice, and the raw error goes to the log only.
func (s *Session) finishError(cause error, notice string) {
	s.mu.Lock()
	if s.state == StateCompleted || s.state == StateErrored {
		s.mu.Unlock()
		return
	}

	now := time.Now()
	s.err = cause
	s.result = &entity.ChatMessage{
		Id:             s.messageId,
		Role:           constant.ChatMessageRoleAssistant,
		Content:        notice,
		Status:         entity.MessageStatusErrored,
		ConversationId: s.conversationId,
		CreatedAt:      now,
		UpdatedAt:      &now,
	}
	s.state = StateErrored
	discarded := s.content.Len()
	s.mu.Unlock()

	s.log.Error("Stream", "Streaming session failed", map[string]interface{}{
		"conversation_id": s.conversationId,
		"message_id":      s.messageId,
		"error":           cause.Error(),
		"discarded_bytes": discarded,
	})

	s.publish(Update{
		ConversationId: s.conversationId,
		MessageId:      s.messageId,
		Kind:           UpdateKindErrored,
		Notice:         notice,
	})
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) publish(update Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		s.log.Error("Stream", "Failed to marshal update", map[string]interface{}{"error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(TopicMessageUpdates, msg); err != nil {
		s.log.Error("Stream", "Failed to publish update", map[string]interface{}{
			"conversation_id": s.conversationId,
			"error":           err.Error(),
		})
	}
}
