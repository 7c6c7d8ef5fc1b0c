package service

import (
	"context"
	"encoding/json"
	"errors"

	"legal-assist-be/internal/constant"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/pkg/stream"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// StreamDelivery pushes live updates to connected clients. The websocket hub
// implements it.
type StreamDelivery interface {
	SendToConversation(conversationId uuid.UUID, payload []byte)
}

// errMessageTerminal drops a stale update aimed at an already-frozen message.
var errMessageTerminal = errors.New("message is terminal")

type IStreamConsumerService interface {
	Consume(ctx context.Context) error
}

// streamConsumerService is the store-side half of the assembly pipeline: it
// subscribes to the assembler's updates and applies them as discrete store
// mutations. The assembler and the store never call each other directly.
type streamConsumerService struct {
	subscriber    message.Subscriber
	conversations IConversationService
	delivery      StreamDelivery
	log           logger.ILogger
}

func NewStreamConsumerService(
	subscriber message.Subscriber,
	conversations IConversationService,
	delivery StreamDelivery,
	log logger.ILogger,
) IStreamConsumerService {
	return &streamConsumerService{
		subscriber:    subscriber,
		conversations: conversations,
		delivery:      delivery,
		log:           log,
	}
}

func (cs *streamConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, stream.TopicMessageUpdates)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *streamConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	// In-process bus: always ack, a broken update is never retriable.
	defer msg.Ack()

	var update stream.Update
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		cs.log.Error("StreamConsumer", "Failed to unmarshal update", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := cs.apply(ctx, &update); err != nil {
		if errors.Is(err, errMessageTerminal) {
			cs.log.Debug("StreamConsumer", "Dropped stale update for terminal message", map[string]interface{}{
				"conversation_id": update.ConversationId,
				"message_id":      update.MessageId,
				"kind":            update.Kind,
			})
			return
		}

		var notFound *serverutils.NotFoundError
		if errors.As(err, &notFound) {
			// Conversation deleted while its answer was still streaming.
			cs.log.Warn("StreamConsumer", "Update for missing conversation dropped", map[string]interface{}{
				"conversation_id": update.ConversationId,
				"kind":            update.Kind,
			})
			return
		}

		cs.log.Error("StreamConsumer", "Failed to apply update", map[string]interface{}{
			"conversation_id": update.ConversationId,
			"message_id":      update.MessageId,
			"kind":            update.Kind,
			"error":           err.Error(),
		})
		return
	}

	// Fan out to live clients only after the store committed the change.
	cs.delivery.SendToConversation(update.ConversationId, msg.Payload)
}

func (cs *streamConsumerService) apply(ctx context.Context, update *stream.Update) error {
	return cs.conversations.UpdateMessage(ctx, update.ConversationId, update.MessageId, func(m *entity.ChatMessage) error {
		if m.Terminal() {
			return errMessageTerminal
		}

		switch update.Kind {
		case stream.UpdateKindChunk:
			m.Content += update.ChunkText
			m.Status = entity.MessageStatusStreaming

		case stream.UpdateKindMetadata:
			m.Citations = update.Citations
			m.Confidence = update.Confidence
			m.Status = entity.MessageStatusStreaming

		case stream.UpdateKindCompleted:
			m.Content = update.Content
			m.Citations = update.Citations
			m.Confidence = update.Confidence
			m.Validation = update.Validation
			m.ProcessingTimeMs = update.ProcessingTimeMs
			m.Status = entity.MessageStatusCompleted

		case stream.UpdateKindErrored:
			// Partial text never reaches the committed view.
			m.Content = update.Notice
			if m.Content == "" {
				m.Content = constant.StreamErrorNotice
			}
			m.Citations = nil
			m.Confidence = nil
			m.Status = entity.MessageStatusErrored
		}
		return nil
	})
}
