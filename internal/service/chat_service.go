package service

import (
	"context"
	"time"

	"legal-assist-be/internal/constant"
	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/mapper"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/pkg/answer"
	"legal-assist-be/pkg/citation"
	"legal-assist-be/pkg/stream"

	"github.com/google/uuid"
)

type IChatService interface {
	SendChat(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	CancelStream(ctx context.Context, conversationId uuid.UUID) bool
	AskDirect(ctx context.Context, req *dto.AskDirectRequest) (*dto.AskDirectResponse, error)
}

// chatService ties question submission together: it appends the user
// message, seeds the pending assistant message, and opens the streaming
// session. Assembly updates flow back to the store over the bus, not
// through this service.
type chatService struct {
	conversations IConversationService
	streamManager *stream.Manager
	answerClient  *answer.Client
	chatMap       *mapper.ChatMapper
	log           logger.ILogger
}

func NewChatService(
	conversations IConversationService,
	streamManager *stream.Manager,
	answerClient *answer.Client,
	log logger.ILogger,
) IChatService {
	return &chatService{
		conversations: conversations,
		streamManager: streamManager,
		answerClient:  answerClient,
		chatMap:       mapper.NewChatMapper(),
		log:           log,
	}
}

func (cs *chatService) SendChat(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	conversationId, err := cs.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	// Conversation history before this question, for backend context.
	history, err := cs.loadHistory(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := &entity.ChatMessage{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleUser,
		Content:   req.Question,
		Status:    entity.MessageStatusCompleted,
		CreatedAt: now,
	}
	if err := cs.conversations.Append(ctx, conversationId, userMsg); err != nil {
		return nil, err
	}

	replyMsg := &entity.ChatMessage{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleAssistant,
		Content:   "",
		Status:    entity.MessageStatusPending,
		CreatedAt: now,
	}
	if err := cs.conversations.Append(ctx, conversationId, replyMsg); err != nil {
		return nil, err
	}

	// The stream outlives this request: detach it from the request context
	// but keep its values (trace ids).
	streamCtx := context.WithoutCancel(ctx)
	source, err := cs.answerClient.Stream(streamCtx, &answer.AskRequest{
		Question: req.Question,
		History:  history,
	})
	if err != nil {
		cs.log.Error("Chat", "Failed to open answer stream", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		cs.markErrored(ctx, conversationId, replyMsg.Id)
	} else {
		cs.streamManager.Start(conversationId, replyMsg.Id, source)
	}

	meta, err := cs.conversations.Show(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		ConversationId: conversationId,
		Title:          meta.Title,
		UserMessageId:  userMsg.Id,
		ReplyMessageId: replyMsg.Id,
	}, nil
}

// CancelStream cancels the in-flight answer for a conversation, if any.
func (cs *chatService) CancelStream(ctx context.Context, conversationId uuid.UUID) bool {
	return cs.streamManager.Cancel(conversationId)
}

// AskDirect asks the backend without streaming or persistence.
func (cs *chatService) AskDirect(ctx context.Context, req *dto.AskDirectRequest) (*dto.AskDirectResponse, error) {
	res, err := cs.answerClient.Ask(ctx, &answer.AskRequest{Question: req.Question})
	if err != nil {
		return nil, err
	}

	return &dto.AskDirectResponse{
		Answer:           res.Answer,
		Segments:         citation.Parse(res.Answer, len(res.Citations)),
		Citations:        cs.chatMap.CitationsToDTO(res.Citations),
		Confidence:       cs.chatMap.ConfidenceToDTO(res.Confidence),
		Validation:       cs.chatMap.ValidationToDTO(res.Validation),
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}

func (cs *chatService) resolveConversation(ctx context.Context, req *dto.SendChatRequest) (uuid.UUID, error) {
	if req.ConversationId != nil {
		if _, err := cs.conversations.Show(ctx, *req.ConversationId); err != nil {
			return uuid.Nil, err
		}
		return *req.ConversationId, nil
	}

	created, err := cs.conversations.Create(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return created.Id, nil
}

func (cs *chatService) loadHistory(ctx context.Context, conversationId uuid.UUID) ([]answer.HistoryItem, error) {
	messages, err := cs.conversations.GetHistory(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	history := make([]answer.HistoryItem, 0, len(messages))
	for _, msg := range messages {
		// Only committed turns: pending/errored messages carry no answer.
		if msg.Status != entity.MessageStatusCompleted {
			continue
		}
		history = append(history, answer.HistoryItem{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return history, nil
}

func (cs *chatService) markErrored(ctx context.Context, conversationId, messageId uuid.UUID) {
	err := cs.conversations.UpdateMessage(ctx, conversationId, messageId, func(msg *entity.ChatMessage) error {
		msg.Content = constant.StreamErrorNotice
		msg.Status = entity.MessageStatusErrored
		return nil
	})
	if err != nil {
		cs.log.Error("Chat", "Failed to mark message errored", map[string]interface{}{
			"conversation_id": conversationId,
			"message_id":      messageId,
			"error":           err.Error(),
		})
	}
}
