package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"legal-assist-be/internal/constant"
	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/mapper"
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/internal/repository/contract"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// GroupingPolicy decides the recency-bucket edges. Bucket boundaries are a
// presentation convention, so the cutoff timezone and the labels are policy,
// not hard-coded behavior.
type GroupingPolicy struct {
	Location *time.Location
	Now      func() time.Time

	LabelToday     string
	LabelYesterday string
	LabelLast7Days string
	LabelOlder     string
}

func DefaultGroupingPolicy() GroupingPolicy {
	return GroupingPolicy{
		Location:       time.Local,
		Now:            time.Now,
		LabelToday:     "Hari ini",
		LabelYesterday: "Kemarin",
		LabelLast7Days: "7 hari terakhir",
		LabelOlder:     "Lebih lama",
	}
}

type IConversationService interface {
	Create(ctx context.Context) (*dto.CreateConversationResponse, error)
	Append(ctx context.Context, conversationId uuid.UUID, msg *entity.ChatMessage) error
	UpdateMessage(ctx context.Context, conversationId, messageId uuid.UUID, apply func(*entity.ChatMessage) error) error
	Show(ctx context.Context, conversationId uuid.UUID) (*dto.ConversationListItem, error)
	Select(ctx context.Context, clientKey string, conversationId uuid.UUID) (*dto.ConversationListItem, error)
	Selected(ctx context.Context, clientKey string) *uuid.UUID
	Delete(ctx context.Context, conversationId uuid.UUID) error
	GetHistory(ctx context.Context, conversationId uuid.UUID) ([]*dto.ChatHistoryMessage, error)
	ListGrouped(ctx context.Context, query string) ([]*dto.GroupedConversations, error)
}

// conversationService owns the conversation threads above the key-value
// substrate. Mutations run under one mutex so a grouped listing never
// observes a half-appended message.
type conversationService struct {
	repo    contract.IConversationRepository
	chatMap *mapper.ChatMapper
	policy  GroupingPolicy

	// Active selection is per caller session and ephemeral - it is not part
	// of the persisted conversation record.
	selections *gocache.Cache

	mu sync.Mutex
}

func NewConversationService(repo contract.IConversationRepository, policy GroupingPolicy) IConversationService {
	if policy.Now == nil {
		policy.Now = time.Now
	}
	if policy.Location == nil {
		policy.Location = time.Local
	}

	return &conversationService{
		repo:       repo,
		chatMap:    mapper.NewChatMapper(),
		policy:     policy,
		selections: gocache.New(12*time.Hour, 30*time.Minute),
	}
}

func (cs *conversationService) Create(ctx context.Context) (*dto.CreateConversationResponse, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.policy.Now()
	conversation := entity.Conversation{
		Id:        uuid.New(),
		Title:     constant.ConversationTitlePlaceholder,
		CreatedAt: now,
		UpdatedAt: &now,
	}

	record := &entity.ConversationRecord{
		Conversation: conversation,
		Messages:     make([]*entity.ChatMessage, 0),
	}
	if err := cs.repo.Put(ctx, record); err != nil {
		return nil, err
	}

	return &dto.CreateConversationResponse{
		Id:    conversation.Id,
		Title: conversation.Title,
	}, nil
}

func (cs *conversationService) Append(ctx context.Context, conversationId uuid.UUID, msg *entity.ChatMessage) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	record, err := cs.mustGet(ctx, conversationId)
	if err != nil {
		return err
	}

	msg.ConversationId = conversationId
	record.Messages = append(record.Messages, msg)

	now := cs.policy.Now()
	record.Conversation.UpdatedAt = &now

	// The first user message freezes the title.
	if !record.Conversation.TitleFixed && msg.Role == constant.ChatMessageRoleUser {
		record.Conversation.Title = deriveTitle(msg.Content)
		record.Conversation.TitleFixed = true
	}

	return cs.repo.Put(ctx, record)
}

func (cs *conversationService) UpdateMessage(
	ctx context.Context,
	conversationId, messageId uuid.UUID,
	apply func(*entity.ChatMessage) error,
) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	record, err := cs.mustGet(ctx, conversationId)
	if err != nil {
		return err
	}

	for _, msg := range record.Messages {
		if msg.Id != messageId {
			continue
		}
		if err := apply(msg); err != nil {
			return err
		}

		now := cs.policy.Now()
		msg.UpdatedAt = &now
		record.Conversation.UpdatedAt = &now
		return cs.repo.Put(ctx, record)
	}

	return serverutils.NewNotFoundError("message", messageId.String())
}

func (cs *conversationService) Show(ctx context.Context, conversationId uuid.UUID) (*dto.ConversationListItem, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	record, err := cs.mustGet(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	return cs.chatMap.ConversationToListItem(&record.Conversation), nil
}

func (cs *conversationService) Select(ctx context.Context, clientKey string, conversationId uuid.UUID) (*dto.ConversationListItem, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	record, err := cs.mustGet(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	cs.selections.Set(clientKey, conversationId, gocache.DefaultExpiration)
	return cs.chatMap.ConversationToListItem(&record.Conversation), nil
}

func (cs *conversationService) Selected(ctx context.Context, clientKey string) *uuid.UUID {
	if x, found := cs.selections.Get(clientKey); found {
		id := x.(uuid.UUID)
		return &id
	}
	return nil
}

// Delete is idempotent: deleting an absent conversation is a no-op. The UI
// layer fires duplicate delete intents.
func (cs *conversationService) Delete(ctx context.Context, conversationId uuid.UUID) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.repo.Delete(ctx, conversationId)
}

func (cs *conversationService) GetHistory(ctx context.Context, conversationId uuid.UUID) ([]*dto.ChatHistoryMessage, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	record, err := cs.mustGet(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	history := make([]*dto.ChatHistoryMessage, 0, len(record.Messages))
	for _, msg := range record.Messages {
		history = append(history, cs.chatMap.MessageToHistoryDTO(msg))
	}
	return history, nil
}

func (cs *conversationService) ListGrouped(ctx context.Context, query string) ([]*dto.GroupedConversations, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	records, err := cs.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	conversations := make([]*entity.Conversation, 0, len(records))
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, record := range records {
		c := record.Conversation
		if needle != "" && !strings.Contains(strings.ToLower(c.Title), needle) {
			continue
		}
		conversations = append(conversations, &c)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastActivity().After(conversations[j].LastActivity())
	})

	return cs.group(conversations), nil
}

// group buckets conversations by elapsed time since last activity. Input is
// already sorted by recency descending, so buckets come out most-recent-first
// and internally ordered. Empty buckets are omitted.
func (cs *conversationService) group(conversations []*entity.Conversation) []*dto.GroupedConversations {
	now := cs.policy.Now().In(cs.policy.Location)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, cs.policy.Location)
	startOfYesterday := startOfToday.AddDate(0, 0, -1)
	startOfWeek := startOfToday.AddDate(0, 0, -7)

	buckets := []*dto.GroupedConversations{
		{Label: cs.policy.LabelToday, Conversations: make([]*dto.ConversationListItem, 0)},
		{Label: cs.policy.LabelYesterday, Conversations: make([]*dto.ConversationListItem, 0)},
		{Label: cs.policy.LabelLast7Days, Conversations: make([]*dto.ConversationListItem, 0)},
		{Label: cs.policy.LabelOlder, Conversations: make([]*dto.ConversationListItem, 0)},
	}

	for _, c := range conversations {
		at := c.LastActivity().In(cs.policy.Location)

		var idx int
		switch {
		case !at.Before(startOfToday):
			idx = 0
		case !at.Before(startOfYesterday):
			idx = 1
		case !at.Before(startOfWeek):
			idx = 2
		default:
			idx = 3
		}
		buckets[idx].Conversations = append(buckets[idx].Conversations, cs.chatMap.ConversationToListItem(c))
	}

	result := make([]*dto.GroupedConversations, 0, len(buckets))
	for _, bucket := range buckets {
		if len(bucket.Conversations) > 0 {
			result = append(result, bucket)
		}
	}
	return result
}

func (cs *conversationService) mustGet(ctx context.Context, conversationId uuid.UUID) (*entity.ConversationRecord, error) {
	record, err := cs.repo.Get(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, serverutils.NewNotFoundError("conversation", conversationId.String())
	}
	return record, nil
}

func deriveTitle(content string) string {
	title := strings.TrimSpace(content)
	runes := []rune(title)
	if len(runes) > constant.ConversationTitleMaxLen {
		title = string(runes[:constant.ConversationTitleMaxLen]) + "..."
	}
	if title == "" {
		title = constant.ConversationTitlePlaceholder
	}
	return title
}
