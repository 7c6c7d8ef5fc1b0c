package memory

import (
	"context"
	"time"

	"legal-assist-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ConversationRepository keeps conversation records in-process. Retention is
// the cache TTL: expired threads simply disappear from List, which is the
// store-level eviction policy for the memory backend.
type ConversationRepository struct {
	cache *cache.Cache
}

func NewConversationRepository(retention time.Duration) *ConversationRepository {
	c := cache.New(retention, 10*time.Minute)
	return &ConversationRepository{
		cache: c,
	}
}

func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ConversationRecord, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.ConversationRecord), nil
	}
	return nil, nil
}

func (r *ConversationRepository) Put(ctx context.Context, record *entity.ConversationRecord) error {
	r.cache.Set(record.Conversation.Id.String(), record, cache.DefaultExpiration)
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *ConversationRepository) List(ctx context.Context) ([]*entity.ConversationRecord, error) {
	items := r.cache.Items()
	records := make([]*entity.ConversationRecord, 0, len(items))
	for _, item := range items {
		records = append(records, item.Object.(*entity.ConversationRecord))
	}
	return records, nil
}
