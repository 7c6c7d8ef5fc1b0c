package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"legal-assist-be/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	conversationKeyPrefix = "conversation:"
	conversationIndexKey  = "conversation:index"
)

// RedisConversationRepository persists conversation records as JSON values
// plus a set of ids for listing. Used when running more than one instance.
type RedisConversationRepository struct {
	rdb *redis.Client
}

func NewRedisConversationRepository(rdb *redis.Client) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb}
}

func conversationKey(id uuid.UUID) string {
	return conversationKeyPrefix + id.String()
}

func (r *RedisConversationRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ConversationRecord, error) {
	raw, err := r.rdb.Get(ctx, conversationKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record entity.ConversationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &record, nil
}

func (r *RedisConversationRepository) Put(ctx context.Context, record *entity.ConversationRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	id := record.Conversation.Id
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, conversationKey(id), raw, 0)
	pipe.SAdd(ctx, conversationIndexKey, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (r *RedisConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, conversationKey(id))
	pipe.SRem(ctx, conversationIndexKey, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *RedisConversationRepository) List(ctx context.Context) ([]*entity.ConversationRecord, error) {
	ids, err := r.rdb.SMembers(ctx, conversationIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}

	records := make([]*entity.ConversationRecord, 0, len(ids))
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		record, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			// Index entry outlived the value (expired or raced a delete).
			r.rdb.SRem(ctx, conversationIndexKey, idStr)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
