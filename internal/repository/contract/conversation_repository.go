package contract

import (
	"context"

	"legal-assist-be/internal/entity"

	"github.com/google/uuid"
)

// IConversationRepository is the key-value substrate under the conversation
// store: get/put/delete/list over whole conversation records. Get returns
// (nil, nil) for an absent id; existence policy lives in the service layer.
type IConversationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ConversationRecord, error)
	Put(ctx context.Context, record *entity.ConversationRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*entity.ConversationRecord, error)
}
