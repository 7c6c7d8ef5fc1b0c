package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"legal-assist-be/internal/constant"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(now func() time.Time) IConversationService {
	policy := GroupingPolicy{
		Location:       time.UTC,
		Now:            now,
		LabelToday:     "Hari ini",
		LabelYesterday: "Kemarin",
		LabelLast7Days: "7 hari terakhir",
		LabelOlder:     "Lebih lama",
	}
	return NewConversationService(memory.NewConversationRepository(0), policy)
}

func userMessage(content string) *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleUser,
		Content:   content,
		Status:    entity.MessageStatusCompleted,
		CreatedAt: time.Now(),
	}
}

func TestCreateConversation_PlaceholderTitle(t *testing.T) {
	svc := newTestService(time.Now)

	created, err := svc.Create(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.Id)
	assert.Equal(t, constant.ConversationTitlePlaceholder, created.Title)
}

func TestAppend_FirstUserMessageFreezesTitle(t *testing.T) {
	svc := newTestService(time.Now)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Append(ctx, created.Id, userMessage("Apa syarat mendirikan PT?")))
	require.NoError(t, svc.Append(ctx, created.Id, userMessage("Pertanyaan kedua yang berbeda")))

	item, err := svc.Show(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Apa syarat mendirikan PT?", item.Title)
}

func TestAppend_TitleTruncatedAtFiftyRunes(t *testing.T) {
	svc := newTestService(time.Now)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	long := strings.Repeat("a", 60)
	require.NoError(t, svc.Append(ctx, created.Id, userMessage(long)))

	item, err := svc.Show(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 50)+"...", item.Title)
	assert.Len(t, []rune(item.Title), 53)
}

func TestAppend_UnknownConversation(t *testing.T) {
	svc := newTestService(time.Now)

	err := svc.Append(context.Background(), uuid.New(), userMessage("halo"))

	var notFound *serverutils.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "conversation", notFound.Resource)
}

func TestUpdateMessage_UnknownMessage(t *testing.T) {
	svc := newTestService(time.Now)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	err = svc.UpdateMessage(ctx, created.Id, uuid.New(), func(m *entity.ChatMessage) error {
		return nil
	})

	var notFound *serverutils.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "message", notFound.Resource)
}

func TestDelete_Idempotent(t *testing.T) {
	svc := newTestService(time.Now)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.Id))
	// Second delete of the same id, and a delete of a never-existing id,
	// both succeed silently.
	require.NoError(t, svc.Delete(ctx, created.Id))
	require.NoError(t, svc.Delete(ctx, uuid.New()))

	_, err = svc.Show(ctx, created.Id)
	var notFound *serverutils.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSelect_TracksPerClient(t *testing.T) {
	svc := newTestService(time.Now)
	ctx := context.Background()

	first, err := svc.Create(ctx)
	require.NoError(t, err)
	second, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Select(ctx, "client-a", first.Id)
	require.NoError(t, err)
	_, err = svc.Select(ctx, "client-b", second.Id)
	require.NoError(t, err)

	selectedA := svc.Selected(ctx, "client-a")
	require.NotNil(t, selectedA)
	assert.Equal(t, first.Id, *selectedA)

	selectedB := svc.Selected(ctx, "client-b")
	require.NotNil(t, selectedB)
	assert.Equal(t, second.Id, *selectedB)

	assert.Nil(t, svc.Selected(ctx, "client-unknown"))
}

func TestSelect_UnknownConversation(t *testing.T) {
	svc := newTestService(time.Now)

	_, err := svc.Select(context.Background(), "client-a", uuid.New())

	var notFound *serverutils.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListGrouped_BucketsByRecency(t *testing.T) {
	// Fixed "now": 2024-03-20 10:00 UTC.
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	clock := now
	svc := newTestService(func() time.Time { return clock })
	ctx := context.Background()

	// Ages relative to now, one conversation per expected bucket plus a
	// boundary case: 23:59 yesterday still lands in "Kemarin".
	ages := []struct {
		title string
		at    time.Time
	}{
		{"hari ini pagi", time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)},
		{"kemarin siang", time.Date(2024, 3, 19, 13, 0, 0, 0, time.UTC)},
		{"kemarin larut", time.Date(2024, 3, 19, 23, 59, 0, 0, time.UTC)},
		{"minggu lalu", time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"bulan lalu", time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
	}

	for _, a := range ages {
		clock = a.at
		created, err := svc.Create(ctx)
		require.NoError(t, err)
		require.NoError(t, svc.Append(ctx, created.Id, userMessage(a.title)))
	}
	clock = now

	groups, err := svc.ListGrouped(ctx, "")
	require.NoError(t, err)

	require.Len(t, groups, 4)
	assert.Equal(t, "Hari ini", groups[0].Label)
	assert.Equal(t, "Kemarin", groups[1].Label)
	assert.Equal(t, "7 hari terakhir", groups[2].Label)
	assert.Equal(t, "Lebih lama", groups[3].Label)

	require.Len(t, groups[1].Conversations, 2)
	// Within a bucket, most recent first.
	assert.Equal(t, "kemarin larut", groups[1].Conversations[0].Title)
	assert.Equal(t, "kemarin siang", groups[1].Conversations[1].Title)

	require.Len(t, groups[0].Conversations, 1)
	assert.Equal(t, "hari ini pagi", groups[0].Conversations[0].Title)
}

func TestListGrouped_EmptyBucketsOmitted(t *testing.T) {
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	svc := newTestService(func() time.Time { return now })
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Append(ctx, created.Id, userMessage("satu-satunya")))

	groups, err := svc.ListGrouped(ctx, "")
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, "Hari ini", groups[0].Label)
}

func TestListGrouped_SearchFiltersByTitle(t *testing.T) {
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	svc := newTestService(func() time.Time { return now })
	ctx := context.Background()

	titles := []string{
		"Syarat pendirian PT",
		"Pajak penghasilan karyawan",
		"Perizinan usaha PT kecil",
	}
	for _, title := range titles {
		created, err := svc.Create(ctx)
		require.NoError(t, err)
		require.NoError(t, svc.Append(ctx, created.Id, userMessage(title)))
	}

	// Case-insensitive substring over titles.
	groups, err := svc.ListGrouped(ctx, "pt")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Conversations, 2)

	// No hits at all means no buckets at all.
	groups, err = svc.ListGrouped(ctx, "warisan")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGetHistory_PreservesOrder(t *testing.T) {
	svc := newTestService(time.Now)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Append(ctx, created.Id, userMessage("pertama")))
	reply := &entity.ChatMessage{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleAssistant,
		Content:   "jawaban",
		Status:    entity.MessageStatusCompleted,
		CreatedAt: time.Now(),
	}
	require.NoError(t, svc.Append(ctx, created.Id, reply))

	history, err := svc.GetHistory(ctx, created.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, history[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, history[1].Role)
	assert.Equal(t, "jawaban", history[1].Content)
}
