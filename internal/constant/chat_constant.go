package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// Placeholder title until the first user message freezes the real one.
const ConversationTitlePlaceholder = "Percakapan baru"

// Maximum rune length of a conversation title derived from the first question.
const ConversationTitleMaxLen = 50

// User-facing notices shown instead of answer text when a stream fails.
// Raw errors never reach the user, only the logs.
const (
	StreamErrorNotice     = "Maaf, terjadi kesalahan saat memproses pertanyaan Anda. Silakan coba lagi."
	StreamTimeoutNotice   = "Maaf, permintaan Anda memakan waktu terlalu lama. Silakan coba lagi."
	StreamCancelledNotice = "Permintaan dibatalkan."
	StreamRefusalNotice   = "Asisten tidak dapat menjawab pertanyaan ini berdasarkan sumber hukum yang tersedia."
)
