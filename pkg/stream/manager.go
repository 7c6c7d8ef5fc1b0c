package stream

import (
	"sync"
	"time"

	"legal-assist-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Manager enforces the one-active-session-per-conversation rule. Starting a
// new session first cancels the previous one for the same conversation, so a
// stale transport can never feed the new message: each session owns its own
// source and message id.
type Manager struct {
	publisher message.Publisher
	log       logger.ILogger
	timeout   time.Duration

	mu     sync.Mutex
	active map[uuid.UUID]*Session
}

func NewManager(publisher message.Publisher, log logger.ILogger, timeout time.Duration) *Manager {
	return &Manager{
		publisher: publisher,
		log:       log,
		timeout:   timeout,
		active:    make(map[uuid.UUID]*Session),
	}
}

// Start opens a new session for the conversation and begins consuming events.
func (m *Manager) Start(conversationId, messageId uuid.UUID, source Source) *Session {
	m.mu.Lock()
	if prev, ok := m.active[conversationId]; ok {
		prev.Cancel()
	}

	session := newSession(conversationId, messageId, source, m.publisher, m.log, m.timeout)
	m.active[conversationId] = session
	m.mu.Unlock()

	go session.run()
	return session
}

// Cancel cancels the active session for a conversation, if any. Idempotent:
// cancelling an absent or already-finished session is a no-op.
func (m *Manager) Cancel(conversationId uuid.UUID) bool {
	m.mu.Lock()
	session, ok := m.active[conversationId]
	m.mu.Unlock()

	if !ok {
		return false
	}
	session.Cancel()
	return true
}

// Active returns the live session for a conversation, or nil.
func (m *Manager) Active(conversationId uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.active[conversationId]
	if !ok {
		return nil
	}
	switch session.State() {
	case StateCompleted, StateErrored:
		return nil
	}
	return session
}
