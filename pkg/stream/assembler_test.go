package stream

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"legal-assist-be/internal/constant"
	"legal-assist-be/internal/entity"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeSource struct {
	ch chan Event

	mu     sync.Mutex
	closed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan Event, 16)}
}

func (f *fakeSource) Events() <-chan Event { return f.ch }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type capturePublisher struct {
	mu      sync.Mutex
	updates []Update
}

func (p *capturePublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, msg := range messages {
		var update Update
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			return err
		}
		p.updates = append(p.updates, update)
	}
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) Updates() []Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Update, len(p.updates))
	copy(out, p.updates)
	return out
}

func newTestManager(pub *capturePublisher, timeout time.Duration) *Manager {
	return NewManager(pub, nopLogger{}, timeout)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not reach a terminal state")
	}
}

func TestSessionAssemblesChunksInOrder(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	source := newFakeSource()

	convId, msgId := uuid.New(), uuid.New()
	session := m.Start(convId, msgId, source)

	confidence := &entity.ConfidenceScore{Overall: 0.9, TopScore: 0.95, AvgScore: 0.8}
	source.ch <- MetadataEvent{
		Citations:  []entity.Citation{{SourceId: "uu-13-2003", Title: "UU Ketenagakerjaan"}},
		Confidence: confidence,
	}
	// Marker straddles the chunk boundary on purpose.
	source.ch <- ChunkEvent{Text: "Berdasarkan Pasal 79 ["}
	source.ch <- ChunkEvent{Text: "1"}
	source.ch <- ChunkEvent{Text: "], cuti tahunan minimal 12 hari."}
	source.ch <- DoneEvent{
		Validation:       &entity.ValidationResult{IsValid: true, HallucinationRisk: entity.RiskLow, CitationCoverage: 1.0},
		ProcessingTimeMs: 420,
	}

	waitDone(t, session)

	require.Equal(t, StateCompleted, session.State())
	require.NoError(t, session.Err())

	msg := session.Message()
	require.NotNil(t, msg)
	assert.Equal(t, "Berdasarkan Pasal 79 [1], cuti tahunan minimal 12 hari.", msg.Content)
	assert.Equal(t, entity.MessageStatusCompleted, msg.Status)
	assert.Len(t, msg.Citations, 1)
	assert.Equal(t, confidence, msg.Confidence)
	assert.Equal(t, int64(420), msg.ProcessingTimeMs)

	updates := pub.Updates()
	require.NotEmpty(t, updates)
	assert.Equal(t, UpdateKindMetadata, updates[0].Kind)
	assert.Equal(t, UpdateKindCompleted, updates[len(updates)-1].Kind)

	// Chunk updates preserved arrival order.
	var chunks []string
	for _, u := range updates {
		if u.Kind == UpdateKindChunk {
			chunks = append(chunks, u.ChunkText)
		}
	}
	assert.Equal(t, []string{"Berdasarkan Pasal 79 [", "1", "], cuti tahunan minimal 12 hari."}, chunks)
}

func TestSessionErrorDiscardsPartialContent(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	source := newFakeSource()

	session := m.Start(uuid.New(), uuid.New(), source)

	source.ch <- ChunkEvent{Text: "partial answer that must never be committed"}
	source.ch <- ErrorEvent{Message: "upstream 502"}

	waitDone(t, session)

	require.Equal(t, StateErrored, session.State())

	var streamErr *StreamError
	require.ErrorAs(t, session.Err(), &streamErr)
	assert.Equal(t, "upstream 502", streamErr.Reason)

	msg := session.Message()
	require.NotNil(t, msg)
	assert.Equal(t, entity.MessageStatusErrored, msg.Status)
	assert.Equal(t, constant.StreamErrorNotice, msg.Content)
	assert.NotContains(t, msg.Content, "partial answer")
	assert.NotContains(t, msg.Content, "502")

	last := pub.Updates()[len(pub.Updates())-1]
	assert.Equal(t, UpdateKindErrored, last.Kind)
	assert.Equal(t, constant.StreamErrorNotice, last.Notice)
}

func TestSessionChannelClosedBeforeDone(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	source := newFakeSource()

	session := m.Start(uuid.New(), uuid.New(), source)
	source.ch <- ChunkEvent{Text: "half an answ"}
	close(source.ch)

	waitDone(t, session)

	require.Equal(t, StateErrored, session.State())
	var streamErr *StreamError
	assert.ErrorAs(t, session.Err(), &streamErr)
}

func TestSessionTimeout(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, 30*time.Millisecond)
	source := newFakeSource()

	session := m.Start(uuid.New(), uuid.New(), source)

	waitDone(t, session)

	require.Equal(t, StateErrored, session.State())
	assert.ErrorIs(t, session.Err(), ErrStreamTimeout)
	assert.Equal(t, constant.StreamTimeoutNotice, session.Message().Content)
	assert.True(t, source.Closed())
}

func TestSessionCancelIsIdempotent(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	source := newFakeSource()

	convId := uuid.New()
	session := m.Start(convId, uuid.New(), source)

	assert.True(t, m.Cancel(convId))
	m.Cancel(convId)
	session.Cancel()

	waitDone(t, session)

	require.Equal(t, StateErrored, session.State())
	assert.ErrorIs(t, session.Err(), ErrStreamCancelled)
	assert.Equal(t, constant.StreamCancelledNotice, session.Message().Content)
	assert.True(t, source.Closed())
}

// A late chunk written to a cancelled session's source must never reach the
// message of a stream started afterwards on the same conversation.
func TestStaleChunkDoesNotLeakIntoNewSession(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	convId := uuid.New()

	oldSource := newFakeSource()
	oldSession := m.Start(convId, uuid.New(), oldSource)

	newSource := newFakeSource()
	newSession := m.Start(convId, uuid.New(), newSource)

	waitDone(t, oldSession)
	assert.ErrorIs(t, oldSession.Err(), ErrStreamCancelled)
	assert.True(t, oldSource.Closed())

	// Stale chunk arrives on the dead transport after cancellation.
	oldSource.ch <- ChunkEvent{Text: "STALE"}

	newSource.ch <- ChunkEvent{Text: "fresh answer"}
	newSource.ch <- DoneEvent{
		Validation: &entity.ValidationResult{IsValid: true, HallucinationRisk: entity.RiskLow},
	}

	waitDone(t, newSession)

	require.Equal(t, StateCompleted, newSession.State())
	assert.Equal(t, "fresh answer", newSession.Message().Content)

	for _, u := range pub.Updates() {
		if u.MessageId == newSession.MessageId() {
			assert.NotContains(t, u.ChunkText, "STALE")
			assert.NotContains(t, u.Content, "STALE")
		}
	}
}

func TestSessionRefusal(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	source := newFakeSource()

	session := m.Start(uuid.New(), uuid.New(), source)

	source.ch <- ChunkEvent{Text: "Saya tidak dapat menjawab pertanyaan tersebut."}
	source.ch <- DoneEvent{
		Validation: &entity.ValidationResult{IsValid: false, HallucinationRisk: entity.RiskRefused},
	}

	waitDone(t, session)

	require.Equal(t, StateCompleted, session.State())
	assert.ErrorAs(t, session.Err(), &UpstreamRefusalError{})

	last := pub.Updates()[len(pub.Updates())-1]
	assert.Equal(t, UpdateKindCompleted, last.Kind)
	assert.True(t, last.Refused)
}

func TestManagerActive(t *testing.T) {
	pub := &capturePublisher{}
	m := newTestManager(pub, time.Second)
	convId := uuid.New()

	assert.Nil(t, m.Active(convId))

	source := newFakeSource()
	session := m.Start(convId, uuid.New(), source)
	assert.NotNil(t, m.Active(convId))

	source.ch <- DoneEvent{Validation: &entity.ValidationResult{IsValid: true, HallucinationRisk: entity.RiskLow}}
	waitDone(t, session)

	assert.Nil(t, m.Active(convId))
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"chunk","text":"halo"}`))
	require.NoError(t, err)
	chunk, ok := ev.(ChunkEvent)
	require.True(t, ok)
	assert.Equal(t, "halo", chunk.Text)

	ev, err = DecodeEvent([]byte(`{"type":"done","validation":{"is_valid":true,"hallucination_risk":"low","citation_coverage":0.5},"processing_time_ms":1200}`))
	require.NoError(t, err)
	done, ok := ev.(DoneEvent)
	require.True(t, ok)
	assert.Equal(t, int64(1200), done.ProcessingTimeMs)
	assert.Equal(t, entity.RiskLow, done.Validation.HallucinationRisk)

	_, err = DecodeEvent([]byte(`{"type":"surprise"}`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)
}
