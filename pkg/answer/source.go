package answer

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"legal-assist-be/pkg/stream"
)

// StreamSource adapts one NDJSON response body to the stream.Source
// contract: events come out in wire order, Close tears the transport down.
type StreamSource struct {
	body   io.ReadCloser
	cancel func()
	events chan stream.Event
	closed chan struct{}

	closeOnce sync.Once
}

func newStreamSource(body io.ReadCloser, cancel func()) *StreamSource {
	return &StreamSource{
		body:   body,
		cancel: cancel,
		events: make(chan stream.Event),
		closed: make(chan struct{}),
	}
}

func (s *StreamSource) Events() <-chan stream.Event {
	return s.events
}

// Close aborts the underlying request. Safe to call multiple times and
// concurrently with event delivery.
func (s *StreamSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
		s.body.Close()
	})
	return nil
}

func (s *StreamSource) read() {
	defer close(s.events)
	defer s.Close()

	scanner := bufio.NewScanner(s.body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		event, err := stream.DecodeEvent(line)
		if err != nil {
			// A malformed event terminates the stream on the error path.
			s.deliver(stream.ErrorEvent{Message: err.Error()})
			return
		}

		if !s.deliver(event) {
			return
		}

		// done and error are terminal; stop reading past them.
		switch event.Type() {
		case stream.EventTypeDone, stream.EventTypeError:
			return
		}
	}
	// Reader ended without a terminal event: the closed events channel
	// itself signals the failure to the assembler.
}

// deliver hands an event to the consumer unless the source was closed;
// a cancelled consumer must never block the reader.
func (s *StreamSource) deliver(event stream.Event) bool {
	select {
	case s.events <- event:
		return true
	case <-s.closed:
		return false
	}
}
