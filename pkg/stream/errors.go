package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamCancelled marks a session ended by explicit cancellation.
	ErrStreamCancelled = errors.New("stream cancelled")

	// ErrStreamTimeout marks a session with no done/error event in time.
	ErrStreamTimeout = errors.New("stream timeout")
)

// StreamError is a transport-level or upstream-reported failure. Terminal;
// retry policy, if any, belongs to the caller.
type StreamError struct {
	Reason string
	Err    error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stream error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("stream error: %s", e.Reason)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// UpstreamRefusalError marks an answer the backend declined to give. Not a
// transport failure: the stream completed, the content is a refusal notice.
type UpstreamRefusalError struct{}

func (UpstreamRefusalError) Error() string {
	return "upstream declined to answer"
}
