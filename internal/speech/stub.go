package speech

import (
	"context"
	"sync"
	"time"
)

// StubRecognizer returns fixed transcripts in turn without using the
// microphone
type StubRecognizer struct {
	mu          sync.Mutex
	transcripts []string
	delay       time.Duration
	next        int
}

// NewStubRecognizer creates a stub cycling through transcripts. An empty
// list yields empty results.
func NewStubRecognizer(delay time.Duration, transcripts ...string) *StubRecognizer {
	return &StubRecognizer{transcripts: transcripts, delay: delay}
}

// DefaultStubTranscripts are used when no transcripts are configured
func DefaultStubTranscripts() []string {
	return []string{"hello", "thank you", "good night"}
}

// Recognize waits for the delay and returns the next transcript
func (s *StubRecognizer) Recognize(ctx context.Context, req Request) (*Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.transcripts) == 0 {
		return &Result{}, nil
	}
	text := s.transcripts[s.next%len(s.transcripts)]
	s.next++
	return &Result{Transcripts: []string{text}}, nil
}

// Name returns the recognizer name
func (s *StubRecognizer) Name() string {
	return "stub"
}

// IsAvailable always succeeds
func (s *StubRecognizer) IsAvailable() error {
	return nil
}
