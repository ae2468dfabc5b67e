// Package speech runs speech recognition for the capture flow. A Recognizer
// turns one spoken utterance into candidate transcripts; the Launcher runs
// it in the background and hands the outcome back on the UI thread, keyed by
// the request code of the caller.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/snonux/voxlate/internal/audio"
)

// ErrRecognizerUnavailable is returned by Launch when no recognizer can run
var ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")

// LanguageModel selects the recognition model
type LanguageModel string

// LanguageModelFreeForm is the dictation model
const LanguageModelFreeForm LanguageModel = "free_form"

// Request describes one recognition
type Request struct {
	LanguageModel LanguageModel
	Language      string // BCP-47 code, e.g. "en"
	Prompt        string // shown while listening
	MaxResults    int    // upper bound on transcripts, 0 means engine default
}

// Result holds the candidate transcripts, best first
type Result struct {
	Transcripts []string
}

// Best returns the first transcript, or "" and false when there is none
func (r *Result) Best() (string, bool) {
	if r == nil || len(r.Transcripts) == 0 {
		return "", false
	}
	return r.Transcripts[0], true
}

// Status is the outcome of a recognition
type Status int

const (
	StatusOK Status = iota
	StatusCanceled
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCanceled:
		return "canceled"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Recognizer defines the interface for speech-to-text engines
type Recognizer interface {
	// Recognize records one utterance and transcribes it
	Recognize(ctx context.Context, req Request) (*Result, error)

	// Name returns the recognizer name
	Name() string

	// IsAvailable checks if the recognizer is properly configured
	IsAvailable() error
}

// AudioSource records utterances for recognizers. *audio.Recorder
// implements it.
type AudioSource interface {
	Record(ctx context.Context) (*audio.Recording, error)
	Stream(ctx context.Context, sink func([]float32) error) (time.Duration, error)
}

// statusOf maps a recognition error to a Status
func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, audio.ErrNoSpeech):
		return StatusCanceled
	default:
		return StatusError
	}
}

// limit trims transcripts to max entries
func limit(transcripts []string, max int) []string {
	if max > 0 && len(transcripts) > max {
		return transcripts[:max]
	}
	return transcripts
}
