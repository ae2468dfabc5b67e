package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/event"
)

// ResultHandler receives the outcome of a launch on the UI thread. err is
// set only for StatusError.
type ResultHandler func(code int, status Status, result *Result, err error)

// PromptFunc shows the listening prompt. It is called on the UI thread
// with the request prompt when listening starts and with "" when it ends.
type PromptFunc func(prompt string)

// Launcher runs one recognition at a time and delivers the result through
// the dispatcher
type Launcher struct {
	recognizer Recognizer
	dispatcher event.Dispatcher
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	prompt PromptFunc
	cancel context.CancelFunc
	active string
}

// NewLauncher creates a launcher for recognizer
func NewLauncher(recognizer Recognizer, dispatcher event.Dispatcher, logger *zap.SugaredLogger) *Launcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Launcher{recognizer: recognizer, dispatcher: dispatcher, logger: logger}
}

// SetPrompt sets the function that displays the listening prompt
func (l *Launcher) SetPrompt(fn PromptFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompt = fn
}

// Launch starts a recognition for req. It fails synchronously with
// ErrRecognizerUnavailable if the recognizer cannot run; otherwise onResult
// is called exactly once on the UI thread. A new launch cancels one that is
// still running, which then reports StatusCanceled.
func (l *Launcher) Launch(ctx context.Context, code int, req Request, onResult ResultHandler) error {
	if l.recognizer == nil {
		return ErrRecognizerUnavailable
	}
	if err := l.recognizer.IsAvailable(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRecognizerUnavailable, l.recognizer.Name(), err)
	}

	attempt := uuid.NewString()
	attemptCtx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	if l.cancel != nil {
		l.logger.Debugw("superseding running recognition", "attempt", l.active)
		l.cancel()
	}
	l.cancel = cancel
	l.active = attempt
	prompt := l.prompt
	l.mu.Unlock()

	logger := l.logger.With("attempt", attempt, "code", code, "recognizer", l.recognizer.Name())
	logger.Debugw("recognition started", "language", req.Language, "model", req.LanguageModel)

	if prompt != nil {
		l.dispatcher.Do(func() { prompt(req.Prompt) })
	}

	go func() {
		defer l.finish(attempt, cancel)

		result, err := l.recognizer.Recognize(attemptCtx, req)
		status := statusOf(err)

		switch status {
		case StatusOK:
			if result != nil {
				result.Transcripts = limit(result.Transcripts, req.MaxResults)
			}
			logger.Debugw("recognition finished", "transcripts", transcriptCount(result))
		case StatusCanceled:
			logger.Debugw("recognition canceled", "reason", err)
			result = nil
			err = nil
		default:
			logger.Errorw("recognition failed", "error", err)
			result = nil
		}

		l.dispatcher.Do(func() {
			if prompt != nil {
				prompt("")
			}
			onResult(code, status, result, err)
		})
	}()

	return nil
}

// Cancel stops the running recognition, if any
func (l *Launcher) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

func (l *Launcher) finish(attempt string, cancel context.CancelFunc) {
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == attempt {
		l.cancel = nil
		l.active = ""
	}
}

func transcriptCount(r *Result) int {
	if r == nil {
		return 0
	}
	return len(r.Transcripts)
}
