package speech

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/audio"
)

// FallbackRecognizer wraps a primary recognizer with a fallback option
type FallbackRecognizer struct {
	primary  Recognizer
	fallback Recognizer
	logger   *zap.SugaredLogger
}

// NewFallbackRecognizer creates a recognizer that falls back to secondary if
// primary fails or is unavailable
func NewFallbackRecognizer(primary, fallback Recognizer, logger *zap.SugaredLogger) Recognizer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FallbackRecognizer{primary: primary, fallback: fallback, logger: logger}
}

// Recognize tries the primary recognizer first. Cancellation and silence
// are not failures and are returned as is.
func (f *FallbackRecognizer) Recognize(ctx context.Context, req Request) (*Result, error) {
	if err := f.primary.IsAvailable(); err == nil {
		result, err := f.primary.Recognize(ctx, req)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, audio.ErrNoSpeech) {
			return result, err
		}
		f.logger.Warnw("primary recognizer failed, falling back",
			"primary", f.primary.Name(), "fallback", f.fallback.Name(), "error", err)
	}

	return f.fallback.Recognize(ctx, req)
}

// Name returns the recognizer name
func (f *FallbackRecognizer) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", f.primary.Name(), f.fallback.Name())
}

// IsAvailable checks if at least one recognizer is available
func (f *FallbackRecognizer) IsAvailable() error {
	primaryErr := f.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := f.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both recognizers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
