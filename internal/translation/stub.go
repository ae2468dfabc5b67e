package translation

import (
	"context"
	"sync/atomic"
	"time"
)

// StubConfig configures the stub engine
type StubConfig struct {
	// Delay simulates translation processing time
	Delay time.Duration
	// Dictionary maps target code and source text to a translation.
	// Unknown text is returned as "[code] text".
	Dictionary map[string]map[string]string
}

// DefaultStubConfig returns a small dictionary for offline runs
func DefaultStubConfig() StubConfig {
	return StubConfig{
		Delay: 50 * time.Millisecond,
		Dictionary: map[string]map[string]string{
			"vi": {
				"hello":      "xin chào",
				"thank you":  "cảm ơn",
				"good night": "chúc ngủ ngon",
			},
			"es": {
				"hello":      "hola",
				"thank you":  "gracias",
				"good night": "buenas noches",
			},
			"fr": {
				"hello":      "bonjour",
				"thank you":  "merci",
				"good night": "bonne nuit",
			},
			"de": {
				"hello":      "hallo",
				"thank you":  "danke",
				"good night": "gute Nacht",
			},
			"ja": {
				"hello":      "こんにちは",
				"thank you":  "ありがとう",
				"good night": "おやすみなさい",
			},
		},
	}
}

// StubTranslator returns deterministic translations without any network
type StubTranslator struct {
	config StubConfig
	opts   Options
	closed atomic.Bool
}

// NewStubTranslator creates a stub translator for opts
func NewStubTranslator(config StubConfig, opts Options) (*StubTranslator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &StubTranslator{config: config, opts: opts}, nil
}

// DownloadModelIfNeeded waits for the configured delay and succeeds
func (s *StubTranslator) DownloadModelIfNeeded(ctx context.Context, conditions DownloadConditions) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.wait(ctx)
}

// Translate looks text up in the dictionary
func (s *StubTranslator) Translate(ctx context.Context, text string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.lookup(text), nil
}

// Close releases the translator
func (s *StubTranslator) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *StubTranslator) wait(ctx context.Context) error {
	if s.config.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(s.config.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StubTranslator) lookup(text string) string {
	code := s.opts.Target.Code()
	if dict, ok := s.config.Dictionary[code]; ok {
		if translated, ok := dict[text]; ok {
			return translated
		}
	}
	return "[" + code + "] " + text
}
