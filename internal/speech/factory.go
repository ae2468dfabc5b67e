package speech

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Engine names accepted by NewRecognizer
const (
	EngineWhisper  = "whisper"
	EngineDeepgram = "deepgram"
	EngineStub     = "stub"
)

// Config selects and configures the recognizer
type Config struct {
	Engine   string
	Fallback string // optional engine used when Engine fails
	Whisper  WhisperConfig
	Deepgram DeepgramConfig

	StubTranscripts []string
	StubDelay       time.Duration
}

// NewRecognizer creates the recognizer for cfg.Engine, wrapped with the
// fallback engine if one is configured
func NewRecognizer(cfg Config, source AudioSource, logger *zap.SugaredLogger) (Recognizer, error) {
	primary, err := newEngine(cfg.Engine, cfg, source)
	if err != nil {
		return nil, err
	}

	if cfg.Fallback == "" || strings.EqualFold(cfg.Fallback, cfg.Engine) {
		return primary, nil
	}

	fallback, err := newEngine(cfg.Fallback, cfg, source)
	if err != nil {
		return nil, fmt.Errorf("fallback recognizer: %w", err)
	}
	return NewFallbackRecognizer(primary, fallback, logger), nil
}

func newEngine(name string, cfg Config, source AudioSource) (Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineWhisper:
		return NewWhisperRecognizer(cfg.Whisper, source), nil
	case EngineDeepgram:
		return NewDeepgramRecognizer(cfg.Deepgram, source), nil
	case EngineStub:
		transcripts := cfg.StubTranscripts
		if len(transcripts) == 0 {
			transcripts = DefaultStubTranscripts()
		}
		return NewStubRecognizer(cfg.StubDelay, transcripts...), nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q (supported: %s, %s, %s)", name, EngineWhisper, EngineDeepgram, EngineStub)
	}
}
