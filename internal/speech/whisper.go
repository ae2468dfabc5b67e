package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/voxlate/internal"
)

// WhisperConfig configures the OpenAI transcription recognizer
type WhisperConfig struct {
	APIKey  string
	Model   string // defaults to whisper-1
	BaseURL string // optional, for compatible endpoints and tests
}

// WhisperRecognizer records an utterance and transcribes it with the
// OpenAI transcription endpoint
type WhisperRecognizer struct {
	apiKey string
	model  string
	client *openai.Client
	source AudioSource
}

// NewWhisperRecognizer creates a Whisper recognizer recording from source
func NewWhisperRecognizer(cfg WhisperConfig, source AudioSource) *WhisperRecognizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &WhisperRecognizer{
		apiKey: cfg.APIKey,
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
		source: source,
	}
}

// Recognize records one utterance and returns its transcript
func (w *WhisperRecognizer) Recognize(ctx context.Context, req Request) (*Result, error) {
	rec, err := w.source.Record(ctx)
	if err != nil {
		return nil, err
	}

	data, err := rec.WAV()
	if err != nil {
		return nil, err
	}

	return w.Transcribe(ctx, req, data)
}

// Transcribe sends WAV data to the transcription endpoint
func (w *WhisperRecognizer) Transcribe(ctx context.Context, req Request, wav []byte) (*Result, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: internal.SanitizeFilename("utterance_"+req.Language) + ".wav",
		Reader:   bytes.NewReader(wav),
		Language: req.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI transcription error: %w", err)
	}

	result := &Result{}
	if text := strings.TrimSpace(resp.Text); text != "" {
		result.Transcripts = []string{text}
	}
	return result, nil
}

// Name returns the recognizer name
func (w *WhisperRecognizer) Name() string {
	return "whisper"
}

// IsAvailable checks that an API key and an audio source are configured
func (w *WhisperRecognizer) IsAvailable() error {
	if w.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found")
	}
	if w.source == nil {
		return fmt.Errorf("no audio source")
	}
	return nil
}
