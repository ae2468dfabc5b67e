package translation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"google.golang.org/genai"

	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// DefaultGeminiModel is the Gemini model used for translation
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini engine
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for tests
}

// NewGeminiAPI creates the genai client shared by all Gemini translators of
// one factory
func NewGeminiAPI(ctx context.Context, cfg GeminiConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiTranslator translates through a Gemini model
type GeminiTranslator struct {
	client *genai.Client
	model  string
	opts   Options
	store  *modelstore.Store
	cache  *TranslationCache
	closed atomic.Bool
}

// NewGeminiTranslator creates a Gemini translator for opts
func NewGeminiTranslator(client *genai.Client, cfg GeminiConfig, opts Options, store *modelstore.Store) (*GeminiTranslator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiTranslator{
		client: client,
		model:  model,
		opts:   opts,
		store:  store,
		cache:  NewTranslationCache(),
	}, nil
}

// DownloadModelIfNeeded checks that the Gemini model exists and records
// the language pair
func (g *GeminiTranslator) DownloadModelIfNeeded(ctx context.Context, conditions DownloadConditions) error {
	if g.closed.Load() {
		return ErrClosed
	}

	key := modelstore.Key{Engine: "gemini", Source: g.opts.Source.Code(), Target: g.opts.Target.Code()}
	return ensureModel(ctx, g.store, key, g.model, conditions, func(ctx context.Context) error {
		if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
			return fmt.Errorf("Gemini API error: %w", err)
		}
		return nil
	})
}

// Translate translates text to the target language
func (g *GeminiTranslator) Translate(ctx context.Context, text string) (string, error) {
	if g.closed.Load() {
		return "", ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if cached, ok := g.cache.Get(text); ok {
		return cached, nil
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: 1024,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(g.opts, text)), config)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	translation := strings.TrimSpace(resp.Text())
	if translation == "" {
		return "", fmt.Errorf("no translation returned")
	}

	g.cache.Add(text, translation)
	return translation, nil
}

// Close releases the translator
func (g *GeminiTranslator) Close() error {
	g.closed.Store(true)
	return nil
}
