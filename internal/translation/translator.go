package translation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// DefaultOpenAIModel is the chat model used for translation
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIConfig configures the OpenAI engine
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for compatible endpoints and tests
}

// NewOpenAIAPI creates the API client shared by all OpenAI translators of
// one factory
func NewOpenAIAPI(cfg OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Translator handles translation through an OpenAI chat model
type Translator struct {
	apiKey string
	model  string
	client *openai.Client
	opts   Options
	store  *modelstore.Store
	cache  *TranslationCache
	closed atomic.Bool
}

// NewTranslator creates a new translator instance for opts
func NewTranslator(client *openai.Client, cfg OpenAIConfig, opts Options, store *modelstore.Store) (*Translator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &Translator{
		apiKey: cfg.APIKey,
		model:  model,
		client: client,
		opts:   opts,
		store:  store,
		cache:  NewTranslationCache(),
	}, nil
}

// DownloadModelIfNeeded checks that the chat model is reachable with the
// configured key and records the language pair
func (t *Translator) DownloadModelIfNeeded(ctx context.Context, conditions DownloadConditions) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if t.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found")
	}

	key := modelstore.Key{Engine: "openai", Source: t.opts.Source.Code(), Target: t.opts.Target.Code()}
	return ensureModel(ctx, t.store, key, t.model, conditions, func(ctx context.Context) error {
		if _, err := t.client.GetModel(ctx, t.model); err != nil {
			return fmt.Errorf("OpenAI API error: %w", err)
		}
		return nil
	})
}

// Translate translates text to the target language
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if t.closed.Load() {
		return "", ErrClosed
	}
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if cached, ok := t.cache.Get(text); ok {
		return cached, nil
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(t.opts, text),
			},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	t.cache.Add(text, translation)
	return translation, nil
}

// Close releases the translator
func (t *Translator) Close() error {
	t.closed.Store(true)
	return nil
}
