package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// Engine names accepted by NewFactory
const (
	EngineOpenAI = "openai"
	EngineGemini = "gemini"
	EngineStub   = "stub"
)

// Engines lists the supported engine names
func Engines() []string {
	return []string{EngineOpenAI, EngineGemini, EngineStub}
}

// Config holds the configuration for all translation engines
type Config struct {
	Engine  string
	OpenAI  OpenAIConfig
	Gemini  GeminiConfig
	Stub    StubConfig
	Breaker BreakerConfig
	// Store records verified language pairs, may be nil
	Store *modelstore.Store
}

// engineFactory builds clients of one engine. The API clients and the
// breaker are shared by all clients it creates.
type engineFactory struct {
	engine  string
	cfg     Config
	openai  *openai.Client
	gemini  *genai.Client
	breaker *gobreaker.CircuitBreaker
}

// NewFactory creates the factory for cfg.Engine
func NewFactory(ctx context.Context, cfg Config) (Factory, error) {
	engine := strings.ToLower(strings.TrimSpace(cfg.Engine))
	if engine == "" {
		engine = EngineOpenAI
	}

	f := &engineFactory{engine: engine, cfg: cfg}

	switch engine {
	case EngineOpenAI:
		f.openai = NewOpenAIAPI(cfg.OpenAI)
		f.breaker = NewBreaker("translation-openai", cfg.Breaker)
	case EngineGemini:
		client, err := NewGeminiAPI(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		f.gemini = client
		f.breaker = NewBreaker("translation-gemini", cfg.Breaker)
	case EngineStub:
	default:
		return nil, fmt.Errorf("unknown translation engine %q (supported: %s)", cfg.Engine, strings.Join(Engines(), ", "))
	}

	return f, nil
}

// NewClient creates a client for opts
func (f *engineFactory) NewClient(opts Options) (Client, error) {
	switch f.engine {
	case EngineOpenAI:
		t, err := NewTranslator(f.openai, f.cfg.OpenAI, opts, f.cfg.Store)
		if err != nil {
			return nil, err
		}
		return WithBreaker(t, f.breaker), nil
	case EngineGemini:
		t, err := NewGeminiTranslator(f.gemini, f.cfg.Gemini, opts, f.cfg.Store)
		if err != nil {
			return nil, err
		}
		return WithBreaker(t, f.breaker), nil
	default:
		return NewStubTranslator(f.cfg.Stub, opts)
	}
}

// Engine returns the engine name
func (f *engineFactory) Engine() string {
	return f.engine
}
