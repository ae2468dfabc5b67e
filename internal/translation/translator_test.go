package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// fakeOpenAI serves the two endpoints the translator uses
type fakeOpenAI struct {
	chatCalls  atomic.Int32
	modelCalls atomic.Int32
	reply      string
	failModel  bool
	lastPrompt atomic.Value
}

func (f *fakeOpenAI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chatCalls.Add(1)

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			f.lastPrompt.Store(req.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": " " + f.reply + "\n"},
			}},
		})
	})
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		f.modelCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if f.failModel {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     strings.TrimPrefix(r.URL.Path, "/v1/models/"),
			"object": "model",
		})
	})
	return mux
}

func newTestTranslator(t *testing.T, fake *fakeOpenAI, store *modelstore.Store) *Translator {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := OpenAIConfig{APIKey: "test-api-key", BaseURL: srv.URL + "/v1"}
	opts, err := NewOptions(catalog.English, catalog.Vietnamese)
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}

	translator, err := NewTranslator(NewOpenAIAPI(cfg), cfg, opts, store)
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}
	return translator
}

func TestNewTranslator(t *testing.T) {
	opts, _ := NewOptions(catalog.English, catalog.Spanish)
	cfg := OpenAIConfig{APIKey: "test-api-key"}

	translator, err := NewTranslator(NewOpenAIAPI(cfg), cfg, opts, nil)
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}

	if translator.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", translator.apiKey)
	}
	if translator.model != DefaultOpenAIModel {
		t.Errorf("Expected default model %s, got %s", DefaultOpenAIModel, translator.model)
	}
	if translator.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestTranslate_NoAPIKey(t *testing.T) {
	opts, _ := NewOptions(catalog.English, catalog.Vietnamese)
	translator, err := NewTranslator(NewOpenAIAPI(OpenAIConfig{}), OpenAIConfig{}, opts, nil)
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}

	_, err = translator.Translate(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
	if err.Error() != "OpenAI API key not found" {
		t.Errorf("Expected 'OpenAI API key not found' error, got: %v", err)
	}
}

func TestTranslate_UsesChatCompletion(t *testing.T) {
	fake := &fakeOpenAI{reply: "xin chào"}
	translator := newTestTranslator(t, fake, nil)

	got, err := translator.Translate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "xin chào" {
		t.Errorf("Expected 'xin chào', got %q", got)
	}

	prompt, _ := fake.lastPrompt.Load().(string)
	if !strings.Contains(prompt, "English text to Vietnamese") || !strings.HasSuffix(prompt, "hello") {
		t.Errorf("Unexpected prompt: %q", prompt)
	}

	// Second call is served from the cache
	if _, err := translator.Translate(context.Background(), "hello"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if calls := fake.chatCalls.Load(); calls != 1 {
		t.Errorf("Expected 1 chat call, got %d", calls)
	}
}

func TestTranslate_EmptyText(t *testing.T) {
	fake := &fakeOpenAI{reply: "unused"}
	translator := newTestTranslator(t, fake, nil)

	got, err := translator.Translate(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty translation, got %q", got)
	}
	if fake.chatCalls.Load() != 0 {
		t.Error("Expected no API call for empty text")
	}
}

func TestTranslate_AfterClose(t *testing.T) {
	translator := newTestTranslator(t, &fakeOpenAI{reply: "x"}, nil)

	if err := translator.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := translator.Translate(context.Background(), "hello"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := translator.DownloadModelIfNeeded(context.Background(), DownloadConditions{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestDownloadModelIfNeeded_RecordsPair(t *testing.T) {
	store, err := modelstore.Open(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	fake := &fakeOpenAI{}
	translator := newTestTranslator(t, fake, store)
	ctx := context.Background()

	if err := translator.DownloadModelIfNeeded(ctx, DownloadConditions{}); err != nil {
		t.Fatalf("DownloadModelIfNeeded failed: %v", err)
	}
	if err := translator.DownloadModelIfNeeded(ctx, DownloadConditions{}); err != nil {
		t.Fatalf("DownloadModelIfNeeded failed: %v", err)
	}

	// The second call is answered by the registry
	if calls := fake.modelCalls.Load(); calls != 1 {
		t.Errorf("Expected 1 model lookup, got %d", calls)
	}

	found, err := store.Has(ctx, modelstore.Key{Engine: "openai", Source: "en", Target: "vi"})
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !found {
		t.Error("Expected pair to be recorded")
	}
}

func TestDownloadModelIfNeeded_ModelMissing(t *testing.T) {
	translator := newTestTranslator(t, &fakeOpenAI{failModel: true}, nil)

	err := translator.DownloadModelIfNeeded(context.Background(), DownloadConditions{})
	if err == nil {
		t.Fatal("Expected error for missing model")
	}
	if !strings.Contains(err.Error(), "unavailable") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestTranslate_Integration(t *testing.T) {
	// Skip if no API key
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	cfg := OpenAIConfig{APIKey: apiKey}
	opts, _ := NewOptions(catalog.English, catalog.Spanish)
	translator, err := NewTranslator(NewOpenAIAPI(cfg), cfg, opts, nil)
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}

	translation, err := translator.Translate(context.Background(), "apple")
	if err != nil {
		t.Errorf("Translate failed: %v", err)
	}
	if translation == "" {
		t.Error("Got empty translation")
	}

	t.Logf("Translation of 'apple': %s", translation)
}
