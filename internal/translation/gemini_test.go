package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// fakeGemini serves the model lookup and generateContent endpoints
type fakeGemini struct {
	generateCalls atomic.Int32
	modelCalls    atomic.Int32
	reply         string
	failModel     bool
	lastPrompt    atomic.Value
}

func (f *fakeGemini) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			f.generateCalls.Add(1)

			var req struct {
				Contents []struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"contents"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
				f.lastPrompt.Store(req.Contents[0].Parts[0].Text)
			}

			candidates := []map[string]any{}
			if f.reply != "" {
				candidates = append(candidates, map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]string{{"text": f.reply + "\n"}},
					},
					"finishReason": "STOP",
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"candidates": candidates})

		case strings.Contains(r.URL.Path, "/models/"):
			f.modelCalls.Add(1)
			if f.failModel {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`))
				return
			}
			name := r.URL.Path[strings.Index(r.URL.Path, "/models/")+1:]
			_ = json.NewEncoder(w).Encode(map[string]any{"name": name})

		default:
			http.NotFound(w, r)
		}
	})
}

func newTestGemini(t *testing.T, fake *fakeGemini, store *modelstore.Store) *GeminiTranslator {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := GeminiConfig{APIKey: "test-api-key", BaseURL: srv.URL}
	api, err := NewGeminiAPI(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewGeminiAPI failed: %v", err)
	}

	opts, err := NewOptions(catalog.English, catalog.Japanese)
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}

	translator, err := NewGeminiTranslator(api, cfg, opts, store)
	if err != nil {
		t.Fatalf("NewGeminiTranslator failed: %v", err)
	}
	return translator
}

func TestNewGeminiAPI_NoAPIKey(t *testing.T) {
	if _, err := NewGeminiAPI(context.Background(), GeminiConfig{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestNewGeminiTranslator_DefaultModel(t *testing.T) {
	translator := newTestGemini(t, &fakeGemini{}, nil)
	if translator.model != DefaultGeminiModel {
		t.Errorf("Expected model %s, got %s", DefaultGeminiModel, translator.model)
	}
}

func TestGeminiTranslate(t *testing.T) {
	fake := &fakeGemini{reply: "おはようございます"}
	translator := newTestGemini(t, fake, nil)
	ctx := context.Background()

	got, err := translator.Translate(ctx, "good morning")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "おはようございます" {
		t.Errorf("Expected trimmed reply, got %q", got)
	}

	prompt, _ := fake.lastPrompt.Load().(string)
	if !strings.Contains(prompt, "Japanese") || !strings.Contains(prompt, "good morning") {
		t.Errorf("Unexpected prompt %q", prompt)
	}

	// Repeated text is served from the cache
	if _, err := translator.Translate(ctx, "good morning"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if calls := fake.generateCalls.Load(); calls != 1 {
		t.Errorf("Expected 1 generateContent call, got %d", calls)
	}
}

func TestGeminiTranslate_EmptyText(t *testing.T) {
	fake := &fakeGemini{reply: "unused"}
	translator := newTestGemini(t, fake, nil)

	got, err := translator.Translate(context.Background(), "   ")
	if err != nil || got != "" {
		t.Errorf("Expected empty result, got %q, %v", got, err)
	}
	if fake.generateCalls.Load() != 0 {
		t.Error("Blank text must not reach the API")
	}
}

func TestGeminiTranslate_EmptyResponse(t *testing.T) {
	translator := newTestGemini(t, &fakeGemini{}, nil)

	_, err := translator.Translate(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "no translation returned") {
		t.Errorf("Expected empty response error, got %v", err)
	}
}

func TestGeminiTranslator_AfterClose(t *testing.T) {
	fake := &fakeGemini{reply: "こんにちは"}
	translator := newTestGemini(t, fake, nil)

	if err := translator.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := translator.Translate(context.Background(), "hello"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Translate, got %v", err)
	}
	if err := translator.DownloadModelIfNeeded(context.Background(), DownloadConditions{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from DownloadModelIfNeeded, got %v", err)
	}
	if fake.generateCalls.Load() != 0 || fake.modelCalls.Load() != 0 {
		t.Error("A closed translator must not call the API")
	}
}

func TestGeminiDownloadModelIfNeeded_RecordsPair(t *testing.T) {
	store, err := modelstore.Open(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	fake := &fakeGemini{}
	translator := newTestGemini(t, fake, store)
	ctx := context.Background()

	for range 2 {
		if err := translator.DownloadModelIfNeeded(ctx, DownloadConditions{}); err != nil {
			t.Fatalf("DownloadModelIfNeeded failed: %v", err)
		}
	}

	// The second call is answered by the registry
	if calls := fake.modelCalls.Load(); calls != 1 {
		t.Errorf("Expected 1 model lookup, got %d", calls)
	}

	found, err := store.Has(ctx, modelstore.Key{Engine: "gemini", Source: "en", Target: "ja"})
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !found {
		t.Error("Expected pair to be recorded")
	}
}

func TestGeminiDownloadModelIfNeeded_ModelMissing(t *testing.T) {
	store, err := modelstore.Open(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	translator := newTestGemini(t, &fakeGemini{failModel: true}, store)
	ctx := context.Background()

	if err := translator.DownloadModelIfNeeded(ctx, DownloadConditions{}); err == nil {
		t.Fatal("Expected error for missing model")
	}

	found, err := store.Has(ctx, modelstore.Key{Engine: "gemini", Source: "en", Target: "ja"})
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if found {
		t.Error("A failed check must not record the pair")
	}
}
