package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/snonux/voxlate/internal/audio"
)

func TestWhisperRecognizer_IsAvailable(t *testing.T) {
	if err := NewWhisperRecognizer(WhisperConfig{}, &fakeSource{}).IsAvailable(); err == nil {
		t.Error("Expected error without API key")
	}
	if err := NewWhisperRecognizer(WhisperConfig{APIKey: "k"}, nil).IsAvailable(); err == nil {
		t.Error("Expected error without audio source")
	}
	if err := NewWhisperRecognizer(WhisperConfig{APIKey: "k"}, &fakeSource{}).IsAvailable(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestWhisperRecognizer_Recognize(t *testing.T) {
	var gotLanguage, gotModel, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFile = header.Filename
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  hello there \n"})
	}))
	defer srv.Close()

	source := &fakeSource{samples: make([]float32, 1600)}
	w := NewWhisperRecognizer(WhisperConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, source)

	result, err := w.Recognize(context.Background(), Request{LanguageModel: LanguageModelFreeForm, Language: "en"})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if got, _ := result.Best(); got != "hello there" {
		t.Errorf("Expected 'hello there', got %q", got)
	}
	if gotLanguage != "en" {
		t.Errorf("Expected language 'en', got %q", gotLanguage)
	}
	if gotModel != "whisper-1" {
		t.Errorf("Expected model 'whisper-1', got %q", gotModel)
	}
	if !strings.HasSuffix(gotFile, ".wav") {
		t.Errorf("Expected a .wav upload, got %q", gotFile)
	}
}

func TestWhisperRecognizer_EmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "   "}`))
	}))
	defer srv.Close()

	w := NewWhisperRecognizer(WhisperConfig{APIKey: "k", BaseURL: srv.URL + "/v1"}, &fakeSource{samples: make([]float32, 160)})

	result, err := w.Recognize(context.Background(), Request{Language: "en"})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(result.Transcripts) != 0 {
		t.Errorf("Expected no transcripts, got %v", result.Transcripts)
	}
}

func TestWhisperRecognizer_NoSpeech(t *testing.T) {
	w := NewWhisperRecognizer(WhisperConfig{APIKey: "k"}, &fakeSource{err: audio.ErrNoSpeech})

	_, err := w.Recognize(context.Background(), Request{Language: "en"})
	if !errors.Is(err, audio.ErrNoSpeech) {
		t.Errorf("Expected ErrNoSpeech, got %v", err)
	}
	if statusOf(err) != StatusCanceled {
		t.Errorf("Expected silence to map to StatusCanceled")
	}
}
