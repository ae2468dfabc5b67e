package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

func modelKey(target string) modelstore.Key {
	return modelstore.Key{Engine: "test", Source: "en", Target: target}
}

func TestStubTranslator_Dictionary(t *testing.T) {
	cfg := DefaultStubConfig()
	cfg.Delay = 0

	tests := []struct {
		target catalog.Language
		text   string
		want   string
	}{
		{catalog.Vietnamese, "hello", "xin chào"},
		{catalog.Spanish, "thank you", "gracias"},
		{catalog.German, "good night", "gute Nacht"},
		{catalog.French, "unknown phrase", "[fr] unknown phrase"},
	}

	for _, tt := range tests {
		t.Run(tt.target.Code()+"/"+tt.text, func(t *testing.T) {
			opts, _ := NewOptions(catalog.English, tt.target)
			stub, err := NewStubTranslator(cfg, opts)
			if err != nil {
				t.Fatalf("NewStubTranslator failed: %v", err)
			}

			got, err := stub.Translate(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Translate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Translate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestStubTranslator_ContextCancel(t *testing.T) {
	opts, _ := NewOptions(catalog.English, catalog.Japanese)
	stub, _ := NewStubTranslator(StubConfig{Delay: time.Hour}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := stub.Translate(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestStubTranslator_Close(t *testing.T) {
	opts, _ := NewOptions(catalog.English, catalog.Spanish)
	stub, _ := NewStubTranslator(StubConfig{}, opts)

	if err := stub.DownloadModelIfNeeded(context.Background(), DownloadConditions{}); err != nil {
		t.Fatalf("DownloadModelIfNeeded failed: %v", err)
	}

	_ = stub.Close()
	if _, err := stub.Translate(context.Background(), "hello"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
