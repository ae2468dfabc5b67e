package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return NewListerWithBaseURL(apiKey, "")
}

// NewListerWithBaseURL creates a lister talking to a compatible endpoint
func NewListerWithBaseURL(apiKey, baseURL string) *Lister {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Catalog holds model IDs grouped by what voxlate uses them for
type Catalog struct {
	Speech []string
	Chat   []string
}

// Fetch retrieves and categorizes the models available to the key
func (l *Lister) Fetch(ctx context.Context) (*Catalog, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .voxlate.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	c := &Catalog{}
	for _, model := range models.Models {
		id := model.ID
		switch {
		case strings.Contains(id, "whisper") || strings.Contains(id, "transcribe"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(id, "tts") || strings.Contains(id, "audio") || strings.Contains(id, "realtime"):
			// speech output and realtime models are not usable here
		case strings.Contains(id, "gpt") || strings.Contains(id, "chat"):
			c.Chat = append(c.Chat, id)
		}
	}

	sort.Strings(c.Speech)
	sort.Strings(c.Chat)
	return c, nil
}

// ListAvailableModels writes the speech and chat models available to the key
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	c, err := l.Fetch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available OpenAI Models:")
	fmt.Fprintln(w, "\nSpeech Recognition Models (--whisper-model):")
	if len(c.Speech) == 0 {
		fmt.Fprintln(w, "  No speech recognition models found")
	} else {
		for _, model := range c.Speech {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}

	fmt.Fprintln(w, "\nChat/Translation Models (--chat-model):")
	if len(c.Chat) > 10 {
		// Show only the commonly used families
		relevant := []string{}
		for _, model := range c.Chat {
			if strings.Contains(model, "gpt-4") || strings.Contains(model, "gpt-3.5") {
				relevant = append(relevant, model)
			}
		}
		for _, model := range relevant {
			fmt.Fprintf(w, "  %s\n", model)
		}
		fmt.Fprintf(w, "  ... and %d more models\n", len(c.Chat)-len(relevant))
	} else if len(c.Chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
	} else {
		for _, model := range c.Chat {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}

	return nil
}
