package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// ErrClosed is returned by calls on a released client
var ErrClosed = errors.New("translator client is closed")

// Options selects the language pair of a client
type Options struct {
	Source catalog.Language
	Target catalog.Language
}

// NewOptions builds options for source -> target, rejecting targets that
// are not in the catalog
func NewOptions(source, target catalog.Language) (Options, error) {
	opts := Options{Source: source, Target: target}
	return opts, opts.Validate()
}

// Validate checks the pair
func (o Options) Validate() error {
	if o.Source.IsZero() {
		return fmt.Errorf("source language is required")
	}
	if !o.Target.IsTarget() {
		return fmt.Errorf("target %v: %w", o.Target, catalog.ErrNotFound)
	}
	if o.Source == o.Target {
		return fmt.Errorf("source and target are both %v", o.Source)
	}
	return nil
}

func (o Options) String() string {
	return o.Source.Code() + ">" + o.Target.Code()
}

// DownloadConditions constrains DownloadModelIfNeeded
type DownloadConditions struct {
	// Timeout bounds the model check or download; zero means no bound
	Timeout time.Duration
}

// Client translates text for one language pair
type Client interface {
	// DownloadModelIfNeeded makes sure the model for the pair is available.
	// It returns nil immediately if the model is already present.
	DownloadModelIfNeeded(ctx context.Context, conditions DownloadConditions) error

	// Translate translates text from the source to the target language
	Translate(ctx context.Context, text string) (string, error)

	// Close releases the client. Further calls fail with ErrClosed.
	Close() error
}

// Factory creates clients for language pairs
type Factory interface {
	NewClient(opts Options) (Client, error)

	// Engine returns the engine name, e.g. "openai"
	Engine() string
}

// FactoryFunc adapts a function to a Factory
type FactoryFunc func(opts Options) (Client, error)

// NewClient calls f(opts)
func (f FactoryFunc) NewClient(opts Options) (Client, error) {
	return f(opts)
}

// Engine returns "custom"
func (f FactoryFunc) Engine() string {
	return "custom"
}

// buildPrompt returns the instruction sent to chat based engines
func buildPrompt(opts Options, text string) string {
	return fmt.Sprintf("Translate the following %s text to %s. Respond with only the %s translation, nothing else.\n\n%s",
		opts.Source.Name(), opts.Target.Name(), opts.Target.Name(), text)
}

// ensureModel is the shared DownloadModelIfNeeded logic: consult the
// registry, verify with the engine on a miss, then record the pair
func ensureModel(ctx context.Context, store *modelstore.Store, key modelstore.Key, model string,
	conditions DownloadConditions, verify func(ctx context.Context) error) error {
	if conditions.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conditions.Timeout)
		defer cancel()
	}

	if store != nil {
		// A failing lookup is treated as a miss
		if found, err := store.Has(ctx, key); err == nil && found {
			return nil
		}
	}

	if err := verify(ctx); err != nil {
		return fmt.Errorf("model %s for %s>%s unavailable: %w", model, key.Source, key.Target, err)
	}

	if store != nil {
		if err := store.Record(ctx, key, model); err != nil {
			return err
		}
	}
	return nil
}
