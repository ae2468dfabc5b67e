package translation

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig configures the circuit breaker around remote engines
type BreakerConfig struct {
	// Failures is the number of consecutive failures that opens the breaker
	Failures uint32
	// Cooldown is how long the breaker stays open before a trial request
	Cooldown time.Duration
	// OnStateChange is called on every transition, may be nil
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the defaults used by the CLI
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Failures: 3,
		Cooldown: 30 * time.Second,
	}
}

// NewBreaker creates a circuit breaker named after the engine
func NewBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	failures := cfg.Failures
	if failures == 0 {
		failures = DefaultBreakerConfig().Failures
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Cancellation is the caller going away, not the engine failing
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: cfg.OnStateChange,
	})
}

// breakerClient routes every remote call of a client through a breaker
type breakerClient struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
}

// WithBreaker wraps client so that its remote calls go through breaker
func WithBreaker(client Client, breaker *gobreaker.CircuitBreaker) Client {
	if breaker == nil {
		return client
	}
	return &breakerClient{client: client, breaker: breaker}
}

func (b *breakerClient) DownloadModelIfNeeded(ctx context.Context, conditions DownloadConditions) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.DownloadModelIfNeeded(ctx, conditions)
	})
	return err
}

func (b *breakerClient) Translate(ctx context.Context, text string) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.client.Translate(ctx, text)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (b *breakerClient) Close() error {
	return b.client.Close()
}
