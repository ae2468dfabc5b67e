package audio

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Probe checks microphone access by opening the input device. On macOS the
// first open raises the system permission prompt.
type Probe struct {
	open    SourceOpener
	granted atomic.Bool
}

// NewProbe creates a probe that opens sources through open
func NewProbe(open SourceOpener) *Probe {
	return &Probe{open: open}
}

// Granted reports whether a previous Request succeeded
func (p *Probe) Granted() bool {
	return p.granted.Load()
}

// Request opens and starts the input stream once. A nil error means the
// microphone can be recorded from.
func (p *Probe) Request(ctx context.Context) error {
	source, err := p.open()
	if err != nil {
		return fmt.Errorf("microphone unavailable: %w", err)
	}
	defer source.Close()

	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := source.Start(startCtx); err != nil {
		return fmt.Errorf("microphone access denied: %w", err)
	}

	p.granted.Store(true)
	return nil
}
