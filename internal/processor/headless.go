package processor

import (
	"context"
	"fmt"
	"io"

	"codeberg.org/snonux/voxlate/internal/batch"
	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/event"
	"codeberg.org/snonux/voxlate/internal/screen"
	"codeberg.org/snonux/voxlate/internal/session"
)

// console is the View of the text modes. Notices go to stderr, results are
// printed by the caller.
type console struct {
	errOut io.Writer
}

func (c console) ShowRecognized(string) {}

func (c console) ShowTranslated(string) {}

func (c console) Notify(message string) {
	fmt.Fprintln(c.errOut, message)
}

// textInput is the Microphone of the text modes, which never record
type textInput struct{}

func (textInput) Granted() bool { return true }

func (textInput) Request(context.Context) error { return nil }

// headless drives a screen from the calling goroutine. Screen methods run
// on an event.Loop; state changes and outcomes come back over channels.
type headless struct {
	loop     *event.Loop
	screen   *screen.Screen
	started  bool
	states   chan session.State
	outcomes chan screen.Outcome
}

func newHeadless(ctx context.Context, cfg screen.Config, errOut io.Writer) *headless {
	h := &headless{
		loop:     event.NewLoop(64),
		states:   make(chan session.State, 16),
		outcomes: make(chan screen.Outcome, 1),
	}

	cfg.View = console{errOut: errOut}
	cfg.Dispatcher = h.loop
	cfg.OnSessionState = func(state session.State, _ catalog.Language) {
		select {
		case h.states <- state:
		default:
		}
	}
	cfg.OnOutcome = func(o screen.Outcome) {
		select {
		case h.outcomes <- o:
		default:
		}
	}
	h.screen = screen.New(cfg)

	go h.loop.Run(ctx)
	return h
}

// selectTarget configures the session for target and waits until it is
// Ready or Failed
func (h *headless) selectTarget(ctx context.Context, target catalog.Language) error {
	for len(h.states) > 0 {
		<-h.states
	}

	var state session.State
	var err error
	ran := h.loop.Call(func() {
		if h.started {
			err = h.screen.Select(target)
		} else {
			h.started = true
			err = h.screen.Start(target)
		}
		state = h.screen.SessionState()
	})
	if !ran {
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	for state == session.StateConfiguring {
		select {
		case state = <-h.states:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if state != session.StateReady {
		return fmt.Errorf("%s: %w", target.Name(), session.ErrFailed)
	}
	return nil
}

// translate sends text through the pipeline and waits for its outcome
func (h *headless) translate(ctx context.Context, text string) (string, error) {
	if !h.loop.Call(func() { h.screen.Translate(text) }) {
		return "", ctx.Err()
	}

	select {
	case o := <-h.outcomes:
		if o.Err != nil {
			return "", o.Err
		}
		return o.Translated, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *headless) close() {
	h.loop.Call(h.screen.Destroy)
	h.loop.Stop()
}

func (p *Processor) newHeadless(ctx context.Context) (*headless, error) {
	factory, err := p.translationFactory(ctx)
	if err != nil {
		return nil, err
	}
	return newHeadless(ctx, p.screenConfig(factory, textInput{}), p.errOut), nil
}

// ProcessText translates a single phrase into the default language and
// prints the translation
func (p *Processor) ProcessText(ctx context.Context, text string) error {
	target, err := p.initialTarget()
	if err != nil {
		return err
	}

	h, err := p.newHeadless(ctx)
	if err != nil {
		return err
	}
	defer h.close()

	if err := h.selectTarget(ctx, target); err != nil {
		return err
	}

	translated, err := h.translate(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to translate %q: %w", text, err)
	}

	fmt.Fprintln(p.out, translated)
	return nil
}

// ProcessBatch translates every phrase of the batch file in order. Failed
// lines are reported and processing continues.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	def, err := p.initialTarget()
	if err != nil {
		return err
	}

	h, err := p.newHeadless(ctx)
	if err != nil {
		return err
	}
	defer h.close()

	translatedCount := 0
	errorCount := 0

	for i, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		target, err := entry.Target(def)
		if err != nil {
			fmt.Fprintf(p.errOut, "Error: %v\n", err)
			errorCount++
			continue
		}

		if err := h.selectTarget(ctx, target); err != nil {
			fmt.Fprintf(p.errOut, "Error on line %d: %v\n", entry.Line, err)
			errorCount++
			continue
		}

		translated, err := h.translate(ctx, entry.Text)
		if err != nil {
			fmt.Fprintf(p.errOut, "Error translating '%s' on line %d: %v\n", entry.Text, entry.Line, err)
			errorCount++
			continue
		}

		fmt.Fprintf(p.out, "%d/%d [%s] %s = %s\n", i+1, len(entries), target.Code(), entry.Text, translated)
		translatedCount++
	}

	fmt.Fprintf(p.out, "\n=== Batch Translation Summary ===\n")
	fmt.Fprintf(p.out, "Total phrases: %d\n", len(entries))
	fmt.Fprintf(p.out, "Translated: %d\n", translatedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "=================================\n")

	return nil
}
