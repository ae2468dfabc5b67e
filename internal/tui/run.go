package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/snonux/voxlate/internal/event"
)

// programDispatcher hands functions to the bubbletea program as messages.
// Program.Send blocks until the event loop receives the message, so sends
// go through an event.Loop to keep Do non-blocking and ordered.
type programDispatcher struct {
	loop    *event.Loop
	program *tea.Program
}

// Do implements event.Dispatcher
func (d *programDispatcher) Do(fn func()) {
	d.loop.Do(func() {
		d.program.Send(dispatchMsg(fn))
	})
}

// Run shows the terminal screen until the user quits or ctx ends
func Run(ctx context.Context, cfg Config) error {
	d := &programDispatcher{loop: event.NewLoop(256)}
	m := NewModel(cfg, d)

	d.program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go d.loop.Run(loopCtx)

	_, err := d.program.Run()

	// The event loop has ended, nothing touches the model concurrently
	m.shutdown()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal screen failed: %w", err)
	}
	return nil
}
