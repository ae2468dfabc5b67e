package screen

import (
	"context"

	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/event"
)

// PermissionGate asks for microphone access without blocking the screen.
// A denial is reported once and nothing else is disabled.
type PermissionGate struct {
	mic        Microphone
	dispatcher event.Dispatcher
	view       View
	logger     *zap.SugaredLogger
}

// Ensure requests access unless it is already granted. The decision is
// delivered to OnResult on the UI thread.
func (g *PermissionGate) Ensure(ctx context.Context) {
	if g.mic == nil {
		g.OnResult(RequestRecordAudio, false)
		return
	}
	if g.mic.Granted() {
		return
	}

	go func() {
		err := g.mic.Request(ctx)
		if err != nil {
			g.logger.Warnw("microphone access denied", "error", err)
		}
		g.dispatcher.Do(func() {
			g.OnResult(RequestRecordAudio, err == nil)
		})
	}()
}

// OnResult handles the access decision for request code
func (g *PermissionGate) OnResult(code int, granted bool) {
	if code != RequestRecordAudio {
		return
	}
	if granted {
		g.logger.Debugw("microphone access granted")
		return
	}

	g.logger.Infow("microphone unavailable, capture may fail", "error", ErrPermissionDenied)
	g.view.Notify(MsgPermissionDenied)
}
