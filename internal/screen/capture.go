package screen

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/speech"
)

// Launcher starts a recognition and reports its outcome once on the UI
// thread. *speech.Launcher implements it.
type Launcher interface {
	Launch(ctx context.Context, code int, req speech.Request, onResult speech.ResultHandler) error
}

// CaptureFlow launches the recognizer and forwards the best transcript
type CaptureFlow struct {
	launcher Launcher
	view     View
	pipeline *Pipeline
	reporter Reporter
	logger   *zap.SugaredLogger
}

// CaptureRequest is the recognition request sent for every capture
func CaptureRequest() speech.Request {
	return speech.Request{
		LanguageModel: speech.LanguageModelFreeForm,
		Language:      "en",
		Prompt:        SpeechPrompt,
	}
}

// Start launches a recognition. A launch that cannot start is reported to
// the user.
func (c *CaptureFlow) Start(ctx context.Context) {
	if c.launcher == nil {
		c.view.Notify(MsgSpeechUnsupported)
		return
	}

	if err := c.launcher.Launch(ctx, RequestSpeech, CaptureRequest(), c.OnResult); err != nil {
		c.logger.Warnw("speech recognition unavailable", "error", err)
		c.view.Notify(MsgSpeechUnsupported)
	}
}

// OnResult handles a recognition outcome for RequestSpeech. A failed
// recognition is reported to the user; a canceled one or an empty result is
// dropped.
func (c *CaptureFlow) OnResult(code int, status speech.Status, result *speech.Result, err error) {
	if code != RequestSpeech {
		c.logger.Debugw("ignoring result of foreign request", "code", code, "status", status)
		return
	}

	switch status {
	case speech.StatusOK:
	case speech.StatusError:
		if err == nil {
			err = speech.ErrRecognizerUnavailable
		}
		c.reporter.Capture(fmt.Errorf("%w: %w", ErrRecognitionFailed, err))
		c.view.Notify(MsgRecognition + err.Error())
		return
	default:
		c.logger.Debugw("ignoring recognition result", "status", status)
		return
	}

	text, ok := result.Best()
	if !ok {
		// Empty results are dropped without telling the user
		c.logger.Debugw("recognition returned no transcripts")
		return
	}

	c.view.ShowRecognized(text)
	c.pipeline.Translate(text)
}
