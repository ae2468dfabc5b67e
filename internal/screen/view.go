// Package screen is the speak-and-translate screen without a toolkit: the
// permission gate, the speech capture flow, the translation pipeline and
// the session manager wired to a View. Frontends (fyne, bubbletea, the
// headless CLI) implement View and a Dispatcher and forward user actions
// to a Screen. Every Screen method must be called on the dispatcher's
// thread.
package screen

import (
	"context"
	"errors"

	"codeberg.org/snonux/voxlate/internal/session"
)

// View displays the screen state
type View interface {
	// ShowRecognized replaces the recognized text
	ShowRecognized(text string)
	// ShowTranslated replaces the translated text
	ShowTranslated(text string)
	// Notify shows a short-lived message
	Notify(message string)
}

// Microphone checks and requests microphone access. *audio.Probe
// implements it.
type Microphone interface {
	Granted() bool
	Request(ctx context.Context) error
}

// Reporter receives user-visible failures, e.g. for sentry
type Reporter interface {
	Capture(err error)
}

// Request codes correlating asynchronous results with their requests
const (
	RequestRecordAudio = 200
	RequestSpeech      = 201
)

// Messages shown to the user
const (
	MsgPermissionDenied  = "Record audio permission denied"
	MsgSpeechUnsupported = "Speech to text not supported"
	MsgModelDownload     = session.MsgModelDownload
	MsgTranslation       = "Translation failed: "
	MsgRecognition       = "Speech recognition failed: "
	SpeechPrompt         = "Speak now..."
)

var (
	// ErrPermissionDenied is reported when microphone access is refused
	ErrPermissionDenied = errors.New("record audio permission denied")

	// ErrRecognitionFailed wraps failures of a launched recognition
	ErrRecognitionFailed = errors.New("speech recognition failed")

	// ErrTranslationFailed wraps failures of the translation pipeline
	ErrTranslationFailed = errors.New("translation failed")
)

// guardedView drops all output once the screen is destroyed
type guardedView struct {
	view      View
	destroyed *bool
}

func (g guardedView) ShowRecognized(text string) {
	if !*g.destroyed {
		g.view.ShowRecognized(text)
	}
}

func (g guardedView) ShowTranslated(text string) {
	if !*g.destroyed {
		g.view.ShowTranslated(text)
	}
}

func (g guardedView) Notify(message string) {
	if !*g.destroyed {
		g.view.Notify(message)
	}
}

type nopReporter struct{}

func (nopReporter) Capture(error) {}
