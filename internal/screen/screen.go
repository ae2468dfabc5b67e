package screen

import (
	"context"

	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/event"
	"codeberg.org/snonux/voxlate/internal/session"
	"codeberg.org/snonux/voxlate/internal/speech"
	"codeberg.org/snonux/voxlate/internal/translation"
)

// Config holds the collaborators of a Screen
type Config struct {
	View       View
	Dispatcher event.Dispatcher
	Microphone Microphone
	Launcher   Launcher
	Factory    translation.Factory
	Logger     *zap.SugaredLogger
	Reporter   Reporter // optional

	// Conditions are passed to every model check
	Conditions translation.DownloadConditions

	// OnSessionState is called on the UI thread after every session
	// transition, may be nil
	OnSessionState func(state session.State, target catalog.Language)

	// OnOutcome is called on the UI thread after every translation
	// request, may be nil
	OnOutcome func(Outcome)
}

// Screen is the speak-and-translate screen
type Screen struct {
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *zap.SugaredLogger
	destroyed bool
	started   bool
	view      View

	gate     *PermissionGate
	capture  *CaptureFlow
	pipeline *Pipeline
	sessions *session.Manager
}

// New wires a screen. Nothing happens until Start.
func New(cfg Config) *Screen {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	var reporter Reporter = nopReporter{}
	if cfg.Reporter != nil {
		reporter = cfg.Reporter
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Screen{ctx: ctx, cancel: cancel, logger: logger}
	view := guardedView{view: cfg.View, destroyed: &s.destroyed}
	s.view = view

	s.sessions = session.NewManager(session.Config{
		Factory:       cfg.Factory,
		Dispatcher:    cfg.Dispatcher,
		Logger:        logger,
		Conditions:    cfg.Conditions,
		Notify:        view.Notify,
		OnStateChange: s.guardState(cfg.OnSessionState),
	})

	s.gate = &PermissionGate{
		mic:        cfg.Microphone,
		dispatcher: cfg.Dispatcher,
		view:       view,
		logger:     logger,
	}

	s.pipeline = &Pipeline{
		sessions:   s.sessions,
		dispatcher: cfg.Dispatcher,
		view:       view,
		reporter:   reporter,
		logger:     logger,
		onOutcome:  cfg.OnOutcome,
	}

	s.capture = &CaptureFlow{
		launcher: cfg.Launcher,
		view:     view,
		pipeline: s.pipeline,
		reporter: reporter,
		logger:   logger,
	}

	return s
}

func (s *Screen) guardState(fn func(session.State, catalog.Language)) func(session.State, catalog.Language) {
	if fn == nil {
		return nil
	}
	return func(state session.State, target catalog.Language) {
		if !s.destroyed {
			fn(state, target)
		}
	}
}

// Start checks microphone access and configures the session for the
// initial target. A zero target selects catalog.Default().
func (s *Screen) Start(initial catalog.Language) error {
	if s.destroyed || s.started {
		return nil
	}
	s.started = true

	if initial.IsZero() {
		initial = catalog.Default()
	}

	s.gate.Ensure(s.ctx)
	return s.sessions.Select(initial)
}

// Languages returns the selectable target languages in display order
func (s *Screen) Languages() []catalog.Choice {
	return catalog.Choices()
}

// SelectLanguage rebuilds the session for the language with displayName
func (s *Screen) SelectLanguage(displayName string) error {
	lang, err := catalog.ByName(displayName)
	if err != nil {
		return err
	}
	return s.Select(lang)
}

// Select rebuilds the session for target
func (s *Screen) Select(target catalog.Language) error {
	if s.destroyed {
		return nil
	}
	// Reselecting the held language is a no-op unless its session failed
	state := s.sessions.State()
	if s.sessions.Target() == target && state != session.StateUninitialized && state != session.StateFailed {
		return nil
	}
	return s.sessions.Select(target)
}

// Speak starts a speech capture
func (s *Screen) Speak() {
	if s.destroyed {
		return
	}
	s.capture.Start(s.ctx)
}

// Translate sends text through the translation pipeline as if it had been
// recognized
func (s *Screen) Translate(text string) {
	if s.destroyed {
		return
	}
	s.view.ShowRecognized(text)
	s.pipeline.Translate(text)
}

// OnCaptureResult forwards a recognition outcome to the capture flow
func (s *Screen) OnCaptureResult(code int, status speech.Status, result *speech.Result, err error) {
	s.capture.OnResult(code, status, result, err)
}

// OnPermissionResult forwards a microphone access decision to the gate
func (s *Screen) OnPermissionResult(code int, granted bool) {
	s.gate.OnResult(code, granted)
}

// SessionState returns the state of the translator session
func (s *Screen) SessionState() session.State {
	return s.sessions.State()
}

// Target returns the selected target language
func (s *Screen) Target() catalog.Language {
	return s.sessions.Target()
}

// Destroy releases the held client and silences all pending callbacks. It
// is safe to call more than once.
func (s *Screen) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.cancel()
	s.sessions.Close()
	s.logger.Debugw("screen destroyed")
}
