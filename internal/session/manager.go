package session

import (
	"fmt"

	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/event"
	"codeberg.org/snonux/voxlate/internal/translation"
)

// Config holds the collaborators of a Manager
type Config struct {
	Factory    translation.Factory
	Dispatcher event.Dispatcher
	Logger     *zap.SugaredLogger

	// Source is the spoken language, English unless set
	Source catalog.Language

	// Conditions are passed to every model check
	Conditions translation.DownloadConditions

	// Notify shows a transient message to the user, may be nil
	Notify func(message string)

	// OnStateChange is called on the UI thread after every transition, may
	// be nil
	OnStateChange func(state State, target catalog.Language)
}

// Manager holds the current translator session. Apart from the background
// model check, all methods must be called on the UI thread.
type Manager struct {
	cfg     Config
	logger  *zap.SugaredLogger
	current *Session
	state   State
	target  catalog.Language
}

// NewManager creates a manager in the Uninitialized state
func NewManager(cfg Config) *Manager {
	if cfg.Source.IsZero() {
		cfg.Source = catalog.Source()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// State returns the manager state
func (m *Manager) State() State {
	return m.state
}

// Target returns the most recently selected target language
func (m *Manager) Target() catalog.Language {
	return m.target
}

// Select releases the held session and configures a new one for target.
// The model check runs in the background; its outcome is applied on the UI
// thread unless another Select or Close happened meanwhile.
func (m *Manager) Select(target catalog.Language) error {
	opts, err := translation.NewOptions(m.cfg.Source, target)
	if err != nil {
		return err
	}

	m.release()
	m.target = target

	client, err := m.cfg.Factory.NewClient(opts)
	if err != nil {
		m.logger.Errorw("failed to create translator", "pair", opts.String(), "error", err)
		m.setState(StateFailed)
		m.notify(MsgModelDownload + err.Error())
		return nil
	}

	s := newSession(opts, client)
	m.current = s
	m.setState(StateConfiguring)
	m.logger.Infow("configuring translator", "session", s.id, "pair", opts.String(), "engine", m.cfg.Factory.Engine())

	go func() {
		err := client.DownloadModelIfNeeded(s.ctx, m.cfg.Conditions)
		m.cfg.Dispatcher.Do(func() {
			m.downloadFinished(s, err)
		})
	}()

	return nil
}

func (m *Manager) downloadFinished(s *Session, err error) {
	if m.current != s {
		m.logger.Debugw("ignoring model check of superseded session", "session", s.id, "error", err)
		return
	}

	if err != nil {
		s.state = StateFailed
		s.err = err
		m.logger.Errorw("model download failed", "session", s.id, "pair", s.opts.String(), "error", err)
		m.setState(StateFailed)
		m.notify(MsgModelDownload + err.Error())
		return
	}

	s.state = StateReady
	m.logger.Infow("translator ready", "session", s.id, "pair", s.opts.String())
	m.setState(StateReady)
}

// Current returns the session if it is ready. Otherwise it fails fast with
// ErrConfiguring, ErrFailed or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	switch m.state {
	case StateReady:
		return m.current, nil
	case StateConfiguring:
		return nil, ErrConfiguring
	case StateFailed:
		if m.current != nil && m.current.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailed, m.current.err)
		}
		return nil, ErrFailed
	default:
		return nil, ErrNoSession
	}
}

// IsCurrent reports whether s is still the held session
func (m *Manager) IsCurrent(s *Session) bool {
	return s != nil && m.current == s
}

// Close releases the held session. It is safe to call more than once.
func (m *Manager) Close() {
	had := m.current != nil || m.state != StateUninitialized
	m.release()
	if had {
		m.setState(StateUninitialized)
	}
}

// release cancels and closes the held client, if any
func (m *Manager) release() {
	s := m.current
	if s == nil {
		return
	}
	m.current = nil

	s.cancel()
	if err := s.client.Close(); err != nil {
		m.logger.Warnw("failed to release translator", "session", s.id, "error", err)
	}
	m.logger.Debugw("released translator", "session", s.id, "pair", s.opts.String())
}

func (m *Manager) setState(state State) {
	m.state = state
	if m.cfg.OnStateChange != nil {
		m.cfg.OnStateChange(state, m.target)
	}
}

func (m *Manager) notify(message string) {
	if m.cfg.Notify != nil {
		m.cfg.Notify(message)
	}
}
