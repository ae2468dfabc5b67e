// Package session owns the translation client for the selected language
// pair. There is at most one live client. Selecting a new target releases
// the previous client before the next one is built, and the model check of
// the new client runs in the background with its outcome applied on the UI
// thread.
package session

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/snonux/voxlate/internal"
	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/translation"
)

// MsgModelDownload prefixes the notice of a failed model check
const MsgModelDownload = "Model download failed: "

var (
	// ErrConfiguring is returned while the model check is in flight
	ErrConfiguring = errors.New("translator is still preparing the language model")

	// ErrFailed is returned after the model check failed. The returned error
	// also wraps the download error.
	ErrFailed = errors.New("translator unavailable")

	// ErrNoSession is returned before the first selection and after Close
	ErrNoSession = errors.New("no translator session")
)

// State is the lifecycle state of the manager
type State int

const (
	StateUninitialized State = iota
	StateConfiguring
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfiguring:
		return "configuring"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one configured client for a language pair
type Session struct {
	id     string
	opts   translation.Options
	client translation.Client
	ctx    context.Context
	cancel context.CancelFunc
	state  State
	err    error
}

func newSession(opts translation.Options, client translation.Client) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:     internal.GenerateSessionID(opts.Source.Code(), opts.Target.Code()),
		opts:   opts,
		client: client,
		ctx:    ctx,
		cancel: cancel,
		state:  StateConfiguring,
	}
}

// ID identifies the session in logs
func (s *Session) ID() string { return s.id }

// Options returns the language pair
func (s *Session) Options() translation.Options { return s.opts }

// Target returns the target language
func (s *Session) Target() catalog.Language { return s.opts.Target }

// State returns the state of the session
func (s *Session) State() State { return s.state }

// Err returns the model check error of a failed session
func (s *Session) Err() error { return s.err }

// Translate translates text with the session client. It may be called from
// any goroutine and fails with context.Canceled once the session has been
// released.
func (s *Session) Translate(text string) (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	return s.client.Translate(s.ctx, text)
}
