package screen

import (
	"fmt"

	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal/event"
	"codeberg.org/snonux/voxlate/internal/session"
)

// Outcome is the result of one translation request
type Outcome struct {
	Text       string
	Translated string
	Err        error
	// Stale is set when the session changed before the translation finished
	Stale bool
}

// Pipeline translates recognized text with the current session
type Pipeline struct {
	sessions   *session.Manager
	dispatcher event.Dispatcher
	view       View
	reporter   Reporter
	logger     *zap.SugaredLogger
	onOutcome  func(Outcome)
}

// Translate submits text to the ready session. It fails fast with a
// notification when the session is not ready.
func (p *Pipeline) Translate(text string) {
	s, err := p.sessions.Current()
	if err != nil {
		p.fail(text, err)
		return
	}

	logger := p.logger.With("session", s.ID(), "pair", s.Options().String())
	logger.Debugw("translating", "chars", len(text))

	go func() {
		translated, err := s.Translate(text)
		p.dispatcher.Do(func() {
			p.finish(s, text, translated, err, logger)
		})
	}()
}

func (p *Pipeline) finish(s *session.Session, text, translated string, err error, logger *zap.SugaredLogger) {
	if !p.sessions.IsCurrent(s) {
		// The language changed meanwhile; the result is for a pair that is
		// no longer selected
		logger.Debugw("dropping translation of superseded session", "error", err)
		p.outcome(Outcome{Text: text, Err: err, Stale: true})
		return
	}

	if err != nil {
		p.fail(text, err)
		return
	}

	p.view.ShowTranslated(translated)
	p.outcome(Outcome{Text: text, Translated: translated})
}

func (p *Pipeline) fail(text string, err error) {
	p.logger.Warnw("translation failed", "error", err)
	p.reporter.Capture(fmt.Errorf("%w: %w", ErrTranslationFailed, err))
	p.view.Notify(MsgTranslation + err.Error())
	p.outcome(Outcome{Text: text, Err: err})
}

func (p *Pipeline) outcome(o Outcome) {
	if p.onOutcome != nil {
		p.onOutcome(o)
	}
}
