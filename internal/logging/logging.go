// Package logging builds the zap logger used across voxlate and the
// optional sentry error reporter.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger settings
type Config struct {
	Level       string    // debug, info, warn, error
	Development bool      // console encoder instead of JSON
	Output      io.Writer // defaults to stderr
	Extra       io.Writer // optional second sink, e.g. the GUI log viewer
}

// Logger bundles the sugared logger with its adjustable level
type Logger struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

// New builds a logger writing to cfg.Output and, if set, cfg.Extra
func New(cfg Config) (*Logger, error) {
	level := zap.NewAtomicLevel()
	if err := SetLevel(level, cfg.Level); err != nil {
		return nil, err
	}

	var encCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var out zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if cfg.Output != nil {
		out = zapcore.AddSync(cfg.Output)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, out, level),
	}
	if cfg.Extra != nil {
		// The viewer shows plain lines, so it always gets the console encoding
		viewerEnc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(viewerEnc, zapcore.AddSync(cfg.Extra), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return &Logger{SugaredLogger: logger.Sugar(), level: level}, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// SetLevel changes the level at runtime, e.g. after a config file reload
func (l *Logger) SetLevel(name string) error {
	return SetLevel(l.level, name)
}

// Level returns the current level name
func (l *Logger) Level() string {
	return l.level.Level().String()
}

// SetLevel parses name into level. An empty name means info.
func SetLevel(level zap.AtomicLevel, name string) error {
	if name == "" {
		name = "info"
	}
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(parsed)
	return nil
}

// SentryReporter forwards user-visible failures to sentry
type SentryReporter struct {
	hub *sentry.Hub
}

// InitSentry initializes the sentry client. It returns a nil reporter and
// no error when dsn is empty.
func InitSentry(dsn, release string) (*SentryReporter, error) {
	if dsn == "" {
		return nil, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Release:     release,
		Environment: "desktop",
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init failed: %w", err)
	}

	return &SentryReporter{hub: sentry.CurrentHub()}, nil
}

// Capture reports err to sentry
func (r *SentryReporter) Capture(err error) {
	if r == nil || err == nil {
		return
	}
	r.hub.CaptureException(err)
}

// Flush waits for buffered events to be delivered
func (r *SentryReporter) Flush() {
	if r == nil {
		return
	}
	r.hub.Flush(2 * time.Second)
}
