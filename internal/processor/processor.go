package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/voxlate/internal"
	"codeberg.org/snonux/voxlate/internal/audio"
	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/cli"
	"codeberg.org/snonux/voxlate/internal/gui"
	"codeberg.org/snonux/voxlate/internal/logging"
	"codeberg.org/snonux/voxlate/internal/modelstore"
	"codeberg.org/snonux/voxlate/internal/screen"
	"codeberg.org/snonux/voxlate/internal/speech"
	"codeberg.org/snonux/voxlate/internal/translation"
	"codeberg.org/snonux/voxlate/internal/tui"
)

// Mode selects where the processor sends its output
type Mode int

const (
	// ModeCLI prints results to stdout and logs to stderr
	ModeCLI Mode = iota
	// ModeGUI additionally shows logs in the window's log viewer
	ModeGUI
	// ModeTUI logs to a file so the terminal screen stays intact
	ModeTUI
)

// Processor builds the collaborators of the screen from the settings
type Processor struct {
	flags    *cli.Flags
	settings cli.Settings
	mode     Mode

	logger   *logging.Logger
	reporter *logging.SentryReporter
	logs     *gui.LogSink
	logFile  *os.File
	store    *modelstore.Store

	// factory is built on first use unless set
	factory translation.Factory

	out    io.Writer
	errOut io.Writer
}

// LogFilePath returns where the terminal screen writes its logs
func LogFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "voxlate.log"
	}
	return filepath.Join(home, ".local", "state", "voxlate", "voxlate.log")
}

// NewProcessor creates a processor for mode from the current settings
func NewProcessor(flags *cli.Flags, mode Mode) (*Processor, error) {
	p := &Processor{
		flags:    flags,
		settings: cli.LoadSettings(),
		mode:     mode,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}

	logCfg := logging.Config{
		Level:       p.settings.Log.Level,
		Development: p.settings.Log.Level == "debug",
	}
	switch mode {
	case ModeGUI:
		p.logs = gui.NewLogSink()
		logCfg.Extra = p.logs
	case ModeTUI:
		path := LogFilePath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		p.logFile = f
		logCfg.Output = f
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.logger = logger

	reporter, err := logging.InitSentry(p.settings.Sentry.DSN, internal.Version)
	if err != nil {
		// Error reporting is optional, the screen works without it
		p.logger.Warnw("error reporting disabled", "error", err)
	}
	p.reporter = reporter

	return p, nil
}

// Close flushes pending reports and releases the model registry and log file
func (p *Processor) Close() error {
	p.reporter.Flush()
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.logger.Warnw("failed to close model registry", "error", err)
		}
		p.store = nil
	}
	if p.logger != nil {
		_ = p.logger.Sync()
	}
	if p.logFile != nil {
		err := p.logFile.Close()
		p.logFile = nil
		return err
	}
	return nil
}

// Settings returns the settings the processor was built from
func (p *Processor) Settings() cli.Settings {
	return p.settings
}

// WatchConfig applies log level changes from the config file while the
// screen runs
func (p *Processor) WatchConfig() {
	watching := cli.WatchConfig(func(s cli.Settings) {
		if err := p.logger.SetLevel(s.Log.Level); err != nil {
			p.logger.Warnw("ignoring config change", "error", err)
			return
		}
		p.logger.Infow("config reloaded", "log_level", p.logger.Level())
	})
	if watching {
		p.logger.Debugw("watching config file for changes")
	}
}

// initialTarget resolves the configured default language
func (p *Processor) initialTarget() (catalog.Language, error) {
	if p.settings.UI.DefaultLanguage == "" {
		return catalog.Default(), nil
	}
	lang, err := catalog.Parse(p.settings.UI.DefaultLanguage)
	if err != nil {
		return catalog.Language{}, fmt.Errorf("invalid default language: %w", err)
	}
	return lang, nil
}

// translationFactory builds the factory of the configured engine once
func (p *Processor) translationFactory(ctx context.Context) (translation.Factory, error) {
	if p.factory != nil {
		return p.factory, nil
	}

	s := p.settings.Translation
	if s.Engine != translation.EngineStub && s.ModelDB != "" {
		store, err := modelstore.Open(s.ModelDB)
		if err != nil {
			// Without the registry every pair is checked against the API
			p.logger.Warnw("model registry unavailable", "path", s.ModelDB, "error", err)
		} else {
			p.store = store
		}
	}

	breaker := translation.DefaultBreakerConfig()
	if p.settings.Breaker.MaxFailures > 0 {
		breaker.Failures = uint32(p.settings.Breaker.MaxFailures)
	}
	if p.settings.Breaker.OpenSeconds > 0 {
		breaker.Cooldown = time.Duration(p.settings.Breaker.OpenSeconds) * time.Second
	}
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		p.logger.Warnw("circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
	}

	factory, err := translation.NewFactory(ctx, translation.Config{
		Engine: s.Engine,
		OpenAI: translation.OpenAIConfig{
			APIKey: p.settings.OpenAI.Key,
			Model:  s.OpenAIModel,
		},
		Gemini: translation.GeminiConfig{
			APIKey: s.GeminiKey,
			Model:  s.GeminiModel,
		},
		Stub:    translation.DefaultStubConfig(),
		Breaker: breaker,
		Store:   p.store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create translation engine: %w", err)
	}

	p.logger.Infow("translation engine ready", "engine", factory.Engine())
	p.factory = factory
	return factory, nil
}

// opener opens the configured input device for one recording
func (p *Processor) opener() audio.SourceOpener {
	s := p.settings.Audio
	return func() (audio.Source, error) {
		cfg := audio.DefaultCaptureConfig()
		cfg.DeviceName = s.InputDevice
		if s.SampleRate > 0 {
			cfg.SampleRate = float64(s.SampleRate)
		}
		return audio.NewCapture(cfg)
	}
}

// recorderConfig applies the audio settings to the recorder defaults
func (p *Processor) recorderConfig() audio.RecorderConfig {
	s := p.settings.Audio
	cfg := audio.DefaultRecorderConfig()
	if s.SampleRate > 0 {
		cfg.SampleRate = s.SampleRate
	}
	if s.SilenceMS > 0 {
		cfg.Endpoint.SilenceDuration = time.Duration(s.SilenceMS) * time.Millisecond
	}
	if s.MaxSeconds > 0 {
		cfg.MaxDuration = time.Duration(s.MaxSeconds) * time.Second
	}
	return cfg
}

// recognizer builds the configured recognizer recording from the microphone
func (p *Processor) recognizer() (speech.Recognizer, error) {
	rc := p.recorderConfig()
	mode := p.settings.Audio.VADMode
	recorder := audio.NewRecorder(rc, p.opener(), func() audio.VoiceDetector {
		return audio.NewVoiceDetector(rc.SampleRate, mode)
	}, p.logger.SugaredLogger)

	deepgram := speech.DefaultDeepgramConfig()
	deepgram.APIKey = p.settings.Recognizer.DeepgramKey
	deepgram.SampleRate = rc.SampleRate
	if p.settings.Recognizer.DeepgramModel != "" {
		deepgram.Model = p.settings.Recognizer.DeepgramModel
	}

	recognizer, err := speech.NewRecognizer(speech.Config{
		Engine:   p.settings.Recognizer.Engine,
		Fallback: p.settings.Recognizer.Fallback,
		Whisper: speech.WhisperConfig{
			APIKey: p.settings.OpenAI.Key,
			Model:  p.settings.Recognizer.OpenAIModel,
		},
		Deepgram: deepgram,
	}, recorder, p.logger.SugaredLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
	}

	if err := recognizer.IsAvailable(); err != nil {
		// Speak reports this to the user when pressed
		p.logger.Warnw("speech recognizer not available", "recognizer", recognizer.Name(), "error", err)
	}
	return recognizer, nil
}

// screenConfig returns the collaborators shared by all frontends
func (p *Processor) screenConfig(factory translation.Factory, mic screen.Microphone) screen.Config {
	cfg := screen.Config{
		Microphone: mic,
		Factory:    factory,
		Logger:     p.logger.SugaredLogger,
		Conditions: translation.DownloadConditions{
			Timeout: p.settings.Translation.DownloadTimeout,
		},
	}
	if p.reporter != nil {
		cfg.Reporter = p.reporter
	}
	return cfg
}

// RunGUIMode shows the desktop window until it is closed
func (p *Processor) RunGUIMode(ctx context.Context) error {
	initial, err := p.initialTarget()
	if err != nil {
		return err
	}
	factory, err := p.translationFactory(ctx)
	if err != nil {
		return err
	}
	recognizer, err := p.recognizer()
	if err != nil {
		return err
	}

	p.WatchConfig()

	app := gui.New(&gui.Config{
		Screen:        p.screenConfig(factory, audio.NewProbe(p.opener())),
		Recognizer:    recognizer,
		Initial:       initial,
		Hotkey:        p.settings.UI.Hotkey,
		Logs:          p.logs,
		Notifications: true,
	})

	p.logger.Infow("starting desktop screen", "version", internal.Version, "target", initial.Name())
	app.Run()
	return nil
}

// RunTUIMode shows the terminal screen until the user quits
func (p *Processor) RunTUIMode(ctx context.Context) error {
	initial, err := p.initialTarget()
	if err != nil {
		return err
	}
	factory, err := p.translationFactory(ctx)
	if err != nil {
		return err
	}
	recognizer, err := p.recognizer()
	if err != nil {
		return err
	}

	p.WatchConfig()

	p.logger.Infow("starting terminal screen", "version", internal.Version, "target", initial.Name())
	return tui.Run(ctx, tui.Config{
		Screen:     p.screenConfig(factory, audio.NewProbe(p.opener())),
		Recognizer: recognizer,
		Initial:    initial,
	})
}
