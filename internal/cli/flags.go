package cli

import (
	"time"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	BatchFile  string
	Target     string
	ListModels bool
	TUIMode    bool
	LogLevel   string
	Hotkey     string

	// Recognizer flags
	Recognizer         string
	RecognizerFallback string
	WhisperModel       string
	DeepgramModel      string

	// Audio flags
	InputDevice string
	SampleRate  int
	VADMode     int
	SilenceMS   int
	MaxSeconds  int

	// Translation flags
	Engine          string
	ChatModel       string
	GeminiModel     string
	ModelDB         string
	DownloadTimeout time.Duration

	// Circuit breaker flags
	BreakerFailures    int
	BreakerOpenSeconds int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Target:             catalog.Default().Name(),
		LogLevel:           "info",
		Hotkey:             "ctrl+shift+s",
		Recognizer:         "whisper",
		WhisperModel:       "whisper-1",
		DeepgramModel:      "nova-2",
		SampleRate:         16000,
		VADMode:            2,
		SilenceMS:          1200,
		MaxSeconds:         30,
		Engine:             "openai",
		ChatModel:          "gpt-4o-mini",
		GeminiModel:        "gemini-2.0-flash",
		ModelDB:            modelstore.DefaultPath(),
		DownloadTimeout:    30 * time.Second,
		BreakerFailures:    3,
		BreakerOpenSeconds: 30,
	}
}
