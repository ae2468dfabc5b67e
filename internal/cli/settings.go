package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the effective configuration after flags, environment and
// config file were merged
type Settings struct {
	UI          UISettings          `yaml:"ui"`
	Recognizer  RecognizerSettings  `yaml:"recognizer"`
	Audio       AudioSettings       `yaml:"audio"`
	Translation TranslationSettings `yaml:"translation"`
	Breaker     BreakerSettings     `yaml:"breaker"`
	Log         LogSettings         `yaml:"log"`
	Sentry      SentrySettings      `yaml:"sentry"`
	OpenAI      OpenAISettings      `yaml:"openai"`
}

// UISettings configures the frontends
type UISettings struct {
	Mode            string `yaml:"mode"`
	Hotkey          string `yaml:"hotkey"`
	DefaultLanguage string `yaml:"default_language"`
}

// RecognizerSettings configures speech recognition
type RecognizerSettings struct {
	Engine        string `yaml:"engine"`
	Fallback      string `yaml:"fallback"`
	OpenAIModel   string `yaml:"openai_model"`
	DeepgramKey   string `yaml:"deepgram_key"`
	DeepgramModel string `yaml:"deepgram_model"`
}

// AudioSettings configures microphone capture and endpointing
type AudioSettings struct {
	InputDevice string `yaml:"input_device"`
	SampleRate  int    `yaml:"sample_rate"`
	VADMode     int    `yaml:"vad_mode"`
	SilenceMS   int    `yaml:"silence_ms"`
	MaxSeconds  int    `yaml:"max_seconds"`
}

// TranslationSettings configures the translation engine
type TranslationSettings struct {
	Engine          string        `yaml:"engine"`
	OpenAIModel     string        `yaml:"openai_model"`
	GeminiModel     string        `yaml:"gemini_model"`
	GeminiKey       string        `yaml:"gemini_key"`
	ModelDB         string        `yaml:"model_db"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// BreakerSettings configures the circuit breaker around remote engines
type BreakerSettings struct {
	MaxFailures int `yaml:"max_failures"`
	OpenSeconds int `yaml:"open_seconds"`
}

// LogSettings configures logging
type LogSettings struct {
	Level string `yaml:"level"`
}

// SentrySettings configures error reporting
type SentrySettings struct {
	DSN string `yaml:"dsn"`
}

// OpenAISettings holds the OpenAI credentials
type OpenAISettings struct {
	Key string `yaml:"key"`
}

// LoadSettings reads the current settings from viper
func LoadSettings() Settings {
	return Settings{
		UI: UISettings{
			Mode:            viper.GetString("ui.mode"),
			Hotkey:          viper.GetString("ui.hotkey"),
			DefaultLanguage: viper.GetString("ui.default_language"),
		},
		Recognizer: RecognizerSettings{
			Engine:        viper.GetString("recognizer.engine"),
			Fallback:      viper.GetString("recognizer.fallback"),
			OpenAIModel:   viper.GetString("recognizer.openai_model"),
			DeepgramKey:   GetDeepgramKey(),
			DeepgramModel: viper.GetString("recognizer.deepgram_model"),
		},
		Audio: AudioSettings{
			InputDevice: viper.GetString("audio.input_device"),
			SampleRate:  viper.GetInt("audio.sample_rate"),
			VADMode:     viper.GetInt("audio.vad_mode"),
			SilenceMS:   viper.GetInt("audio.silence_ms"),
			MaxSeconds:  viper.GetInt("audio.max_seconds"),
		},
		Translation: TranslationSettings{
			Engine:          viper.GetString("translation.engine"),
			OpenAIModel:     viper.GetString("translation.openai_model"),
			GeminiModel:     viper.GetString("translation.gemini_model"),
			GeminiKey:       GetGeminiKey(),
			ModelDB:         viper.GetString("translation.model_db"),
			DownloadTimeout: viper.GetDuration("translation.download_timeout"),
		},
		Breaker: BreakerSettings{
			MaxFailures: viper.GetInt("breaker.max_failures"),
			OpenSeconds: viper.GetInt("breaker.open_seconds"),
		},
		Log:    LogSettings{Level: viper.GetString("log.level")},
		Sentry: SentrySettings{DSN: viper.GetString("sentry.dsn")},
		OpenAI: OpenAISettings{Key: GetOpenAIKey()},
	}
}

// Redacted returns a copy with credentials masked
func (s Settings) Redacted() Settings {
	s.Recognizer.DeepgramKey = mask(s.Recognizer.DeepgramKey)
	s.Translation.GeminiKey = mask(s.Translation.GeminiKey)
	s.Sentry.DSN = mask(s.Sentry.DSN)
	s.OpenAI.Key = mask(s.OpenAI.Key)
	return s
}

// WriteYAML encodes the settings as YAML
func (s Settings) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return enc.Close()
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// WatchConfig calls onChange with the reloaded settings whenever the config
// file in use is written. It does nothing when no config file was read.
func WatchConfig(onChange func(Settings)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(LoadSettings())
	})
	viper.WatchConfig()
	return true
}
