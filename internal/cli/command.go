package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/voxlate/internal"
	"codeberg.org/snonux/voxlate/internal/audio"
	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voxlate [text]",
		Short: "Speak English, read it translated",
		Long: `voxlate recognizes spoken English and translates it into a
language of your choice.

Speech is recognized with OpenAI Whisper or Deepgram, text is translated
with OpenAI or Gemini.

Examples:
  voxlate                              # Launch the desktop window (default)
  voxlate --tui                        # Launch the terminal screen
  voxlate "good morning" -t Spanish    # Translate text via CLI
  voxlate --batch phrases.txt          # Translate every line of a file`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		NewLanguagesCommand(),
		NewModelsCommand(),
		NewConfigCommand(),
		NewDevicesCommand(),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.voxlate.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.ModelDB, "model-db", flags.ModelDB, "Path of the downloaded model registry")

	// Local flags
	cmd.Flags().StringVarP(&flags.Target, "target", "t", flags.Target, "Target language (name or code)")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate lines from file (one per line, optional '= <language>')")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI speech and chat models for the current API key")
	cmd.Flags().BoolVar(&flags.TUIMode, "tui", false, "Run the terminal screen instead of the desktop window")
	cmd.Flags().StringVar(&flags.Hotkey, "hotkey", flags.Hotkey, "Global push-to-talk hotkey (empty disables it)")

	// Recognizer flags
	cmd.Flags().StringVar(&flags.Recognizer, "recognizer", flags.Recognizer, "Speech recognizer: whisper, deepgram, stub")
	cmd.Flags().StringVar(&flags.RecognizerFallback, "recognizer-fallback", "", "Recognizer used when the primary one fails")
	cmd.Flags().StringVar(&flags.WhisperModel, "whisper-model", flags.WhisperModel, "OpenAI transcription model")
	cmd.Flags().StringVar(&flags.DeepgramModel, "deepgram-model", flags.DeepgramModel, "Deepgram model")

	// Audio flags
	cmd.Flags().StringVar(&flags.InputDevice, "input-device", "", "Audio input device name (default device if empty)")
	cmd.Flags().IntVar(&flags.SampleRate, "sample-rate", flags.SampleRate, "Capture sample rate in Hz")
	cmd.Flags().IntVar(&flags.VADMode, "vad-mode", flags.VADMode, "Voice activity detection aggressiveness (0-3)")
	cmd.Flags().IntVar(&flags.SilenceMS, "silence-ms", flags.SilenceMS, "Trailing silence that ends an utterance, in milliseconds")
	cmd.Flags().IntVar(&flags.MaxSeconds, "max-seconds", flags.MaxSeconds, "Maximum utterance length in seconds")

	// Translation flags
	cmd.Flags().StringVar(&flags.Engine, "engine", flags.Engine, "Translation engine: openai, gemini, stub")
	cmd.Flags().StringVar(&flags.ChatModel, "chat-model", flags.ChatModel, "OpenAI chat model used for translation")
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini model used for translation")
	cmd.Flags().DurationVar(&flags.DownloadTimeout, "download-timeout", flags.DownloadTimeout, "Time limit for preparing a translation model")

	// Circuit breaker flags
	cmd.Flags().IntVar(&flags.BreakerFailures, "breaker-failures", flags.BreakerFailures, "Consecutive engine failures that open the circuit breaker")
	cmd.Flags().IntVar(&flags.BreakerOpenSeconds, "breaker-open-seconds", flags.BreakerOpenSeconds, "Seconds the circuit breaker stays open")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.SetDefault("ui.mode", "gui")
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("translation.model_db", cmd.PersistentFlags().Lookup("model-db"))
	viper.BindPFlag("ui.default_language", cmd.Flags().Lookup("target"))
	viper.BindPFlag("ui.hotkey", cmd.Flags().Lookup("hotkey"))
	viper.BindPFlag("recognizer.engine", cmd.Flags().Lookup("recognizer"))
	viper.BindPFlag("recognizer.fallback", cmd.Flags().Lookup("recognizer-fallback"))
	viper.BindPFlag("recognizer.openai_model", cmd.Flags().Lookup("whisper-model"))
	viper.BindPFlag("recognizer.deepgram_model", cmd.Flags().Lookup("deepgram-model"))
	viper.BindPFlag("audio.input_device", cmd.Flags().Lookup("input-device"))
	viper.BindPFlag("audio.sample_rate", cmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("audio.vad_mode", cmd.Flags().Lookup("vad-mode"))
	viper.BindPFlag("audio.silence_ms", cmd.Flags().Lookup("silence-ms"))
	viper.BindPFlag("audio.max_seconds", cmd.Flags().Lookup("max-seconds"))
	viper.BindPFlag("translation.engine", cmd.Flags().Lookup("engine"))
	viper.BindPFlag("translation.openai_model", cmd.Flags().Lookup("chat-model"))
	viper.BindPFlag("translation.gemini_model", cmd.Flags().Lookup("gemini-model"))
	viper.BindPFlag("translation.download_timeout", cmd.Flags().Lookup("download-timeout"))
	viper.BindPFlag("breaker.max_failures", cmd.Flags().Lookup("breaker-failures"))
	viper.BindPFlag("breaker.open_seconds", cmd.Flags().Lookup("breaker-open-seconds"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".voxlate" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".voxlate")
	}

	// Environment variables, e.g. VOXLATE_SENTRY_DSN for sentry.dsn
	viper.SetEnvPrefix("VOXLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.key")
}

// GetDeepgramKey retrieves the Deepgram API key from environment or config
func GetDeepgramKey() string {
	if key := os.Getenv("DEEPGRAM_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("recognizer.deepgram_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("translation.gemini_key")
}

// NewLanguagesCommand creates the command printing the language catalog
func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages text can be translated into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintLanguages(cmd.OutOrStdout())
		},
	}
}

// PrintLanguages writes the catalog in display order, marking the default
func PrintLanguages(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tLANGUAGE\t")
	for _, c := range catalog.Choices() {
		marker := ""
		if c.Code == catalog.Default().Code() {
			marker = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Name, marker)
	}
	return tw.Flush()
}

// NewModelsCommand creates the command listing and removing entries of the
// downloaded model registry
func NewModelsCommand() *cobra.Command {
	var remove string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List or remove downloaded translation models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := modelstore.Open(viper.GetString("translation.model_db"))
			if err != nil {
				return err
			}
			defer store.Close()

			if remove != "" {
				return removeModels(cmd.Context(), cmd.OutOrStdout(), store, remove)
			}
			return listModels(cmd.Context(), cmd.OutOrStdout(), store)
		},
	}
	cmd.Flags().StringVar(&remove, "remove", "", "Remove the models of a target language so it is prepared again")

	return cmd
}

func listModels(ctx context.Context, w io.Writer, store *modelstore.Store) error {
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No models recorded in %s\n", store.Path())
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tPAIR\tMODEL\tPREPARED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s>%s\t%s\t%s\n", e.Engine, e.Source, e.Target, e.Model, e.DownloadedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func removeModels(ctx context.Context, w io.Writer, store *modelstore.Store, language string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lang, err := catalog.Parse(language)
	if err != nil {
		return err
	}

	n, err := store.RemoveTarget(ctx, lang.Code())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %d model(s) for %s\n", n, lang.Name())
	return nil
}

// NewConfigCommand creates the command printing the effective settings
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return LoadSettings().Redacted().WriteYAML(cmd.OutOrStdout())
		},
	}
}

// NewDevicesCommand creates the command listing microphones usable as
// audio.input_device
func NewDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := audio.ListInputDevices()
			if err != nil {
				return err
			}
			return PrintDevices(cmd.OutOrStdout(), devices, viper.GetString("audio.input_device"))
		},
	}
}

// PrintDevices writes the input devices, marking the system default and
// the configured one
func PrintDevices(w io.Writer, devices []audio.DeviceInfo, configured string) error {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No audio input devices found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tCHANNELS\tRATE\t")
	for _, d := range devices {
		var marks []string
		if d.IsDefault {
			marks = append(marks, "(default)")
		}
		if configured != "" && d.Name == configured {
			marks = append(marks, "(configured)")
		}
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%s\n", d.Name, d.MaxInputChannels, d.DefaultSampleRate, strings.Join(marks, " "))
	}
	return tw.Flush()
}
