package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/voxlate/internal/audio"
	"codeberg.org/snonux/voxlate/internal/modelstore"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "voxlate [text]" {
		t.Errorf("Expected Use to be 'voxlate [text]', got %s", cmd.Use)
	}

	// Test that flags are set up
	flagTests := []struct {
		name       string
		persistent bool
	}{
		{"config", true},
		{"log-level", true},
		{"model-db", true},
		{"target", false},
		{"batch", false},
		{"list-models", false},
		{"tui", false},
		{"hotkey", false},
		{"recognizer", false},
		{"recognizer-fallback", false},
		{"whisper-model", false},
		{"deepgram-model", false},
		{"input-device", false},
		{"sample-rate", false},
		{"vad-mode", false},
		{"silence-ms", false},
		{"max-seconds", false},
		{"engine", false},
		{"chat-model", false},
		{"gemini-model", false},
		{"download-timeout", false},
		{"breaker-failures", false},
		{"breaker-open-seconds", false},
	}

	for _, tt := range flagTests {
		t.Run("flag_"+tt.name, func(t *testing.T) {
			var flag *pflag.Flag
			if tt.persistent {
				flag = cmd.PersistentFlags().Lookup(tt.name)
			} else {
				flag = cmd.Flags().Lookup(tt.name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", tt.name)
			}
		})
	}

	for _, name := range []string{"languages", "models", "config", "devices"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected subcommand %s", name)
		}
	}
}

func TestSetupFlags(t *testing.T) {
	resetViper(t)
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	targetFlag := cmd.Flags().Lookup("target")
	if targetFlag == nil {
		t.Fatal("target flag not found")
	}
	if targetFlag.DefValue != "Vietnamese" {
		t.Errorf("Expected default target to be Vietnamese, got %s", targetFlag.DefValue)
	}
	if targetFlag.Shorthand != "t" {
		t.Errorf("Expected shorthand t, got %q", targetFlag.Shorthand)
	}

	dbFlag := cmd.PersistentFlags().Lookup("model-db")
	if dbFlag == nil {
		t.Fatal("model-db flag not found")
	}
	if dbFlag.DefValue != modelstore.DefaultPath() {
		t.Errorf("Expected default model-db %s, got %s", modelstore.DefaultPath(), dbFlag.DefValue)
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		wantMode  string
	}{
		{
			name: "with config file",
			setupFunc: func(t *testing.T) string {
				cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
				content := `ui:
  mode: tui
openai:
  key: test-key
`
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
			wantMode: "tui",
		},
		{
			name: "without config file",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			wantMode: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv("HOME", t.TempDir())
			t.Setenv("VOXLATE_SENTRY_DSN", "https://key@example.com/1")

			InitConfig(tt.setupFunc(t))

			if got := viper.GetString("ui.mode"); got != tt.wantMode {
				t.Errorf("ui.mode = %q, want %q", got, tt.wantMode)
			}
			if viper.GetString("sentry.dsn") != "https://key@example.com/1" {
				t.Error("Environment variable not properly loaded")
			}
		})
	}
}

func TestGetOpenAIKey(t *testing.T) {
	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{"from environment", "env-test-key", "config-test-key", "env-test-key"},
		{"from config when no env", "", "config-test-key", "config-test-key"},
		{"empty when neither set", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv("OPENAI_API_KEY", tt.envKey)

			if tt.configKey != "" {
				viper.Set("openai.key", tt.configKey)
			}

			if got := GetOpenAIKey(); got != tt.expected {
				t.Errorf("GetOpenAIKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEngineKeys(t *testing.T) {
	resetViper(t)
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-env")
	viper.Set("recognizer.deepgram_key", "dg-config")
	viper.Set("translation.gemini_key", "gemini-config")

	if got := GetDeepgramKey(); got != "dg-config" {
		t.Errorf("GetDeepgramKey() = %q, want dg-config", got)
	}
	if got := GetGeminiKey(); got != "gemini-env" {
		t.Errorf("GetGeminiKey() = %q, want gemini-env", got)
	}
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	cmd.Flags().Set("target", "Spanish")
	cmd.Flags().Set("engine", "gemini")
	cmd.Flags().Set("silence-ms", "800")
	cmd.Flags().Set("download-timeout", "5s")

	tests := []struct {
		key  string
		want string
	}{
		{"ui.default_language", "Spanish"},
		{"translation.engine", "gemini"},
		{"audio.silence_ms", "800"},
		{"translation.download_timeout", "5s"},
		{"recognizer.engine", "whisper"},
		{"ui.mode", "gui"},
	}
	for _, tt := range tests {
		if got := viper.GetString(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestPrintLanguages(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintLanguages(&buf); err != nil {
		t.Fatalf("PrintLanguages failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("Expected header and 5 languages, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "vi") || !strings.Contains(lines[1], "(default)") {
		t.Errorf("Expected Vietnamese first and marked default, got %q", lines[1])
	}
	if !strings.Contains(lines[5], "Japanese") {
		t.Errorf("Expected Japanese last, got %q", lines[5])
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := CreateRootCommand(NewFlags())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("voxlate %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestModelsCommand(t *testing.T) {
	resetViper(t)
	dbPath := filepath.Join(t.TempDir(), "models.db")

	store, err := modelstore.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()
	if err := store.Record(ctx, modelstore.Key{Engine: "openai", Source: "en", Target: "vi"}, "gpt-4o-mini"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, modelstore.Key{Engine: "openai", Source: "en", Target: "ja"}, "gpt-4o-mini"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	store.Close()

	out := execute(t, "models", "--model-db", dbPath)
	if !strings.Contains(out, "en>vi") || !strings.Contains(out, "en>ja") {
		t.Errorf("Expected both pairs listed, got:\n%s", out)
	}

	out = execute(t, "models", "--model-db", dbPath, "--remove", "Vietnamese")
	if !strings.Contains(out, "Removed 1 model(s) for Vietnamese") {
		t.Errorf("Unexpected remove output: %q", out)
	}

	out = execute(t, "models", "--model-db", dbPath)
	if strings.Contains(out, "en>vi") || !strings.Contains(out, "en>ja") {
		t.Errorf("Expected only the Japanese pair, got:\n%s", out)
	}
}

func TestModelsCommand_UnknownLanguage(t *testing.T) {
	resetViper(t)
	dbPath := filepath.Join(t.TempDir(), "models.db")

	cmd := CreateRootCommand(NewFlags())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"models", "--model-db", dbPath, "--remove", "Klingon"})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for a language outside the catalog")
	}
}

func TestConfigCommand_RedactsKeys(t *testing.T) {
	resetViper(t)
	t.Setenv("OPENAI_API_KEY", "sk-secret-1234")

	out := execute(t, "config")

	if strings.Contains(out, "sk-secret") {
		t.Errorf("Config dump leaked the API key:\n%s", out)
	}
	if !strings.Contains(out, "****1234") {
		t.Errorf("Expected masked key, got:\n%s", out)
	}
	if !strings.Contains(out, "engine: openai") {
		t.Errorf("Expected translation engine in dump, got:\n%s", out)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcdefgh", "****efgh"},
	}
	for _, tt := range tests {
		if got := mask(tt.in); got != tt.want {
			t.Errorf("mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWatchConfig_NoFile(t *testing.T) {
	resetViper(t)
	if WatchConfig(func(Settings) {}) {
		t.Error("WatchConfig should not watch without a config file")
	}
}

func TestPrintDevices(t *testing.T) {
	devices := []audio.DeviceInfo{
		{Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000, IsDefault: true},
		{Name: "USB Headset", MaxInputChannels: 2, DefaultSampleRate: 16000},
	}

	var buf bytes.Buffer
	if err := PrintDevices(&buf, devices, "USB Headset"); err != nil {
		t.Fatalf("PrintDevices failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and 2 devices, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "Built-in Microphone") || !strings.Contains(lines[1], "(default)") {
		t.Errorf("Expected default marker on the built-in device, got %q", lines[1])
	}
	if strings.Contains(lines[1], "(configured)") {
		t.Errorf("Built-in device is not configured: %q", lines[1])
	}
	if !strings.Contains(lines[2], "16000") || !strings.Contains(lines[2], "(configured)") {
		t.Errorf("Expected configured marker on the headset, got %q", lines[2])
	}
}

func TestPrintDevices_None(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintDevices(&buf, nil, ""); err != nil {
		t.Fatalf("PrintDevices failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No audio input devices found") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}
