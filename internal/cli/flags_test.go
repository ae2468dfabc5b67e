package cli

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	// Test default values
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Target", flags.Target, "Vietnamese"},
		{"LogLevel", flags.LogLevel, "info"},
		{"Hotkey", flags.Hotkey, "ctrl+shift+s"},
		{"Recognizer", flags.Recognizer, "whisper"},
		{"WhisperModel", flags.WhisperModel, "whisper-1"},
		{"DeepgramModel", flags.DeepgramModel, "nova-2"},
		{"SampleRate", flags.SampleRate, 16000},
		{"VADMode", flags.VADMode, 2},
		{"SilenceMS", flags.SilenceMS, 1200},
		{"MaxSeconds", flags.MaxSeconds, 30},
		{"Engine", flags.Engine, "openai"},
		{"ChatModel", flags.ChatModel, "gpt-4o-mini"},
		{"GeminiModel", flags.GeminiModel, "gemini-2.0-flash"},
		{"DownloadTimeout", flags.DownloadTimeout, 30 * time.Second},
		{"BreakerFailures", flags.BreakerFailures, 3},
		{"BreakerOpenSeconds", flags.BreakerOpenSeconds, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	// Test boolean defaults (should be false)
	boolTests := []struct {
		name  string
		value bool
	}{
		{"ListModels", flags.ListModels},
		{"TUIMode", flags.TUIMode},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value {
				t.Errorf("%s = %v, want false", tt.name, tt.value)
			}
		})
	}

	// Test string defaults (should be empty)
	stringTests := []struct {
		name  string
		value string
	}{
		{"CfgFile", flags.CfgFile},
		{"BatchFile", flags.BatchFile},
		{"RecognizerFallback", flags.RecognizerFallback},
		{"InputDevice", flags.InputDevice},
	}

	for _, tt := range stringTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Errorf("%s = %v, want empty string", tt.name, tt.value)
			}
		})
	}

	if !strings.HasSuffix(flags.ModelDB, "models.db") {
		t.Errorf("ModelDB = %q, want a models.db path", flags.ModelDB)
	}
}
