package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/screen"
	"codeberg.org/snonux/voxlate/internal/session"
	"codeberg.org/snonux/voxlate/internal/testutil"
)

type harness struct {
	model   *Model
	queue   *testutil.Queue
	factory *testutil.MockFactory
}

func newHarness(t *testing.T, recognizer *testutil.MockRecognizer) *harness {
	t.Helper()

	mic := &testutil.MockMicrophone{Allow: true}
	if err := mic.Request(context.Background()); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	h := &harness{queue: testutil.NewQueue(), factory: &testutil.MockFactory{}}
	h.model = NewModel(Config{
		Screen: screen.Config{
			Microphone: mic,
			Factory:    h.factory,
		},
		Recognizer: recognizer,
	}, h.queue)

	h.model.Update(startMsg{})
	h.queue.RunNext(t)

	if h.model.state != session.StateReady {
		t.Fatalf("Expected Ready after start, got %v", h.model.state)
	}
	return h
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_StartsWithDefaultLanguage(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{})

	if h.model.target != catalog.Vietnamese {
		t.Errorf("Expected Vietnamese, got %v", h.model.target)
	}
	if h.model.cursor != 0 {
		t.Errorf("Expected cursor on the first language, got %d", h.model.cursor)
	}

	view := h.model.View()
	if !strings.Contains(view, "Vietnamese") || !strings.Contains(view, "ready") {
		t.Errorf("Expected selected language and state in view:\n%s", view)
	}
}

func TestModel_ConfiguringStartsSpinner(t *testing.T) {
	mic := &testutil.MockMicrophone{Allow: true}
	mic.Request(context.Background())
	q := testutil.NewQueue()
	m := NewModel(Config{
		Screen:     screen.Config{Microphone: mic, Factory: &testutil.MockFactory{}},
		Recognizer: &testutil.MockRecognizer{},
	}, q)

	_, cmd := m.Update(startMsg{})
	if cmd == nil {
		t.Error("Expected a spinner command while configuring")
	}
	if !m.busy() {
		t.Error("Expected busy while configuring")
	}

	q.RunNext(t)
	if m.busy() {
		t.Error("Expected idle once ready")
	}
}

func TestModel_SpeakShowsTranslation(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{Transcripts: []string{"hello world", "yellow world"}})

	h.model.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	h.queue.RunNext(t)
	if h.model.prompt != screen.SpeechPrompt {
		t.Errorf("Expected prompt %q, got %q", screen.SpeechPrompt, h.model.prompt)
	}
	if !strings.Contains(h.model.View(), screen.SpeechPrompt) {
		t.Error("Expected prompt in view")
	}

	h.queue.RunNext(t)
	if h.model.prompt != "" {
		t.Errorf("Expected prompt cleared, got %q", h.model.prompt)
	}
	if h.model.recognized != "hello world" {
		t.Errorf("Expected recognized 'hello world', got %q", h.model.recognized)
	}

	h.queue.RunNext(t)
	if h.model.translated != "vi:hello world" {
		t.Errorf("Expected translated 'vi:hello world', got %q", h.model.translated)
	}
}

func TestModel_SpeechUnsupported(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{Unavailable: errors.New("no API key")})

	_, cmd := h.model.Update(runes("s"))

	if h.model.toast != screen.MsgSpeechUnsupported {
		t.Errorf("Expected toast %q, got %q", screen.MsgSpeechUnsupported, h.model.toast)
	}
	if cmd == nil {
		t.Error("Expected a toast expiry command")
	}
	h.queue.AssertEmpty(t)
}

func TestModel_SelectLanguage(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want catalog.Language
	}{
		{"arrow and enter", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyEnter}}, catalog.Spanish},
		{"vi keys", []tea.KeyMsg{runes("j"), runes("j"), runes("j"), runes("k"), {Type: tea.KeyEnter}}, catalog.French},
		{"number", []tea.KeyMsg{runes("5")}, catalog.Japanese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &testutil.MockRecognizer{})

			for _, k := range tt.keys {
				h.model.Update(k)
			}
			if h.model.state != session.StateConfiguring {
				t.Fatalf("Expected Configuring, got %v", h.model.state)
			}
			h.queue.RunNext(t)

			if h.model.target != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, h.model.target)
			}
			if h.model.state != session.StateReady {
				t.Errorf("Expected Ready, got %v", h.model.state)
			}
			if got := h.factory.Last().Opts.Target; got != tt.want {
				t.Errorf("Client built for %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{})

	h.model.Update(tea.KeyMsg{Type: tea.KeyUp})
	if h.model.cursor != 0 {
		t.Errorf("Expected cursor 0, got %d", h.model.cursor)
	}
	for i := 0; i < 10; i++ {
		h.model.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if h.model.cursor != len(catalog.Choices())-1 {
		t.Errorf("Expected cursor on the last language, got %d", h.model.cursor)
	}
}

func TestModel_TypeText(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{})

	h.model.Update(runes("i"))
	if !h.model.typing {
		t.Fatal("Expected typing mode")
	}
	h.model.Update(runes("good morning"))
	h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if h.model.typing {
		t.Error("Expected typing mode to end")
	}
	if h.model.recognized != "good morning" {
		t.Errorf("Expected recognized 'good morning', got %q", h.model.recognized)
	}

	h.queue.RunNext(t)
	if h.model.translated != "vi:good morning" {
		t.Errorf("Expected translated 'vi:good morning', got %q", h.model.translated)
	}
}

func TestModel_TypeTextEscape(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{})

	h.model.Update(runes("i"))
	h.model.Update(runes("q"))
	if h.model.quitting {
		t.Fatal("Typing q must not quit")
	}
	h.model.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if h.model.typing || h.model.input.Value() != "" {
		t.Error("Expected input cleared and closed")
	}
	h.queue.AssertEmpty(t)
}

func TestModel_ToastExpires(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{})

	h.model.Notify("first")
	h.model.Notify("second")

	h.model.Update(toastExpiredMsg{id: h.model.toastID - 1})
	if h.model.toast != "second" {
		t.Errorf("Older expiry must not clear the newer toast, got %q", h.model.toast)
	}

	h.model.Update(toastExpiredMsg{id: h.model.toastID})
	if h.model.toast != "" {
		t.Errorf("Expected toast cleared, got %q", h.model.toast)
	}
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, &testutil.MockRecognizer{})

	_, cmd := h.model.Update(runes("q"))

	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if !h.model.quitting {
		t.Error("Expected quitting")
	}
	if h.factory.Last().CloseCount() != 1 {
		t.Errorf("Expected the session client closed once, got %d", h.factory.Last().CloseCount())
	}
	if h.model.View() != "" {
		t.Error("Expected empty view after quit")
	}

	h.model.shutdown()
	if h.factory.Last().CloseCount() != 1 {
		t.Error("Second shutdown must not release again")
	}
}
