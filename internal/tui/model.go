// Package tui is the terminal frontend of the speak-and-translate screen,
// built with bubbletea. Screen callbacks are delivered as messages so they
// run inside Update like every other state change.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal"
	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/event"
	"codeberg.org/snonux/voxlate/internal/screen"
	"codeberg.org/snonux/voxlate/internal/session"
	"codeberg.org/snonux/voxlate/internal/speech"
)

// ToastDuration is how long a notice stays visible
const ToastDuration = 3 * time.Second

// Config holds the collaborators of the terminal screen
type Config struct {
	// Screen carries the collaborators shared by all frontends. View,
	// Dispatcher and Launcher are filled in by NewModel.
	Screen     screen.Config
	Recognizer speech.Recognizer
	Initial    catalog.Language
}

// dispatchMsg carries a function dispatched to the UI thread
type dispatchMsg func()

type startMsg struct{}

type toastExpiredMsg struct{ id int }

// Model is the bubbletea model of the screen
type Model struct {
	cfg      Config
	screen   *screen.Screen
	launcher *speech.Launcher
	logger   *zap.SugaredLogger

	choices []catalog.Choice
	cursor  int
	target  catalog.Language
	state   session.State

	recognized string
	translated string
	prompt     string
	toast      string
	toastID    int

	input  textinput.Model
	typing bool

	spinner  spinner.Model
	spinning bool
	keys     keyMap
	help     help.Model
	width    int

	// commands produced by screen callbacks, returned by the next Update
	cmds     []tea.Cmd
	quitting bool
}

// NewModel wires a screen to the model. dispatcher must deliver functions
// to the model as dispatchMsg, see Run.
func NewModel(cfg Config, dispatcher event.Dispatcher) *Model {
	if cfg.Initial.IsZero() {
		cfg.Initial = catalog.Default()
	}
	logger := cfg.Screen.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = PromptStyle

	input := textinput.New()
	input.Placeholder = "English text, enter to translate, esc to cancel"
	input.CharLimit = 500

	m := &Model{
		cfg:     cfg,
		logger:  logger,
		choices: catalog.Choices(),
		target:  cfg.Initial,
		input:   input,
		spinner: sp,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	for i, c := range m.choices {
		if c.Code == cfg.Initial.Code() {
			m.cursor = i
		}
	}

	m.launcher = speech.NewLauncher(cfg.Recognizer, dispatcher, logger)
	m.launcher.SetPrompt(m.showPrompt)

	screenCfg := cfg.Screen
	screenCfg.View = m
	screenCfg.Dispatcher = dispatcher
	screenCfg.Launcher = m.launcher
	next := cfg.Screen.OnSessionState
	screenCfg.OnSessionState = func(state session.State, target catalog.Language) {
		m.showSessionState(state, target)
		if next != nil {
			next(state, target)
		}
	}
	m.screen = screen.New(screenCfg)

	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		if err := m.screen.Start(m.cfg.Initial); err != nil {
			m.Notify(err.Error())
		}

	case dispatchMsg:
		msg()

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.cmds = append(m.cmds, cmd)
		} else {
			m.spinning = false
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if m.typing {
			m.handleInputKey(msg)
		} else {
			m.handleKey(msg)
		}
	}

	return m, m.takeCmds()
}

func (m *Model) takeCmds() tea.Cmd {
	if len(m.cmds) == 0 {
		return nil
	}
	cmds := m.cmds
	m.cmds = nil
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		m.selectCursor()
	case key.Matches(msg, m.keys.Speak):
		m.screen.Speak()
	case key.Matches(msg, m.keys.Type):
		m.typing = true
		m.cmds = append(m.cmds, m.input.Focus())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		// 1-5 jump to a language and select it
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(m.choices) {
			m.cursor = int(s[0] - '1')
			m.selectCursor()
		}
	}
}

func (m *Model) handleInputKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.stopTyping()
		if text != "" {
			m.screen.Translate(text)
		}
	case tea.KeyEsc:
		m.stopTyping()
	case tea.KeyCtrlC:
		m.quit()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.cmds = append(m.cmds, cmd)
	}
}

func (m *Model) stopTyping() {
	m.typing = false
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) selectCursor() {
	if err := m.screen.SelectLanguage(m.choices[m.cursor].Name); err != nil {
		m.Notify(err.Error())
	}
}

func (m *Model) quit() {
	m.shutdown()
	m.cmds = append(m.cmds, tea.Quit)
}

// shutdown destroys the screen once
func (m *Model) shutdown() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.launcher.Cancel()
	m.screen.Destroy()
}

func (m *Model) busy() bool {
	return m.state == session.StateConfiguring || m.prompt != ""
}

func (m *Model) startSpinner() {
	if m.spinning {
		return
	}
	m.spinning = true
	m.cmds = append(m.cmds, m.spinner.Tick)
}

// ShowRecognized implements screen.View
func (m *Model) ShowRecognized(text string) {
	m.recognized = text
}

// ShowTranslated implements screen.View
func (m *Model) ShowTranslated(text string) {
	m.translated = text
}

// Notify implements screen.View. The notice disappears after ToastDuration.
func (m *Model) Notify(message string) {
	m.toastID++
	m.toast = message
	id := m.toastID
	m.cmds = append(m.cmds, tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	}))
}

func (m *Model) showPrompt(prompt string) {
	m.prompt = prompt
	if prompt != "" {
		m.startSpinner()
	}
}

func (m *Model) showSessionState(state session.State, target catalog.Language) {
	m.state = state
	m.target = target
	if state == session.StateConfiguring {
		m.startSpinner()
	}
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render("voxlate") + " " + SectionStyle.Render("v"+internal.Version))
	b.WriteString("\n\n")

	b.WriteString(SectionStyle.Render("Translate to"))
	b.WriteString("\n")
	for i, c := range m.choices {
		cursor := "  "
		if i == m.cursor {
			cursor = CursorStyle.Render("> ")
		}
		name := ItemStyle.Render(fmt.Sprintf("%d %s (%s)", i+1, c.Name, c.Code))
		line := cursor + name
		if c.Code == m.target.Code() {
			line = cursor + SelectedStyle.Render(fmt.Sprintf("%d %s (%s)", i+1, c.Name, c.Code)) + "  " + m.renderState()
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	width := m.width - 4
	if width < 20 {
		width = 60
	}
	b.WriteString(SectionStyle.Render("You said"))
	b.WriteString("\n")
	b.WriteString(TextPanelStyle.Width(width).Render(orDash(m.recognized)))
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render("Translation"))
	b.WriteString("\n")
	b.WriteString(TranslationPanelStyle.Width(width).Render(orDash(m.translated)))
	b.WriteString("\n\n")

	if m.prompt != "" {
		b.WriteString(m.spinner.View() + " " + PromptStyle.Render(m.prompt) + "\n")
	}
	if m.typing {
		b.WriteString(m.input.View() + "\n")
	}
	if m.toast != "" {
		b.WriteString(ToastStyle.Render(m.toast) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderState() string {
	switch m.state {
	case session.StateConfiguring:
		return m.spinner.View() + " preparing"
	case session.StateReady:
		return ReadyStyle.Render("ready")
	case session.StateFailed:
		return FailedStyle.Render("unavailable")
	default:
		return ""
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
