package gui

import (
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"go.uber.org/zap"

	"codeberg.org/snonux/voxlate/internal"
	"codeberg.org/snonux/voxlate/internal/catalog"
	"codeberg.org/snonux/voxlate/internal/event"
	"codeberg.org/snonux/voxlate/internal/screen"
	"codeberg.org/snonux/voxlate/internal/session"
	"codeberg.org/snonux/voxlate/internal/shortcut"
	"codeberg.org/snonux/voxlate/internal/speech"
)

const (
	recognizedPlaceholder = "Recognized text will appear here..."
	translatedPlaceholder = "Translation will appear here..."
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	recognizedLabel *widget.Label
	translatedLabel *widget.Label
	languageSelect  *widget.Select
	textInput       *widget.Entry
	translateButton *ttwidget.Button
	speakButton     *ttwidget.Button
	helpButton      *ttwidget.Button
	stateLabel      *widget.Label
	stateProgress   *widget.ProgressBarInfinite
	statusLabel     *widget.Label
	logViewer       *LogViewer

	// Screen and collaborators
	screen   *screen.Screen
	launcher *speech.Launcher
	hotkey   *shortcut.Listener

	config *Config
	logger *zap.SugaredLogger
}

// Config holds GUI application configuration
type Config struct {
	// Screen carries the collaborators shared by all frontends. View,
	// Dispatcher and Launcher are filled in by New.
	Screen     screen.Config
	Recognizer speech.Recognizer
	Initial    catalog.Language
	Hotkey     string   // global push-to-talk, empty disables it
	Logs       *LogSink // optional, receives the logger's second output

	// Notifications additionally sends every notice as a desktop notification
	Notifications bool
}

// New creates a new GUI application
func New(config *Config) *Application {
	if config == nil {
		config = &Config{}
	}
	if config.Initial.IsZero() {
		config.Initial = catalog.Default()
	}

	logger := config.Screen.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	a := &Application{
		config: config,
		logger: logger,
	}

	a.app = app.NewWithID("org.codeberg.snonux.voxlate")
	a.app.SetIcon(GetAppIcon())
	a.window = a.app.NewWindow("voxlate")
	a.window.Resize(fyne.NewSize(720, 560))

	dispatcher := event.DispatcherFunc(fyne.Do)
	a.launcher = speech.NewLauncher(config.Recognizer, dispatcher, logger)
	a.launcher.SetPrompt(a.showPrompt)

	screenCfg := config.Screen
	screenCfg.View = a
	screenCfg.Dispatcher = dispatcher
	screenCfg.Launcher = a.launcher
	screenCfg.OnSessionState = a.chainSessionState(config.Screen.OnSessionState)
	a.screen = screen.New(screenCfg)

	a.setupUI()
	return a
}

func (a *Application) chainSessionState(next func(session.State, catalog.Language)) func(session.State, catalog.Language) {
	return func(state session.State, target catalog.Language) {
		a.showSessionState(state, target)
		if next != nil {
			next(state, target)
		}
	}
}

// setupUI creates the user interface
func (a *Application) setupUI() {
	// Language selection
	a.languageSelect = widget.NewSelect(catalog.Names(), nil)
	a.languageSelect.SetSelected(a.config.Initial.Name())
	a.languageSelect.OnChanged = a.onLanguageChanged

	a.stateLabel = widget.NewLabel("")
	a.stateProgress = widget.NewProgressBarInfinite()
	a.stateProgress.Hide()

	languageRow := container.NewBorder(
		nil, nil,
		widget.NewLabel("Translate to:"),
		a.stateLabel,
		a.languageSelect,
	)

	// Create action buttons (tooltips will be set after tooltip layer is created)
	a.speakButton = ttwidget.NewButtonWithIcon("Speak", theme.MediaRecordIcon(), a.onSpeak)
	a.speakButton.Importance = widget.HighImportance
	a.helpButton = ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	a.textInput = widget.NewEntry()
	a.textInput.SetPlaceHolder("Or type English text and press Enter...")
	a.textInput.OnSubmitted = func(string) { a.onTranslateText() }
	a.translateButton = ttwidget.NewButtonWithIcon("", theme.MailForwardIcon(), a.onTranslateText)

	inputRow := container.NewBorder(
		nil, nil,
		a.speakButton,
		container.NewHBox(a.translateButton, a.helpButton),
		a.textInput,
	)

	// Result display
	a.recognizedLabel = widget.NewLabel(recognizedPlaceholder)
	a.recognizedLabel.Wrapping = fyne.TextWrapWord

	a.translatedLabel = widget.NewLabel(translatedPlaceholder)
	a.translatedLabel.Wrapping = fyne.TextWrapWord
	a.translatedLabel.TextStyle = fyne.TextStyle{Bold: true}

	results := container.NewVBox(
		widget.NewCard("You said", "", a.recognizedLabel),
		widget.NewCard("Translation", "", a.translatedLabel),
	)

	// Status section
	a.statusLabel = widget.NewLabel("Ready")
	a.logViewer = NewLogViewer()
	if a.config.Logs != nil {
		a.config.Logs.Attach(a.logViewer)
	}

	statusSection := container.NewVBox(
		a.stateProgress,
		widget.NewSeparator(),
		a.statusLabel,
	)

	top := container.NewVBox(languageRow, widget.NewSeparator(), inputRow)
	body := container.NewBorder(top, statusSection, nil, nil, container.NewVScroll(results))

	split := container.NewVSplit(body, a.logViewer)
	split.SetOffset(0.75)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(split, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	a.setupTooltips()

	a.window.SetOnClosed(func() {
		a.hotkey.Close()
		a.launcher.Cancel()
		a.screen.Destroy()
	})

	// Set up keyboard shortcuts
	a.setupKeyboardShortcuts()
}

// Run starts the GUI application
func (a *Application) Run() {
	a.app.Lifecycle().SetOnStarted(func() {
		if err := a.screen.Start(a.config.Initial); err != nil {
			a.showError(err)
		}
		a.registerHotkey()
	})

	a.window.ShowAndRun()
}

func (a *Application) registerHotkey() {
	if a.config.Hotkey == "" {
		return
	}

	combo, err := shortcut.Parse(a.config.Hotkey)
	if err != nil {
		a.logger.Warnw("invalid hotkey", "hotkey", a.config.Hotkey, "error", err)
		return
	}

	listener, err := shortcut.Register(combo, func() { fyne.Do(a.onSpeak) }, a.logger)
	if err != nil {
		a.logger.Warnw("global hotkey not available", "hotkey", combo.String(), "error", err)
		return
	}
	a.hotkey = listener
	a.speakButton.SetToolTip(fmt.Sprintf("Speak (space, %s)", combo))
}

// ShowRecognized implements screen.View
func (a *Application) ShowRecognized(text string) {
	a.recognizedLabel.SetText(text)
}

// ShowTranslated implements screen.View
func (a *Application) ShowTranslated(text string) {
	a.translatedLabel.SetText(text)
}

// Notify implements screen.View
func (a *Application) Notify(message string) {
	a.updateStatus(message)
	if a.config.Notifications {
		a.app.SendNotification(fyne.NewNotification("voxlate", message))
	}
}

// onSpeak is shared by the button, the space key and the global hotkey,
// the latter bypasses the disabled button.
func (a *Application) onSpeak() {
	if a.speakButton.Disabled() {
		return
	}
	a.screen.Speak()
}

func (a *Application) onTranslateText() {
	text := strings.TrimSpace(a.textInput.Text)
	if text == "" {
		return
	}
	a.textInput.SetText("")
	a.screen.Translate(text)
}

func (a *Application) onLanguageChanged(name string) {
	if err := a.screen.SelectLanguage(name); err != nil {
		a.showError(err)
	}
}

func (a *Application) showPrompt(prompt string) {
	if prompt != "" {
		a.speakButton.Disable()
		a.updateStatus(prompt)
		return
	}
	a.speakButton.Enable()
	if a.statusLabel.Text == screen.SpeechPrompt {
		a.updateStatus("Ready")
	}
}

func (a *Application) showSessionState(state session.State, target catalog.Language) {
	switch state {
	case session.StateConfiguring:
		a.stateLabel.SetText(fmt.Sprintf("Preparing %s...", target.Name()))
		a.stateProgress.Show()
		a.stateProgress.Start()
	case session.StateReady:
		a.stateLabel.SetText(fmt.Sprintf("%s ready", target.Name()))
		a.stateProgress.Stop()
		a.stateProgress.Hide()
	case session.StateFailed:
		a.stateLabel.SetText(fmt.Sprintf("%s unavailable", target.Name()))
		a.stateProgress.Stop()
		a.stateProgress.Hide()
	default:
		a.stateLabel.SetText("")
		a.stateProgress.Stop()
		a.stateProgress.Hide()
	}
}

func (a *Application) onShowHotkeys() {
	hotkeys := `[Project Page: https://codeberg.org/snonux/voxlate](https://codeberg.org/snonux/voxlate)

---

## Speech
**Space** or **s** Speak
**Enter** Translate typed text

## Focus Fields
**t** Focus text input
**Esc** Unfocus field

## Languages
**1-5** Select target language

## Help
**h** Show hotkeys
**c** Close dialog
**q** Quit application

---
*voxlate ` + internal.Version + `*`

	if a.config.Hotkey != "" {
		hotkeys = strings.Replace(hotkeys, "## Focus Fields",
			"**"+a.config.Hotkey+"** Speak from any application\n\n## Focus Fields", 1)
	}

	content := widget.NewRichTextFromMarkdown(hotkeys)
	content.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(container.NewPadded(content))
	scroll.SetMinSize(fyne.NewSize(420, 380))

	d := dialog.NewCustom("Keyboard Shortcuts", "Close", scroll, a.window)

	dialogOpen := true
	originalRuneHandler := a.window.Canvas().OnTypedRune()

	// Temporary handler for 'c' to close the dialog
	a.window.Canvas().SetOnTypedRune(func(r rune) {
		if dialogOpen && (r == 'c' || r == 'C') {
			d.Hide()
			return
		}
		if originalRuneHandler != nil {
			originalRuneHandler(r)
		}
	})

	d.Show()

	d.SetOnClosed(func() {
		dialogOpen = false
		a.setupKeyboardShortcuts()
	})
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		a.updateStatus("Error: " + err.Error())
		return
	}
	dialog.ShowError(err, a.window)
	a.updateStatus("Error: " + err.Error())
}

// setupTooltips sets up all tooltips after the tooltip layer has been created
func (a *Application) setupTooltips() {
	a.speakButton.SetToolTip("Speak (space)")
	a.translateButton.SetToolTip("Translate typed text (Enter)")
	a.helpButton.SetToolTip("Show hotkeys (h)")
}

func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedRune(func(r rune) {
		// Let the character be typed normally into the text input
		if a.window.Canvas().Focused() == a.textInput {
			return
		}

		switch r {
		case ' ', 's', 'S':
			if !a.speakButton.Disabled() {
				a.onSpeak()
			}
		case 't', 'T':
			a.window.Canvas().Focus(a.textInput)
		case 'h', 'H':
			a.onShowHotkeys()
		case 'q', 'Q':
			a.window.Close()
		case '1', '2', '3', '4', '5':
			names := catalog.Names()
			if i := int(r - '1'); i < len(names) {
				a.languageSelect.SetSelected(names[i])
			}
		}
	})

	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.window.Canvas().Unfocus()
		}
	})
}
