package gui

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LogSink is an io.Writer for the logger's second output. Lines written
// before a viewer is attached are kept and replayed on Attach.
type LogSink struct {
	mu      sync.Mutex
	viewer  *LogViewer
	pending []string
	max     int
}

// NewLogSink creates a sink keeping at most 1000 unattached lines
func NewLogSink() *LogSink {
	return &LogSink{max: 1000}
}

// Write implements io.Writer
func (s *LogSink) Write(p []byte) (n int, err error) {
	lines := strings.Split(strings.TrimRight(string(p), "\n"), "\n")

	s.mu.Lock()
	viewer := s.viewer
	if viewer == nil {
		for _, line := range lines {
			if line != "" {
				s.pending = append(s.pending, line)
			}
		}
		if len(s.pending) > s.max {
			s.pending = s.pending[len(s.pending)-s.max:]
		}
	}
	s.mu.Unlock()

	if viewer != nil {
		for _, line := range lines {
			if line != "" {
				viewer.AddMessage(line)
			}
		}
	}

	return len(p), nil
}

// Attach sends all pending and future lines to v
func (s *LogSink) Attach(v *LogViewer) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.viewer = v
	s.mu.Unlock()

	for _, line := range pending {
		v.AddMessage(line)
	}
}

// Pending returns the lines not yet shown
func (s *LogSink) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// LogViewer is a widget that displays log messages
type LogViewer struct {
	widget.BaseWidget

	container  *fyne.Container
	logEntry   *widget.Entry
	scrollView *container.Scroll

	mu          sync.Mutex
	messages    []string
	maxMessages int
}

// NewLogViewer creates a new log viewer widget
func NewLogViewer() *LogViewer {
	v := &LogViewer{
		maxMessages: 1000, // Keep last 1000 messages
		messages:    make([]string, 0),
	}

	// Create log entry (read-only multiline)
	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable() // Make it read-only
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 140))
	v.scrollView.Direction = container.ScrollBoth

	v.container = container.NewBorder(
		widget.NewLabel("Log messages (newest first):"),
		nil,
		nil,
		nil,
		v.scrollView,
	)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

// AddMessage adds a message to the log. It may be called from any goroutine.
func (v *LogViewer) AddMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Lines carry the console encoder's timestamp already
	v.messages = append([]string{message}, v.messages...)
	if len(v.messages) > v.maxMessages {
		v.messages = v.messages[:v.maxMessages]
	}
	text := strings.Join(v.messages, "\n")

	// Update UI on main thread
	fyne.Do(func() {
		v.logEntry.SetText(text)

		// Keep scroll at top to show newest messages
		v.scrollView.Offset = fyne.NewPos(0, 0)
		v.scrollView.Refresh()
	})
}

// Clear clears all log messages
func (v *LogViewer) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages = v.messages[:0]

	fyne.Do(func() {
		v.logEntry.SetText("")
		v.scrollView.Offset = fyne.NewPos(0, 0)
		v.scrollView.Refresh()
	})
}
