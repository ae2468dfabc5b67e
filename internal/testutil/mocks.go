package testutil

import (
	"context"
	"errors"
	"sync"

	"codeberg.org/snonux/voxlate/internal/speech"
	"codeberg.org/snonux/voxlate/internal/translation"
)

// MockClient is a translation client with scripted outcomes. Its model
// check and translations block until released with the matching channel if
// Hold is set.
type MockClient struct {
	Opts         translation.Options
	DownloadErr  error
	TranslateErr error
	Hold         bool

	mu          sync.Mutex
	closeCount  int
	translated  []string
	downloadGo  chan struct{}
	translateGo chan struct{}
}

// NewMockClient creates a client for opts
func NewMockClient(opts translation.Options) *MockClient {
	return &MockClient{
		Opts:        opts,
		downloadGo:  make(chan struct{}),
		translateGo: make(chan struct{}),
	}
}

// DownloadModelIfNeeded returns DownloadErr, after ReleaseDownload if Hold is set
func (m *MockClient) DownloadModelIfNeeded(ctx context.Context, conditions translation.DownloadConditions) error {
	if m.Hold {
		select {
		case <-m.downloadGo:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.DownloadErr
}

// Translate records text and returns "<code>:<text>" or TranslateErr
func (m *MockClient) Translate(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.translated = append(m.translated, text)
	closed := m.closeCount > 0
	m.mu.Unlock()

	if closed {
		return "", translation.ErrClosed
	}
	if m.Hold {
		select {
		case <-m.translateGo:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.TranslateErr != nil {
		return "", m.TranslateErr
	}
	return m.Opts.Target.Code() + ":" + text, nil
}

// Close counts releases
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCount++
	return nil
}

// ReleaseDownload lets a held model check finish
func (m *MockClient) ReleaseDownload() {
	close(m.downloadGo)
}

// ReleaseTranslate lets held translations finish
func (m *MockClient) ReleaseTranslate() {
	close(m.translateGo)
}

// CloseCount returns how often Close was called
func (m *MockClient) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// Translated returns the texts passed to Translate
func (m *MockClient) Translated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.translated...)
}

// MockFactory creates MockClients and remembers them
type MockFactory struct {
	// Configure adjusts each new client before it is returned, may be nil
	Configure func(c *MockClient)
	// Err makes NewClient fail
	Err error

	mu      sync.Mutex
	clients []*MockClient
}

// NewClient creates a MockClient for opts
func (f *MockFactory) NewClient(opts translation.Options) (translation.Client, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	c := NewMockClient(opts)
	if f.Configure != nil {
		f.Configure(c)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, c)
	return c, nil
}

// Engine returns "mock"
func (f *MockFactory) Engine() string {
	return "mock"
}

// Clients returns all clients created so far
func (f *MockFactory) Clients() []*MockClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockClient(nil), f.clients...)
}

// Last returns the most recently created client
func (f *MockFactory) Last() *MockClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clients) == 0 {
		return nil
	}
	return f.clients[len(f.clients)-1]
}

// Live counts the clients that have not been closed
func (f *MockFactory) Live() int {
	n := 0
	for _, c := range f.Clients() {
		if c.CloseCount() == 0 {
			n++
		}
	}
	return n
}

// MockRecognizer returns a scripted recognition outcome
type MockRecognizer struct {
	Transcripts []string
	Err         error
	Unavailable error

	mu       sync.Mutex
	requests []speech.Request
}

// Recognize records req and returns the scripted outcome
func (m *MockRecognizer) Recognize(ctx context.Context, req speech.Request) (*speech.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return &speech.Result{Transcripts: append([]string(nil), m.Transcripts...)}, nil
}

// Name returns "mock"
func (m *MockRecognizer) Name() string {
	return "mock"
}

// IsAvailable returns Unavailable
func (m *MockRecognizer) IsAvailable() error {
	return m.Unavailable
}

// Requests returns the requests seen so far
func (m *MockRecognizer) Requests() []speech.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]speech.Request(nil), m.requests...)
}

// ErrMicrophoneDenied is returned by a denying MockMicrophone
var ErrMicrophoneDenied = errors.New("microphone access denied")

// MockMicrophone is a microphone access check with a fixed answer
type MockMicrophone struct {
	Allow bool

	mu       sync.Mutex
	granted  bool
	requests int
}

// Granted reports whether access was granted
func (m *MockMicrophone) Granted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.granted
}

// Request grants or denies access
func (m *MockMicrophone) Request(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if !m.Allow {
		return ErrMicrophoneDenied
	}
	m.granted = true
	return nil
}

// Requests returns the number of Request calls
func (m *MockMicrophone) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// RecordingView records what a screen shows
type RecordingView struct {
	mu         sync.Mutex
	Recognized []string
	Translated []string
	Notices    []string
}

// ShowRecognized records text
func (v *RecordingView) ShowRecognized(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Recognized = append(v.Recognized, text)
}

// ShowTranslated records text
func (v *RecordingView) ShowTranslated(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Translated = append(v.Translated, text)
}

// Notify records message
func (v *RecordingView) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Notices = append(v.Notices, message)
}

// LastRecognized returns the most recent recognized text or ""
func (v *RecordingView) LastRecognized() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return last(v.Recognized)
}

// LastTranslated returns the most recent translation or ""
func (v *RecordingView) LastTranslated() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return last(v.Translated)
}

// NoticeCount returns the number of notifications shown
func (v *RecordingView) NoticeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.Notices)
}

func last(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
