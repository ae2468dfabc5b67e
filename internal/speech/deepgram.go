package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/snonux/voxlate/internal/audio"
)

const deepgramWSURL = "wss://api.deepgram.com/v1/listen"

// DeepgramConfig holds configuration for the Deepgram recognizer
type DeepgramConfig struct {
	APIKey     string
	Model      string // e.g. "nova-2"
	URL        string // defaults to the Deepgram listen endpoint
	SampleRate int
	Punctuate  bool
	// FinalizeTimeout bounds the wait for final results after the audio
	// stream was closed
	FinalizeTimeout time.Duration
}

// DefaultDeepgramConfig returns defaults for 16 kHz linear PCM
func DefaultDeepgramConfig() DeepgramConfig {
	return DeepgramConfig{
		Model:           "nova-2",
		URL:             deepgramWSURL,
		SampleRate:      audio.DefaultSampleRate,
		Punctuate:       true,
		FinalizeTimeout: 5 * time.Second,
	}
}

// deepgramResponse represents a Deepgram websocket response
type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

// DeepgramRecognizer streams microphone audio to Deepgram while the user
// speaks and joins the final transcript segments
type DeepgramRecognizer struct {
	cfg    DeepgramConfig
	source AudioSource
	dialer *websocket.Dialer
}

// NewDeepgramRecognizer creates a Deepgram recognizer streaming from source
func NewDeepgramRecognizer(cfg DeepgramConfig, source AudioSource) *DeepgramRecognizer {
	def := DefaultDeepgramConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FinalizeTimeout == 0 {
		cfg.FinalizeTimeout = def.FinalizeTimeout
	}
	return &DeepgramRecognizer{cfg: cfg, source: source, dialer: websocket.DefaultDialer}
}

func (d *DeepgramRecognizer) listenURL(language string) string {
	q := url.Values{}
	q.Set("model", d.cfg.Model)
	q.Set("language", language)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(d.cfg.SampleRate))
	q.Set("channels", "1")
	q.Set("punctuate", strconv.FormatBool(d.cfg.Punctuate))
	return d.cfg.URL + "?" + q.Encode()
}

// Recognize streams one utterance and returns the joined final transcript
func (d *DeepgramRecognizer) Recognize(ctx context.Context, req Request) (*Result, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.cfg.APIKey)

	conn, _, err := d.dialer.DialContext(ctx, d.listenURL(req.Language), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram: %w", err)
	}
	defer conn.Close()

	finals := newSegments()
	readDone := make(chan error, 1)
	go func() {
		readDone <- d.readLoop(conn, finals)
	}()

	var writeMu sync.Mutex
	_, streamErr := d.source.Stream(ctx, func(buf []float32) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.BinaryMessage, audio.Int16ToBytes(audio.Float32ToInt16(buf)))
	})

	writeMu.Lock()
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "CloseStream"}`))
	writeMu.Unlock()

	if streamErr != nil {
		return nil, streamErr
	}

	// Deepgram flushes the remaining results and closes the socket
	select {
	case err := <-readDone:
		if err != nil {
			return nil, err
		}
	case <-time.After(d.cfg.FinalizeTimeout):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	result := &Result{}
	if text := finals.join(); text != "" {
		result.Transcripts = []string{text}
	}
	return result, nil
}

// readLoop collects final segments until the server closes the connection
func (d *DeepgramRecognizer) readLoop(conn *websocket.Conn, finals *segments) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) || finals.len() > 0 {
				return nil
			}
			return fmt.Errorf("deepgram read error: %w", err)
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Type != "Results" || !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
			continue
		}

		finals.add(resp.Channel.Alternatives[0].Transcript)
	}
}

// Name returns the recognizer name
func (d *DeepgramRecognizer) Name() string {
	return "deepgram"
}

// IsAvailable checks that an API key and an audio source are configured
func (d *DeepgramRecognizer) IsAvailable() error {
	if d.cfg.APIKey == "" {
		return fmt.Errorf("Deepgram API key not found")
	}
	if d.source == nil {
		return fmt.Errorf("no audio source")
	}
	return nil
}

type segments struct {
	mu    sync.Mutex
	parts []string
}

func newSegments() *segments {
	return &segments{}
}

func (s *segments) add(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = append(s.parts, text)
}

func (s *segments) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parts)
}

func (s *segments) join() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.parts, " ")
}
