package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoSpeech is returned when nobody spoke before the listen timeout
var ErrNoSpeech = errors.New("no speech detected")

// SourceOpener opens a fresh audio source for one recording
type SourceOpener func() (Source, error)

// RecorderConfig configures a Recorder
type RecorderConfig struct {
	SampleRate int
	Endpoint   EndpointConfig
	// ListenTimeout bounds the wait for the first speech
	ListenTimeout time.Duration
	// MaxDuration bounds the whole recording
	MaxDuration time.Duration
}

// DefaultRecorderConfig returns the defaults for a spoken phrase
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate:    DefaultSampleRate,
		Endpoint:      DefaultEndpointConfig(),
		ListenTimeout: 8 * time.Second,
		MaxDuration:   30 * time.Second,
	}
}

// Recording is one captured utterance
type Recording struct {
	Samples    []float32
	SampleRate int
	Duration   time.Duration
}

// WAV encodes the recording
func (r *Recording) WAV() ([]byte, error) {
	return EncodeWAV(r.Samples, r.SampleRate)
}

// DetectorFactory creates the voice detector of one recording
type DetectorFactory func() VoiceDetector

// Recorder records a single utterance. Every recording gets its own
// detector, so overlapping recordings share no detector state.
type Recorder struct {
	cfg         RecorderConfig
	open        SourceOpener
	newDetector DetectorFactory
	logger      *zap.SugaredLogger
}

// NewRecorder creates a recorder. A nil newDetector selects
// NewVoiceDetector with mode 2.
func NewRecorder(cfg RecorderConfig, open SourceOpener, newDetector DetectorFactory, logger *zap.SugaredLogger) *Recorder {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if newDetector == nil {
		rate := cfg.SampleRate
		newDetector = func() VoiceDetector { return NewVoiceDetector(rate, 2) }
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Recorder{cfg: cfg, open: open, newDetector: newDetector, logger: logger}
}

// Record captures audio until the speaker stops. If ctx is cancelled the
// context error is returned. Nothing but silence until ListenTimeout gives
// ErrNoSpeech.
func (r *Recorder) Record(ctx context.Context) (*Recording, error) {
	rec := &Recording{SampleRate: r.cfg.SampleRate}

	d, err := r.Stream(ctx, func(buf []float32) error {
		rec.Samples = append(rec.Samples, buf...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec.Duration = d
	return rec, nil
}

// Stream captures audio like Record but hands every buffer to sink as it
// arrives. It returns the length of the captured audio.
func (r *Recorder) Stream(ctx context.Context, sink func([]float32) error) (time.Duration, error) {
	source, err := r.open()
	if err != nil {
		return 0, fmt.Errorf("failed to open microphone: %w", err)
	}
	defer source.Close()

	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := source.Start(captureCtx); err != nil {
		return 0, err
	}

	return r.collect(ctx, source.Output(), r.newDetector(), sink)
}

func (r *Recorder) collect(ctx context.Context, buffers <-chan []float32, detector VoiceDetector, sink func([]float32) error) (time.Duration, error) {
	tracker := NewSpeechTracker(r.cfg.Endpoint)

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case buf, ok := <-buffers:
			if !ok {
				return r.finish(tracker)
			}

			speech, err := detector.IsSpeech(buf)
			if err != nil {
				return 0, err
			}

			d := time.Duration(len(buf)) * time.Second / time.Duration(r.cfg.SampleRate)
			state := tracker.Update(speech, d)
			if err := sink(buf); err != nil {
				return 0, err
			}

			if tracker.ShouldEndRecording() {
				r.logger.Debugw("end of utterance", "speech", state.SpeechDuration, "total", state.Elapsed)
				return state.Elapsed, nil
			}
			if !tracker.HeardSpeech() && r.cfg.ListenTimeout > 0 && state.Elapsed >= r.cfg.ListenTimeout {
				return 0, ErrNoSpeech
			}
			if r.cfg.MaxDuration > 0 && state.Elapsed >= r.cfg.MaxDuration {
				r.logger.Debugw("recording hit max duration", "max", r.cfg.MaxDuration)
				return r.finish(tracker)
			}
		}
	}
}

func (r *Recorder) finish(tracker *SpeechTracker) (time.Duration, error) {
	if !tracker.IsValidSpeech() {
		return 0, ErrNoSpeech
	}
	return tracker.State().Elapsed, nil
}
