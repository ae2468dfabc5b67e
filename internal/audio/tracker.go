package audio

import "time"

// EndpointConfig controls end-of-utterance detection
type EndpointConfig struct {
	// SilenceDuration is how long silence must last after speech to end
	// the utterance
	SilenceDuration time.Duration

	// MinSpeechDuration is the minimum amount of speech for a valid
	// utterance
	MinSpeechDuration time.Duration
}

// DefaultEndpointConfig returns the defaults for push-to-talk phrases
func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		SilenceDuration:   1200 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
	}
}

// SpeechState is a snapshot of the tracker
type SpeechState struct {
	IsSpeaking      bool
	SpeechDuration  time.Duration
	SilenceDuration time.Duration
	Elapsed         time.Duration
}

// SpeechTracker follows speech and silence over audio time. It is fed the
// duration of each classified buffer rather than wall clock time, so it
// behaves the same on live and prerecorded audio.
type SpeechTracker struct {
	config        EndpointConfig
	state         SpeechState
	speechStarted bool
}

// NewSpeechTracker creates a new speech tracker
func NewSpeechTracker(cfg EndpointConfig) *SpeechTracker {
	return &SpeechTracker{config: cfg}
}

// Update advances the tracker by one buffer of length d
func (t *SpeechTracker) Update(isSpeech bool, d time.Duration) SpeechState {
	t.state.Elapsed += d

	if isSpeech {
		t.speechStarted = true
		t.state.IsSpeaking = true
		t.state.SpeechDuration += d
		t.state.SilenceDuration = 0
		return t.state
	}

	if t.speechStarted {
		t.state.SilenceDuration += d
		if t.state.SilenceDuration >= t.config.SilenceDuration {
			t.state.IsSpeaking = false
		}
	}
	return t.state
}

// ShouldEndRecording reports whether enough speech was followed by enough
// silence
func (t *SpeechTracker) ShouldEndRecording() bool {
	return t.speechStarted &&
		t.state.SilenceDuration >= t.config.SilenceDuration &&
		t.state.SpeechDuration >= t.config.MinSpeechDuration
}

// IsValidSpeech reports whether enough speech has been captured
func (t *SpeechTracker) IsValidSpeech() bool {
	return t.state.SpeechDuration >= t.config.MinSpeechDuration
}

// HeardSpeech reports whether any speech was seen
func (t *SpeechTracker) HeardSpeech() bool {
	return t.speechStarted
}

// Reset clears the tracker
func (t *SpeechTracker) Reset() {
	t.state = SpeechState{}
	t.speechStarted = false
}

// State returns the current speech state
func (t *SpeechTracker) State() SpeechState {
	return t.state
}
