package audio

import (
	"fmt"
	"math"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// VoiceDetector classifies a buffer of samples as speech or silence
type VoiceDetector interface {
	IsSpeech(samples []float32) (bool, error)
}

// WebRTCDetector uses the WebRTC voice activity detector. The C handle is
// not reentrant, calls to IsSpeech are serialized.
type WebRTCDetector struct {
	mu         sync.Mutex
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCDetector creates a detector. mode is the aggressiveness, 0-3.
func NewWebRTCDetector(sampleRate, mode int) (*WebRTCDetector, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d, must be 8000, 16000, 32000 or 48000", sampleRate)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	return &WebRTCDetector{vad: vad, sampleRate: sampleRate}, nil
}

// IsSpeech reports true if any 10ms frame of samples contains speech
func (w *WebRTCDetector) IsSpeech(samples []float32) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	frameSize := w.sampleRate / 100
	pcm := Float32ToInt16(samples)

	if len(pcm) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, pcm)
		pcm = padded
	}

	for i := 0; i+frameSize <= len(pcm); i += frameSize {
		active, err := w.vad.Process(w.sampleRate, Int16ToBytes(pcm[i:i+frameSize]))
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

// EnergyDetector treats buffers above an RMS threshold as speech. It is
// used when the WebRTC detector cannot be created.
type EnergyDetector struct {
	Threshold float64
}

// IsSpeech compares the RMS of samples with the threshold
func (e EnergyDetector) IsSpeech(samples []float32) (bool, error) {
	if len(samples) == 0 {
		return false, nil
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum/float64(len(samples))) >= e.Threshold, nil
}

// NewVoiceDetector returns a WebRTC detector, or an energy detector if
// WebRTC is unavailable for sampleRate
func NewVoiceDetector(sampleRate, mode int) VoiceDetector {
	if d, err := NewWebRTCDetector(sampleRate, mode); err == nil {
		return d
	}
	return EnergyDetector{Threshold: 0.02}
}

// Float32ToInt16 converts samples in [-1, 1] to 16-bit PCM, clamping
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// Int16ToBytes converts samples to little-endian bytes
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
