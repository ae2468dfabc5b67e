package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// DefaultSampleRate is the capture rate expected by Whisper and Deepgram
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is 30ms at 16 kHz
	DefaultFramesPerBuffer = 480

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// Source produces buffers of float32 samples in [-1, 1]
type Source interface {
	Start(ctx context.Context) error
	Output() <-chan []float32
	Close() error
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate float64
	BufferSize int
	Channels   int
	DeviceName string // Name of the input device (empty = default)
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
		Channels:   DefaultChannels,
	}
}

// Capture handles audio input from the microphone
type Capture struct {
	mu          sync.Mutex
	cfg         CaptureConfig
	stream      *portaudio.Stream
	running     bool
	output      chan []float32
	initialized bool
	closeOnce   sync.Once
}

// NewCapture initializes PortAudio and creates a capture for cfg
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Capture{
		cfg:         cfg,
		output:      make(chan []float32, 100),
		initialized: true,
	}, nil
}

// Start opens the input stream and begins pushing buffers to Output
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]float32, c.cfg.BufferSize*c.cfg.Channels)

	stream, err := c.openStream(buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.stream = stream
	c.running = true

	go c.captureLoop(ctx, stream, buffer)
	return nil
}

func (c *Capture) openStream(buffer []float32) (*portaudio.Stream, error) {
	if c.cfg.DeviceName != "" && c.cfg.DeviceName != "default" {
		if device, err := findInputDevice(c.cfg.DeviceName); err == nil {
			return portaudio.OpenStream(portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: c.cfg.Channels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      c.cfg.SampleRate,
				FramesPerBuffer: c.cfg.BufferSize,
			}, buffer)
		}
		// Unknown device names fall back to the default input
	}

	return portaudio.OpenDefaultStream(c.cfg.Channels, 0, c.cfg.SampleRate, c.cfg.BufferSize, buffer)
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("device not found: %s", name)
}

func (c *Capture) captureLoop(ctx context.Context, stream *portaudio.Stream, buffer []float32) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := stream.Read(); err != nil {
			c.mu.Lock()
			running := c.running
			c.mu.Unlock()
			if !running {
				return
			}
			continue
		}

		samples := make([]float32, len(buffer))
		copy(samples, buffer)

		select {
		case c.output <- samples:
		case <-ctx.Done():
			return
		default:
			// Consumer is behind, drop the buffer
		}
	}
}

// Output returns the channel that receives audio buffers
func (c *Capture) Output() <-chan []float32 {
	return c.output
}

// Stop stops the input stream
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	if c.stream != nil {
		_ = c.stream.Stop()
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("failed to close audio stream: %w", err)
		}
		c.stream = nil
	}
	return nil
}

// Close stops capture and terminates PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.initialized {
			if termErr := portaudio.Terminate(); termErr != nil {
				err = fmt.Errorf("failed to terminate PortAudio: %w", termErr)
			}
			c.initialized = false
		}
	})
	return err
}

// DeviceInfo describes an input device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices returns the available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var inputs []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputs = append(inputs, DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultName,
			})
		}
	}
	return inputs, nil
}
