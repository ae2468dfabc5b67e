package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/youpy/go-wav"
)

// EncodeWAV encodes mono samples as 16-bit PCM WAV
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer

	pcm := Float32ToInt16(samples)
	out := make([]wav.Sample, len(pcm))
	for i, s := range pcm {
		out[i].Values[0] = int(s)
	}

	writer := wav.NewWriter(&buf, uint32(len(out)), 1, uint32(sampleRate), 16)
	if err := writer.WriteSamples(out); err != nil {
		return nil, fmt.Errorf("failed to write WAV samples: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV reads the first channel of a 16-bit PCM WAV file
func DecodeWAV(data []byte) ([]int16, int, error) {
	reader := wav.NewReader(bytes.NewReader(data))

	format, err := reader.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV format: %w", err)
	}
	if format.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported WAV sample size %d", format.BitsPerSample)
	}

	var pcm []int16
	for {
		samples, err := reader.ReadSamples()
		for _, s := range samples {
			pcm = append(pcm, int16(s.Values[0]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read WAV samples: %w", err)
		}
	}

	return pcm, int(format.SampleRate), nil
}
