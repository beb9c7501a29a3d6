// Package tone writes short sine-wave WAV files. They give the generate
// command a known input without shipping audio fixtures.
package tone

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultFrequency  = 440.0
	DefaultDuration   = 2 * time.Second
	DefaultSampleRate = 44100
	DefaultFileName   = "tone.wav"

	bitDepth  = 16
	pcmFormat = 1
	peak      = math.MaxInt16 / 2
)

// Spec describes the tone to write. Zero fields take the defaults.
type Spec struct {
	Frequency  float64
	Duration   time.Duration
	SampleRate int
}

func (s Spec) withDefaults() (Spec, error) {
	if s.Frequency == 0 {
		s.Frequency = DefaultFrequency
	}
	if s.Duration == 0 {
		s.Duration = DefaultDuration
	}
	if s.SampleRate == 0 {
		s.SampleRate = DefaultSampleRate
	}
	switch {
	case s.Frequency < 0 || s.Frequency >= float64(s.SampleRate)/2:
		return s, fmt.Errorf("frequency %.1f Hz must be positive and below the Nyquist limit (%d Hz)", s.Frequency, s.SampleRate/2)
	case s.Duration < 0:
		return s, errors.New("duration must not be negative")
	case s.SampleRate < 0:
		return s, errors.New("sample rate must not be negative")
	}
	return s, nil
}

// Samples returns mono 16-bit PCM samples for s.
func Samples(s Spec) ([]int, error) {
	s, err := s.withDefaults()
	if err != nil {
		return nil, err
	}
	n := int(s.Duration.Seconds() * float64(s.SampleRate))
	data := make([]int, n)
	for i := range data {
		t := float64(i) / float64(s.SampleRate)
		data[i] = int(math.Round(peak * math.Sin(2*math.Pi*s.Frequency*t)))
	}
	return data, nil
}

// Write creates path as a mono 16-bit PCM WAV file. The file is written
// next to path and renamed into place once complete.
func Write(path string, s Spec) error {
	s, err := s.withDefaults()
	if err != nil {
		return err
	}
	data, err := Samples(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tone-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	enc := wav.NewEncoder(tmp, s.SampleRate, bitDepth, 1, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: s.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to finish WAV header: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	return os.Rename(tmpPath, path)
}
