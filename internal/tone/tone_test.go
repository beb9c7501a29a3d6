package tone

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func TestSamples(t *testing.T) {
	data, err := Samples(Spec{Frequency: 1000, Duration: 10 * time.Millisecond, SampleRate: 8000})
	require.NoError(t, err)
	require.Len(t, data, 80)
	require.Equal(t, 0, data[0])

	// A quarter period of 1 kHz at 8 kHz is two samples.
	require.Equal(t, 16383, data[2])
	for _, v := range data {
		require.LessOrEqual(t, v, 16383)
		require.GreaterOrEqual(t, v, -16383)
	}
}

func TestSamples_Defaults(t *testing.T) {
	data, err := Samples(Spec{})
	require.NoError(t, err)
	require.Len(t, data, 2*DefaultSampleRate)
}

func TestSpecValidation(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"negative frequency", Spec{Frequency: -1}},
		{"above nyquist", Spec{Frequency: 5000, SampleRate: 8000}},
		{"negative duration", Spec{Duration: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Samples(tt.spec)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, Write(path, Spec{Duration: 250 * time.Millisecond, SampleRate: 8000}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.Equal(t, uint32(8000), dec.SampleRate)
	require.Equal(t, uint16(1), dec.NumChans)
	require.Equal(t, uint16(16), dec.BitDepth)
	require.Len(t, buf.Data, 2000)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
}

func TestWrite_InvalidSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.Error(t, Write(path, Spec{Frequency: -5}))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
