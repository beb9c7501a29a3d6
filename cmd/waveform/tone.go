package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/waveform/internal/tone"
)

var (
	toneFrequency  float64
	toneDuration   time.Duration
	toneSampleRate int
)

var toneCmd = &cobra.Command{
	Use:   "tone [path]",
	Short: "Write a sine-wave WAV file",
	Long: `Write a mono 16-bit sine-wave WAV file, tone.wav by default. The file
is a convenient input for trying out 'waveform generate'.

Examples:
  waveform tone
  waveform tone beep.wav --frequency 1000 --duration 500ms
  waveform tone && waveform generate tone.wav`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := tone.DefaultFileName
		if len(args) == 1 {
			path = args[0]
		}

		spec := tone.Spec{
			Frequency:  toneFrequency,
			Duration:   toneDuration,
			SampleRate: toneSampleRate,
		}
		if err := tone.Write(path, spec); err != nil {
			printError(err, nil)
			exitWithCode(ExitGeneral)
		}
		printInfof("Wrote %s\n", path)
	},
}

func init() {
	toneCmd.Flags().Float64Var(&toneFrequency, "frequency", tone.DefaultFrequency, "Tone frequency in Hz")
	toneCmd.Flags().DurationVar(&toneDuration, "duration", tone.DefaultDuration, "Tone length")
	toneCmd.Flags().IntVar(&toneSampleRate, "sample-rate", tone.DefaultSampleRate, "Samples per second")
}
