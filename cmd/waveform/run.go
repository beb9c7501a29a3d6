package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/waveform/internal/waveform"
)

var runCmd = &cobra.Command{
	Use:   "run [--] <audiowaveform args>...",
	Short: "Run audiowaveform with the given arguments",
	Long: `Run audiowaveform, installing it first if needed. Arguments after the
command are passed through unchanged and the exit code of audiowaveform
becomes the exit code of waveform.

Examples:
  waveform run --version
  waveform run -- -i song.mp3 -o song.dat --bits 8`,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 && args[0] == "--" {
			args = args[1:]
		}
		if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
			_ = cmd.Help()
			return
		}

		client, _, cfg := newClient()
		res, err := client.Run(globalCtx, args...)
		if err != nil {
			fail(err, cfg)
		}
		_, _ = os.Stdout.WriteString(res.Stdout)
		_, _ = os.Stderr.WriteString(res.Stderr)
		if res.ExitCode != 0 {
			exitWithCode(res.ExitCode)
		}
	},
}

var (
	generateOutput string
	generateBits   int
	generateZoom   int
)

var generateCmd = &cobra.Command{
	Use:   "generate <input>",
	Short: "Render a waveform image from an audio file",
	Long: `Render a waveform PNG from an audio file, installing audiowaveform first
if needed.

The output defaults to the input path with a .png extension.

Examples:
  waveform generate song.mp3
  waveform generate song.wav --output wave.png --bits 16 --zoom 256`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := waveform.Options{
			Input:  args[0],
			Output: generateOutput,
			Bits:   generateBits,
			Zoom:   generateZoom,
		}
		if _, err := opts.Args(); err != nil {
			printError(err, nil)
			exitWithCode(ExitUsage)
		}

		client, _, cfg := newClient()
		out, err := client.Generate(globalCtx, opts)
		if err != nil {
			fail(err, cfg)
		}
		printInfof("Wrote %s\n", out)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output image path")
	generateCmd.Flags().IntVarP(&generateBits, "bits", "b", waveform.DefaultBits, "Sample resolution, 8 or 16")
	generateCmd.Flags().IntVarP(&generateZoom, "zoom", "z", waveform.DefaultZoom, "Samples per pixel")
}
