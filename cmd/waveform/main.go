package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/waveform/internal/buildinfo"
	"github.com/tsukumogami/waveform/internal/log"
	"github.com/tsukumogami/waveform/internal/platform"
)

var (
	quietFlag       bool
	verboseFlag     bool
	debugFlag       bool
	noRemediateFlag bool
	platformFlag    string
)

// globalCtx is cancelled on SIGINT/SIGTERM so downloads and child
// processes stop promptly.
var globalCtx = context.Background()

var rootCmd = &cobra.Command{
	Use:   "waveform",
	Short: "Install and run the audiowaveform tool",
	Long: `waveform downloads the prebuilt audiowaveform binary for this platform,
installs missing shared libraries on Linux, and runs it.

Running waveform with no command installs audiowaveform if needed and
prints where it lives.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		quiet, verbose, debug := resolveVerbosity()
		log.SetDefault(log.NewCLI(os.Stderr, quiet, verbose, debug))
	},
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, _, cfg := newClient()
		path, err := client.EnsureInstalled(globalCtx)
		if err != nil {
			fail(err, cfg)
		}
		fmt.Printf("Audiowaveform binary is installed at: %s\n", path)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print progress details")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print debug output")
	rootCmd.PersistentFlags().BoolVar(&noRemediateFlag, "no-remediate", false, "Never run apt-get to install missing libraries")
	rootCmd.PersistentFlags().StringVar(&platformFlag, "platform", "", "Override the detected os/arch")
	_ = rootCmd.PersistentFlags().MarkHidden("platform")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(toneCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(configCmd)
}

// resolveVerbosity combines the verbosity flags with WAVEFORM_QUIET,
// WAVEFORM_VERBOSE and WAVEFORM_DEBUG. Any flag set on the command line
// replaces the environment entirely.
func resolveVerbosity() (quiet, verbose, debug bool) {
	if quietFlag || verboseFlag || debugFlag {
		return quietFlag, verboseFlag, debugFlag
	}
	return isTruthy(os.Getenv("WAVEFORM_QUIET")),
		isTruthy(os.Getenv("WAVEFORM_VERBOSE")),
		isTruthy(os.Getenv("WAVEFORM_DEBUG"))
}

// platformKey returns the host platform unless --platform overrides it.
func platformKey() platform.Key {
	if platformFlag == "" {
		return platform.Host()
	}
	key, err := platform.ParseKey(platformFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitUsage)
	}
	return key
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	globalCtx = ctx

	err := rootCmd.Execute()
	stop()
	if err != nil {
		exitWithCode(ExitUsage)
	}
}
