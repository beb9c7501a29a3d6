package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tsukumogami/waveform/internal/config"
	"github.com/tsukumogami/waveform/internal/errmsg"
	"github.com/tsukumogami/waveform/internal/execx"
	"github.com/tsukumogami/waveform/internal/fetch"
	"github.com/tsukumogami/waveform/internal/install"
	"github.com/tsukumogami/waveform/internal/log"
	"github.com/tsukumogami/waveform/internal/progress"
	"github.com/tsukumogami/waveform/internal/sysdeps"
	"github.com/tsukumogami/waveform/internal/userconfig"
	"github.com/tsukumogami/waveform/internal/waveform"
)

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...any) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...any) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}

// printError prints an error to stderr with suggestions if available.
func printError(err error, cfg *config.Config) {
	ctx := &errmsg.ErrorContext{}
	if cfg != nil {
		ctx.Version = cfg.Version
		ctx.Target = cfg.TargetPath(platformKey().OS)
	}
	errmsg.Fprint(os.Stderr, err, ctx)
}

// fail prints err and exits with the code matching its kind.
func fail(err error, cfg *config.Config) {
	printError(err, cfg)
	exitWithCode(exitCodeFor(err))
}

// isTruthy reports whether an environment value means "on".
func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// loadConfig reads the environment and the user config file.
func loadConfig() (*config.Config, *userconfig.Config) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		printError(err, nil)
		exitWithCode(ExitUsage)
	}
	userCfg, err := userconfig.Load(cfg.ConfigFile)
	if err != nil {
		printError(err, cfg)
		exitWithCode(ExitGeneral)
	}
	return cfg, userCfg
}

// newInstaller wires the installer to the real network, runner and
// terminal, honoring the user config and global flags.
func newInstaller(cfg *config.Config, userCfg *userconfig.Config) *install.Installer {
	logger := log.Default()
	spinner := progress.NewSpinner(os.Stderr)

	var out io.Writer = os.Stdout
	if quietFlag {
		out = io.Discard
	}

	runner := execx.OS{}
	auditor := sysdeps.New(runner,
		sysdeps.WithLogger(logger),
		sysdeps.WithRemediation(userCfg.AutoInstallDeps && !noRemediateFlag),
		sysdeps.WithSpinner(spinner),
	)
	fetcher := fetch.New(cfg.DownloadTimeout,
		fetch.WithLogger(logger),
		fetch.WithProgress(os.Stdout, func() bool { return !quietFlag && progress.ShouldShowProgress() }),
	)

	return install.New(cfg,
		install.WithPlatform(platformKey()),
		install.WithRunner(runner),
		install.WithDownloader(fetcher),
		install.WithAuditor(auditor),
		install.WithHomebrew(userCfg.UseHomebrew),
		install.WithLogger(logger),
		install.WithOutput(out),
		install.WithSpinner(spinner),
	)
}

// newClient returns the command façade over a fully wired installer.
func newClient() (*waveform.Client, *install.Installer, *config.Config) {
	cfg, userCfg := loadConfig()
	inst := newInstaller(cfg, userCfg)
	return waveform.New(inst, waveform.WithLogger(log.Default())), inst, cfg
}
