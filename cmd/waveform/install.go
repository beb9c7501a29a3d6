package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/waveform/internal/install"
)

var installForce bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install audiowaveform",
	Long: `Install audiowaveform into $WAVEFORM_ROOT/.audiowaveform.

An existing install is left alone unless --force is given. On Linux,
shared libraries the binary needs are installed with apt-get unless
--no-remediate is set or auto_install_deps is false.

Examples:
  waveform install
  waveform install --force
  WAVEFORM_VERSION=1.10.1 waveform install --force`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, inst, cfg := newClient()

		if !installForce {
			if inst.Installed() {
				printInfof("audiowaveform is already installed at %s\n", inst.Target())
				printInfo("Use --force to reinstall.")
				return
			}
			if _, err := client.EnsureInstalled(globalCtx); err != nil {
				fail(err, cfg)
			}
			return
		}

		if _, err := inst.Install(globalCtx); err != nil {
			fail(err, cfg)
		}
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the installed audiowaveform",
	Long: `Remove the audiowaveform binary and its install receipt.

Shared libraries installed with apt-get and Homebrew formulas are left
in place.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, userCfg := loadConfig()
		inst := newInstaller(cfg, userCfg)
		if !inst.Installed() {
			printInfo("audiowaveform is not installed.")
			return
		}
		if err := inst.Uninstall(); err != nil {
			fail(err, cfg)
		}
		printInfof("Removed %s\n", inst.Target())
	},
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the install location",
	Long: `Print the path audiowaveform is (or would be) installed at.
Nothing is downloaded.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, _, _ := newClient()
		fmt.Println(client.Path())
	},
}

var statusJSON bool

type statusOutput struct {
	Target      string     `json:"target"`
	Installed   bool       `json:"installed"`
	Configured  string     `json:"configured_version"`
	Version     string     `json:"installed_version,omitempty"`
	Source      string     `json:"source,omitempty"`
	Platform    string     `json:"platform,omitempty"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	Stale       bool       `json:"stale"`
	Modified    bool       `json:"modified"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the install state",
	Long: `Show whether audiowaveform is installed, which version, and whether it
matches WAVEFORM_VERSION.

A stale install is reported but not replaced; run 'waveform install --force'
to update it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, inst, cfg := newClient()
		st, err := inst.Status()
		if err != nil {
			fail(err, cfg)
		}

		out := statusOutput{
			Target:     st.Target,
			Installed:  st.Installed,
			Configured: st.Configured,
			Stale:      st.Stale,
			Modified:   st.Modified,
		}
		if r := st.Receipt; r != nil {
			out.Version = r.Version
			out.Source = string(r.Source)
			out.Platform = r.Platform
			at := r.InstalledAt
			out.InstalledAt = &at
		}

		if statusJSON {
			printJSON(out)
			return
		}

		fmt.Printf("Target:     %s\n", out.Target)
		if !out.Installed {
			fmt.Println("Status:     Not installed")
			fmt.Printf("Configured: %s\n", out.Configured)
			return
		}
		fmt.Println("Status:     Installed")
		switch {
		case st.Receipt == nil:
			fmt.Println("Version:    unknown (no install receipt)")
		case out.Version == "":
			fmt.Printf("Version:    unknown (%s, %s); not compared with the configured version\n", out.Source, out.Platform)
			fmt.Printf("Installed:  %s\n", out.InstalledAt.Local().Format(time.RFC1123))
		default:
			fmt.Printf("Version:    %s (%s, %s)\n", out.Version, out.Source, out.Platform)
			fmt.Printf("Installed:  %s\n", out.InstalledAt.Local().Format(time.RFC1123))
		}
		fmt.Printf("Configured: %s\n", out.Configured)
		if out.Stale {
			fmt.Println("\nThe installed version differs from the configured one.")
			if out.Source == string(install.SourceHomebrew) {
				fmt.Println("Homebrew decides the version; run 'brew upgrade audiowaveform' to update.")
			} else {
				fmt.Println("Run 'waveform install --force' to update.")
			}
		}
		if out.Modified {
			fmt.Println("\nThe binary no longer matches the checksum recorded at install time.")
		}
	},
}

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Reinstall even if audiowaveform is present")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")
}
