package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/waveform/internal/config"
	"github.com/tsukumogami/waveform/internal/secrets"
	"github.com/tsukumogami/waveform/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage waveform configuration",
	Long: `Manage waveform configuration settings.

Configuration is stored in $WAVEFORM_ROOT/.audiowaveform/config.toml.

Available settings:
  auto_install_deps    Install missing shared libraries with apt-get (true/false)
  use_homebrew         Install audiowaveform with Homebrew on macOS (true/false)
  secrets.github_token GitHub token for 'waveform assets'

Examples:
  waveform config get auto_install_deps
  waveform config set use_homebrew false`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		_, userCfg := loadConfig()

		value, ok := userCfg.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]
		cfg, userCfg := loadConfig()

		if err := userCfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		if err := userCfg.Save(cfg.ConfigFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		if strings.HasPrefix(strings.ToLower(key), "secrets.") {
			value = "(set)"
		}
		fmt.Printf("%s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, userCfg := loadConfig()
		for _, key := range userconfig.SortedKeys() {
			if strings.HasPrefix(key, "secrets.") {
				continue
			}
			value, _ := userCfg.Get(key)
			fmt.Printf("%s = %s\n", key, value)
		}
		resolver := secrets.New(userCfg)
		for _, k := range secrets.KnownKeys() {
			state := "(not set)"
			if resolver.IsSet(k.Name) {
				state = "(set)"
			}
			fmt.Printf("secrets.%s = %s\n", k.Name, state)
		}
		printInfof("\nEnvironment:\n")
		printInfof("  %s = %s\n", config.EnvRoot, cfg.Root)
		printInfof("  %s = %s\n", config.EnvVersion, cfg.Version)
		printInfof("  %s = %s\n", config.EnvBaseURL, cfg.BaseURL)
		printInfof("  %s = %s\n", config.EnvDownloadTimeout, cfg.DownloadTimeout)
	},
}

func printAvailableKeys() {
	keys := userconfig.AvailableKeys()
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
