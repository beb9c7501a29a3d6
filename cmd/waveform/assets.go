package main

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/tsukumogami/waveform/internal/asset"
	"github.com/tsukumogami/waveform/internal/log"
	"github.com/tsukumogami/waveform/internal/release"
	"github.com/tsukumogami/waveform/internal/secrets"
)

var assetsLatest bool

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List the files published for the configured release",
	Long: `List the files GitHub publishes for the configured audiowaveform release
and mark the ones waveform installs on each supported platform.

With --latest, report the newest upstream release instead.

Set GITHUB_TOKEN, or run 'waveform config set secrets.github_token <token>',
to raise the GitHub API rate limit.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, userCfg := loadConfig()
		var opts []release.Option
		if token, err := secrets.New(userCfg).Get(secrets.GitHubToken); err == nil {
			opts = append(opts, release.WithToken(token))
		} else {
			log.Default().Debug("querying GitHub anonymously", "reason", err)
		}
		client := release.New(opts...)

		if assetsLatest {
			latest, err := client.Latest(globalCtx)
			if err != nil {
				fail(err, cfg)
			}
			fmt.Printf("Latest release: %s\n", latest)
			fmt.Printf("Configured:     %s\n", cfg.Version)
			if newer(latest, cfg.Version) {
				printInfof("\nA newer release is available. Try it with:\n  WAVEFORM_VERSION=%s waveform install --force\n", latest)
			}
			return
		}

		assets, err := client.Assets(globalCtx, cfg.Version)
		if err != nil {
			fail(err, cfg)
		}

		used := make(map[string]string)
		for _, key := range asset.Supported() {
			desc, err := asset.Resolve(key, cfg.Version)
			if err != nil || desc.FileName == "" {
				continue
			}
			used[desc.FileName] = key.String()
		}

		fmt.Printf("Release %s (%d assets):\n\n", cfg.Version, len(assets))
		for _, a := range assets {
			mark := ""
			if k, ok := used[a.Name]; ok {
				mark = "  <- " + k
				delete(used, a.Name)
			}
			fmt.Printf("  %-45s %10d%s\n", a.Name, a.Size, mark)
		}
		for name, key := range used {
			printInfof("\nWarning: %s expects %s, which the release does not publish\n", key, name)
		}
	},
}

// newer reports whether candidate is a later version than current.
func newer(candidate, current string) bool {
	a, errA := semver.NewVersion(candidate)
	b, errB := semver.NewVersion(current)
	if errA != nil || errB != nil {
		return false
	}
	return a.GreaterThan(b)
}

func init() {
	assetsCmd.Flags().BoolVar(&assetsLatest, "latest", false, "Report the newest upstream release")
}
