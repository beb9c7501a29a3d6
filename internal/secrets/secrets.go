// Package secrets resolves API tokens.
//
// Secrets are resolved by checking environment variables first, then
// the [secrets] section of the user config file. Each known secret is
// defined in the knownKeys table (specs.go), which maps a canonical name
// to one or more environment variable aliases. Requesting an unknown key
// returns an error.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tsukumogami/waveform/internal/userconfig"
)

// KeyInfo describes a registered secret for external consumers.
type KeyInfo struct {
	// Name is the canonical key name (e.g., "github_token").
	Name string

	// EnvVars lists environment variables checked, in priority order.
	EnvVars []string

	// Desc is a human-readable description.
	Desc string
}

// Resolver looks secrets up in the environment and a loaded user config.
type Resolver struct {
	cfg *userconfig.Config
}

// New returns a Resolver backed by cfg. A nil cfg consults only the
// environment.
func New(cfg *userconfig.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Get resolves a secret by name, checking environment variables first,
// then the [secrets] section of the config.
// Returns the first non-empty value found, or an error if the key is
// unknown or no source has a value set.
func (r *Resolver) Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret key: %q", name)
	}

	if val := r.lookup(name, spec); val != "" {
		return val, nil
	}

	envList := strings.Join(spec.EnvVars, " or ")
	return "", fmt.Errorf(
		"%s not configured. Set the %s environment variable, or run 'waveform config set secrets.%s <value>'",
		name, envList, name,
	)
}

// IsSet checks whether a secret is available without returning its value.
// Returns false for unknown keys.
func (r *Resolver) IsSet(name string) bool {
	spec, ok := knownKeys[name]
	return ok && r.lookup(name, spec) != ""
}

func (r *Resolver) lookup(name string, spec KeySpec) string {
	for _, env := range spec.EnvVars {
		if val := os.Getenv(env); val != "" {
			return val
		}
	}
	if r.cfg != nil {
		return r.cfg.Secrets[name]
	}
	return ""
}

// KnownKeys returns metadata for all registered secrets, sorted by name.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{
			Name:    name,
			EnvVars: spec.EnvVars,
			Desc:    spec.Desc,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})
	return keys
}
