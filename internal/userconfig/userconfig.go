// Package userconfig provides user configuration management for waveform.
// Configuration is stored in $WAVEFORM_ROOT/.audiowaveform/config.toml and
// can be modified via the `waveform config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents user-configurable settings.
type Config struct {
	// AutoInstallDeps lets the installer run apt-get to install shared
	// libraries the binary is missing. Default is true.
	AutoInstallDeps bool `toml:"auto_install_deps"`

	// UseHomebrew lets the installer run `brew install` on macOS when
	// audiowaveform is not already on PATH. Default is true.
	UseHomebrew bool `toml:"use_homebrew"`

	// Secrets holds tokens set with `waveform config set secrets.<name>`.
	// Environment variables take precedence; see package secrets.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

const secretsPrefix = "secrets."

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		AutoInstallDeps: true,
		UseHomebrew:     true,
	}
}

// Load reads the config file at path.
// Returns default values if the file doesn't exist; errors only for
// read or parse failures.
func Load(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return userCfg, nil
}

// Save writes the configuration to path, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value of a config key as a string.
func (c *Config) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	if name, ok := strings.CutPrefix(key, secretsPrefix); ok {
		val := c.Secrets[name]
		return val, val != ""
	}
	switch key {
	case "auto_install_deps":
		return strconv.FormatBool(c.AutoInstallDeps), true
	case "use_homebrew":
		return strconv.FormatBool(c.UseHomebrew), true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	if name, ok := strings.CutPrefix(key, secretsPrefix); ok {
		if name == "" {
			return fmt.Errorf("secret name is required: %s<name>", secretsPrefix)
		}
		if c.Secrets == nil {
			c.Secrets = make(map[string]string)
		}
		c.Secrets[name] = value
		return nil
	}
	switch key {
	case "auto_install_deps", "use_homebrew":
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: must be true or false", key)
	}

	if key == "auto_install_deps" {
		c.AutoInstallDeps = b
	} else {
		c.UseHomebrew = b
	}
	return nil
}

// AvailableKeys returns all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"auto_install_deps": "Install missing shared libraries with apt-get (true/false)",
		"use_homebrew":      "Install audiowaveform with Homebrew on macOS (true/false)",
		"secrets.<name>":    "Store a token, e.g. secrets.github_token",
	}
}

// SortedKeys returns the keys of AvailableKeys in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(AvailableKeys()))
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
