package install

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Source records how the binary was obtained.
type Source string

const (
	SourceRelease  Source = "release"
	SourceHomebrew Source = "homebrew"
)

// Receipt is the record of the last successful install. It is
// informational; presence of the Install Target alone decides whether
// audiowaveform is installed.
type Receipt struct {
	Version     string    `toml:"version"`
	Asset       string    `toml:"asset,omitempty"`
	Platform    string    `toml:"platform"`
	Source      Source    `toml:"source"`
	SHA256      string    `toml:"sha256,omitempty"`
	LinkedFrom  string    `toml:"linked_from,omitempty"`
	InstalledAt time.Time `toml:"installed_at"`
}

// ReadReceipt loads the receipt at path. A missing file returns nil, nil.
func ReadReceipt(path string) (*Receipt, error) {
	var r Receipt
	if _, err := toml.DecodeFile(path, &r); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse receipt: %w", err)
	}
	return &r, nil
}

// Write saves the receipt atomically.
func (r *Receipt) Write(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename receipt: %w", err)
	}
	return nil
}
