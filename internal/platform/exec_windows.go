//go:build windows

package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsExecutable reports whether path is an existing .exe file. Windows has
// no execute bit.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".exe")
}
