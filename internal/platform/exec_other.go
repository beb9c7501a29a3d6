//go:build !unix && !windows

package platform

import "os"

// IsExecutable reports whether path exists as a regular file.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
