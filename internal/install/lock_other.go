//go:build !unix && !windows

package install

import "os"

// Platforms without file locking install unguarded.
func tryLock(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
