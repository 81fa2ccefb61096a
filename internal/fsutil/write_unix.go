//go:build !windows
// +build !windows

package fsutil

import (
	"os"

	"github.com/google/renameio/v2"
)

// writeFile uses an atomic write so a crash never leaves a partially
// written document or source file behind.
func writeFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}
