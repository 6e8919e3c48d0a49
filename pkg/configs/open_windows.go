//go:build windows

package configs

import (
	"os"

	winacl "github.com/hectane/go-acl"
)

// newSafeFile creates a new empty file which is accessible only by the current user.
//
// If the file already exists, it will be truncated.
func newSafeFile(path string) (*os.File, error) {
	// WINDOWS: permission cannot be applied at creation. Apply, then truncate.
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	if err := winacl.Chmod(path, os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
