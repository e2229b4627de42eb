// Package files writes rendered configuration files, locally or over SFTP,
// subject to the sweep's overwrite policy.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parasol-run/parasol/pkg/remote"
)

// ErrExists is returned when overwriting is disabled and the target path
// already holds a file.
var ErrExists = errors.New("file already exists")

// Writer writes and removes configuration files.
type Writer interface {
	// Write stores data at path. With overwrite false an existing file is
	// an ErrExists error and nothing is written.
	Write(path string, data []byte, overwrite bool) error

	// Remove deletes the file at path.
	Remove(path string) error
}

// Local writes to the local filesystem, creating parent directories as
// needed.
type Local struct{}

// Write implements Writer.
func (Local) Write(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Remove implements Writer.
func (Local) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// SFTP writes through a connected remote client, so configuration files
// land on the machine the simulations run on.
type SFTP struct {
	Client *remote.Client
}

// Write implements Writer.
func (s SFTP) Write(path string, data []byte, overwrite bool) error {
	if !overwrite {
		exists, err := s.Client.FileExists(path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
	}
	return s.Client.WriteFile(path, data, 0o644)
}

// Remove implements Writer.
func (s SFTP) Remove(path string) error {
	return s.Client.RemoveFile(path)
}
