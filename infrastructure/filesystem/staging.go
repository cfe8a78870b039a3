package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"clipmaker/domain/video"
)

// StagingDir is a private directory that holds an engine's staged files.
// Only plain names are accepted so nothing escapes the directory.
type StagingDir struct {
	root string
}

// NewStagingDir creates a fresh directory under parent (the os temp dir when empty)
func NewStagingDir(parent string) (*StagingDir, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("failed to create staging parent: %w", err)
		}
	}

	root, err := os.MkdirTemp(parent, "clipmaker-stage-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return &StagingDir{root: root}, nil
}

// Root returns the directory path
func (d *StagingDir) Root() string {
	return d.root
}

// Write stores data under name
func (d *StagingDir) Write(name string, data []byte) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Read returns the contents of name; a missing file yields an fs.ErrNotExist error
func (d *StagingDir) Read(name string) ([]byte, error) {
	path, err := d.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Delete removes name; a missing file yields an fs.ErrNotExist error
func (d *StagingDir) Delete(name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// RemoveAll deletes the directory and everything left in it
func (d *StagingDir) RemoveAll() error {
	return os.RemoveAll(d.root)
}

func (d *StagingDir) path(name string) (string, error) {
	if err := video.ValidateStagedName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.root, name), nil
}
