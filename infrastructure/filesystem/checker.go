package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"clipmaker/domain/video"
)

// Store implements video.SourceReader and video.ClipSaver using the os package
type Store struct {
	outputDir string
}

// NewStore creates a store that saves clips into outputDir
func NewStore(outputDir string) *Store {
	return &Store{outputDir: outputDir}
}

// Exists returns true if the file exists
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read returns the contents of a source video
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source video: %w", err)
	}
	return data, nil
}

// Save writes a produced clip as <outputDir>/<name> and returns the path
func (s *Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := video.ValidateStagedName(name); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save clip: %w", err)
	}

	return path, nil
}

// Ensure Store implements the source and save ports
var (
	_ video.SourceReader = (*Store)(nil)
	_ video.ClipSaver    = (*Store)(nil)
)
