package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clipmaker/domain/video"
	"clipmaker/infrastructure/drive"
	"clipmaker/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var uploadClipPath string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a saved clip to Google Drive",
	Long: `Upload a clip to the configured Google Drive folder.

By default, uploads the most recently saved .mp4 in the output directory.

Example:
  clipmaker upload
  clipmaker upload --clip clips/porch.mp4`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadClipPath, "clip", "", "Path to clip (defaults to latest in output directory)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	clipPath := uploadClipPath
	if clipPath == "" {
		clipPath, err = findLatestFile(c.Output.Directory, ".mp4")
		if err != nil {
			return fmt.Errorf("no clip specified and could not find latest: %w", err)
		}
	}

	ctx := cmd.Context()
	client, err := drive.NewClient(ctx, c.Drive.CredentialsFile, c.Drive.FolderID)
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	return RunUploadWithDependencies(ctx, filesystem.NewStore(c.Output.Directory), client, clipPath, stdout)
}

// findLatestFile finds the most recently modified file with given extension in directory
func findLatestFile(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var latestPath string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestPath = filepath.Join(dir, entry.Name())
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("no %s files found in %s", ext, dir)
	}

	return latestPath, nil
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	reader video.SourceReader,
	saver video.ClipSaver,
	clipPath string,
	output OutputWriter,
) error {
	if !reader.Exists(clipPath) {
		return fmt.Errorf("clip not found: %s", clipPath)
	}
	data, err := reader.Read(clipPath)
	if err != nil {
		return err
	}

	name := filepath.Base(clipPath)
	fmt.Fprintf(output, "Uploading %s (%.2f MB)...\n", name, float64(len(data))/1024/1024)

	location, err := saver.Save(ctx, name, data)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(output, "Uploaded: %s\n", location)
	return nil
}
