// Package drive uploads finished clips to a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"clipmaker/domain/video"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// clipMimeType is the content type of every produced clip
const clipMimeType = "video/mp4"

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	CreateFile(ctx context.Context, file *drive.File, media io.Reader, fields string) (*drive.File, error)
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// CreateFile uploads media as a new file
func (s *GoogleDriveService) CreateFile(ctx context.Context, file *drive.File, media io.Reader, fields string) (*drive.File, error) {
	return s.service.Files.Create(file).
		Media(media, googleapi.ContentType(file.MimeType)).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// Client uploads clips into one Drive folder
type Client struct {
	driveService DriveService
	folderID     string
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// NewClient creates a new Google Drive client
// If no options are provided, it initializes a real Google Drive service
func NewClient(ctx context.Context, credentialsPath, folderID string, opts ...ClientOption) (*Client, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder_id is not configured")
	}

	c := &Client{folderID: folderID}

	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service from
// service account credentials
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// Save implements video.ClipSaver. It returns the file's web link, or its id
// when Drive reports no link.
func (c *Client) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := video.ValidateStagedName(name); err != nil {
		return "", err
	}

	file := &drive.File{
		Name:     name,
		MimeType: clipMimeType,
		Parents:  []string{c.folderID},
	}

	created, err := c.driveService.CreateFile(ctx, file, bytes.NewReader(data), "id, name, webViewLink")
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	if created.WebViewLink != "" {
		return created.WebViewLink, nil
	}
	return created.Id, nil
}

// Ensure Client implements video.ClipSaver
var _ video.ClipSaver = (*Client)(nil)
