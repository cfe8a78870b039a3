// Package resource fetches the artifacts an engine needs before it can load.
package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"clipmaker/domain/video"
)

// defaultTimeout bounds a remote module download
const defaultTimeout = 5 * time.Minute

// ModuleFetcher loads a WASI module from a directory or an http(s) base location
type ModuleFetcher struct {
	baseLocation string
	module       string
	client       *http.Client
}

// FetcherOption is a functional option for configuring ModuleFetcher
type FetcherOption func(*ModuleFetcher)

// WithHTTPClient sets the client used for remote base locations
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *ModuleFetcher) {
		f.client = client
	}
}

// NewModuleFetcher creates a fetcher for module under baseLocation
func NewModuleFetcher(baseLocation, module string, opts ...FetcherOption) *ModuleFetcher {
	f := &ModuleFetcher{
		baseLocation: baseLocation,
		module:       module,
		client:       &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch implements video.ResourceLoader
func (f *ModuleFetcher) Fetch(ctx context.Context) (*video.CoreResources, error) {
	if f.module == "" {
		return nil, fmt.Errorf("no module name configured")
	}

	if isRemote(f.baseLocation) {
		return f.fetchRemote(ctx)
	}

	source := filepath.Join(f.baseLocation, f.module)
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}

	return &video.CoreResources{Source: source, Module: data}, nil
}

func (f *ModuleFetcher) fetchRemote(ctx context.Context) (*video.CoreResources, error) {
	base, err := url.Parse(f.baseLocation)
	if err != nil {
		return nil, fmt.Errorf("invalid base location: %w", err)
	}
	base.Path = path.Join(base.Path, f.module)
	source := base.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download module: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download module: %s returned %s", source, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download module: %w", err)
	}

	return &video.CoreResources{Source: source, Module: data}, nil
}

// ExecutableLocator finds a native ffmpeg binary
type ExecutableLocator struct {
	baseLocation string
	executable   string
	lookPath     func(string) (string, error)
}

// NewExecutableLocator creates a locator. With a base location the binary must
// live there; otherwise it is looked up on PATH.
func NewExecutableLocator(baseLocation, executable string) *ExecutableLocator {
	return &ExecutableLocator{
		baseLocation: baseLocation,
		executable:   executable,
		lookPath:     exec.LookPath,
	}
}

// Fetch implements video.ResourceLoader
func (l *ExecutableLocator) Fetch(ctx context.Context) (*video.CoreResources, error) {
	if l.executable == "" {
		return nil, fmt.Errorf("no executable configured")
	}
	if isRemote(l.baseLocation) {
		return nil, fmt.Errorf("native engine cannot load from %s", l.baseLocation)
	}

	name := l.executable
	if l.baseLocation != "" {
		name = filepath.Join(l.baseLocation, l.executable)
	}

	found, err := l.lookPath(name)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", name, err)
	}

	return &video.CoreResources{Source: found, Executable: found}, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Ensure the loaders implement video.ResourceLoader
var (
	_ video.ResourceLoader = (*ModuleFetcher)(nil)
	_ video.ResourceLoader = (*ExecutableLocator)(nil)
)
