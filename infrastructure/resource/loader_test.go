package resource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestModuleFetcher_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ffmpeg-core.wasm"), []byte("\x00asm"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewModuleFetcher(dir, "ffmpeg-core.wasm").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if string(res.Module) != "\x00asm" {
		t.Errorf("Module = %q, want the file contents", res.Module)
	}
	if res.Source != filepath.Join(dir, "ffmpeg-core.wasm") {
		t.Errorf("Source = %q", res.Source)
	}
}

func TestModuleFetcher_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/core/ffmpeg-core.wasm" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("module-bytes"))
	}))
	defer server.Close()

	tests := []struct {
		name    string
		base    string
		module  string
		want    string
		wantErr bool
	}{
		{"found", server.URL + "/core", "ffmpeg-core.wasm", "module-bytes", false},
		{"trailing slash", server.URL + "/core/", "ffmpeg-core.wasm", "module-bytes", false},
		{"missing", server.URL + "/core", "other.wasm", "", true},
		{"no module name", server.URL, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewModuleFetcher(tt.base, tt.module, WithHTTPClient(server.Client()))
			res, err := f.Fetch(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(res.Module) != tt.want {
				t.Errorf("Module = %q, want %q", res.Module, tt.want)
			}
		})
	}
}

func TestExecutableLocator(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		exe      string
		found    map[string]bool
		want     string
		wantErr  bool
		wantLook string
	}{
		{"path lookup", "", "ffmpeg", map[string]bool{"ffmpeg": true}, "ffmpeg", false, "ffmpeg"},
		{"base directory", "/opt/ffmpeg/bin", "ffmpeg", map[string]bool{"/opt/ffmpeg/bin/ffmpeg": true}, "/opt/ffmpeg/bin/ffmpeg", false, "/opt/ffmpeg/bin/ffmpeg"},
		{"not found", "", "ffmpeg", map[string]bool{}, "", true, "ffmpeg"},
		{"remote base", "https://cdn.example.com", "ffmpeg", nil, "", true, ""},
		{"no executable", "", "", nil, "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var looked string
			l := NewExecutableLocator(tt.base, tt.exe)
			l.lookPath = func(name string) (string, error) {
				looked = name
				if tt.found[name] {
					return name, nil
				}
				return "", errors.New("executable file not found in $PATH")
			}

			res, err := l.Fetch(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if looked != tt.wantLook {
				t.Errorf("looked up %q, want %q", looked, tt.wantLook)
			}
			if !tt.wantErr && res.Executable != tt.want {
				t.Errorf("Executable = %q, want %q", res.Executable, tt.want)
			}
		})
	}
}
