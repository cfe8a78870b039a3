package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SaveAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clips")
	store := NewStore(dir)

	path, err := store.Save(context.Background(), "out.mp4", []byte("clip"))
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "out.mp4") {
		t.Errorf("Save() path = %q, want %q", path, filepath.Join(dir, "out.mp4"))
	}

	if !store.Exists(path) {
		t.Error("Exists() = false for a saved clip")
	}
	got, err := store.Read(path)
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if string(got) != "clip" {
		t.Errorf("Read() = %q, want %q", got, "clip")
	}
}

func TestStore_SaveRejectsPaths(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Save(context.Background(), "../out.mp4", []byte("clip")); err == nil {
		t.Error("Save() expected error for a name with a path separator")
	}
}

func TestStore_ReadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	if store.Exists("/definitely/not/here.mp4") {
		t.Error("Exists() = true for a missing file")
	}
	if _, err := store.Read("/definitely/not/here.mp4"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() error = %v, want fs.ErrNotExist", err)
	}
}

func TestStagingDir(t *testing.T) {
	dir, err := NewStagingDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewStagingDir() unexpected error: %v", err)
	}

	if err := dir.Write("input.mp4", []byte("data")); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	got, err := dir.Read("input.mp4")
	if err != nil || string(got) != "data" {
		t.Fatalf("Read() = %q, %v; want data", got, err)
	}

	if err := dir.Delete("input.mp4"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := dir.Read("input.mp4"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() after delete error = %v, want fs.ErrNotExist", err)
	}
	if err := dir.Delete("input.mp4"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Delete() of missing file error = %v, want fs.ErrNotExist", err)
	}

	if err := dir.Write("../escape.mp4", []byte("x")); err == nil {
		t.Error("Write() expected error for a name outside the directory")
	}

	if err := dir.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() unexpected error: %v", err)
	}
	if _, err := os.Stat(dir.Root()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("staging directory still exists: %v", err)
	}
}
