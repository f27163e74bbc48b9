package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/explainui/internal/shotstore"
)

// Store keeps screenshots as files in one directory. Keys are bare file
// names: "shot_" + a random id + an extension derived from the MIME type.
type Store struct {
	dir string // absolute
}

func New(basePath string) (*Store, error) {
	dir, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid image directory %q: %w", basePath, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save streams r into a temporary file and renames it into place, so a
// failed upload never leaves a partial screenshot under a valid key.
func (s *Store) Save(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := "shot_" + uuid.NewString() + extFor(mimeType)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	discard := func() {
		if rerr := os.Remove(tmpPath); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			slog.Error("failed to remove partial upload", "path", tmpPath, "error", rerr)
		}
	}

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		discard()
		return "", fmt.Errorf("failed to write file: %w", copyErr)
	case closeErr != nil:
		discard()
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, key)); err != nil {
		discard()
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return key, nil
}

func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", shotstore.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, mimeFor(path), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return shotstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps key to a path inside the store directory, rejecting keys that
// would escape it.
func (s *Store) resolve(key string) (string, error) {
	path := filepath.Join(s.dir, key)
	if !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return path, nil
}

var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func extFor(mimeType string) string {
	if ext, ok := extByMIME[mimeType]; ok {
		return ext
	}
	return ".bin"
}

func mimeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for mime, e := range extByMIME {
		if e == ext {
			return mime
		}
	}
	return "application/octet-stream"
}
