package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// URLPrefix is where the server exposes the upload directory.
const URLPrefix = "/uploads/"

// AferoPhotoStorage writes photos into an afero filesystem rooted at the upload directory.
type AferoPhotoStorage struct {
	fs afero.Fs
}

// NewLocalPhotoStorage roots storage at dir on the OS filesystem.
func NewLocalPhotoStorage(dir string) *AferoPhotoStorage {
	return NewAferoPhotoStorage(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewAferoPhotoStorage wraps any afero filesystem, e.g. afero.NewMemMapFs in tests.
func NewAferoPhotoStorage(fs afero.Fs) *AferoPhotoStorage {
	return &AferoPhotoStorage{fs: fs}
}

func (s *AferoPhotoStorage) Save(_ context.Context, folder, name string, r io.Reader) (string, error) {
	if err := s.fs.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	rel := path.Join(folder, name)
	f, err := s.fs.OpenFile(rel, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(rel)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return URLPrefix + rel, nil
}

// Exists reports whether url points at a stored photo.
func (s *AferoPhotoStorage) Exists(_ context.Context, url string) bool {
	rel, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return false
	}
	info, err := s.fs.Stat(rel)
	return err == nil && !info.IsDir()
}
