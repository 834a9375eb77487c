package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Extension whitelists for uploads.
var (
	ImageExtensions       = []string{".jpg", ".jpeg", ".png", ".gif"}
	SpreadsheetExtensions = []string{".xlsx"}
)

// ErrUnsupportedType is returned when a filename's extension is not allowed.
var ErrUnsupportedType = errors.New("unsupported file type")

// CheckExtension returns the lowercased extension of name if it is in allowed.
func CheckExtension(name string, allowed []string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
}

// LocalAssets keeps uploaded files in one directory under generated names and
// serves them under URLPrefix.
type LocalAssets struct {
	Dir       string
	URLPrefix string
}

// NewLocalAssets creates dir if needed.
func NewLocalAssets(dir, urlPrefix string) (*LocalAssets, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", dir, err)
	}
	return &LocalAssets{Dir: dir, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// SaveImage stores an image upload and returns the generated filename.
func (a *LocalAssets) SaveImage(originalName string, r io.Reader) (string, error) {
	ext, err := CheckExtension(originalName, ImageExtensions)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(a.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create asset %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write asset %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close asset %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (a *LocalAssets) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(a.Dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove asset %s: %w", name, err)
	}
	return nil
}

// URL returns the public path of a stored file, or nil when there is none.
func (a *LocalAssets) URL(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	u := path.Join(a.URLPrefix, *name)
	return &u
}
