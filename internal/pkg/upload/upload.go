package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes uploaded files into a flat directory under random names,
// so an uploaded "notes.pdf" can never collide with or overwrite another
// teacher's file.
type Store struct {
	dir     string
	maxSize int64
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save copies the uploaded file to disk and returns its stored path.
func (s *Store) Save(fileHeader *multipart.FileHeader) (string, error) {
	if s.maxSize > 0 && fileHeader.Size > s.maxSize {
		return "", fmt.Errorf("file too large: %d bytes (limit %d)", fileHeader.Size, s.maxSize)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload failed: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create stored file failed: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write stored file failed: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close stored file failed: %w", err)
	}
	return path, nil
}

// Remove deletes a stored file. A path that is already gone is not an
// error; cleanup paths call this without checking first.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file failed: %w", err)
	}
	return nil
}
