// Package blobstore stores uploaded images on the local filesystem and
// hands back public reference paths. The content service never sees file
// bytes; it only stores and clears the references minted here.
package blobstore

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the largest accepted payload.
const MaxUploadSize = 5 << 20 // 5 MB

// PublicPrefix is the URL path uploads are served under.
const PublicPrefix = "/uploads/"

var (
	ErrTooLarge        = errors.New("upload exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrBadReference    = errors.New("malformed upload reference")
)

// allowedTypes maps accepted image MIME types to their stored extension.
// The type is sniffed from content, not taken from the client.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory uploads are written to, for static serving.
func (s *Store) Dir() string { return s.dir }

// Save writes an image payload and returns its public reference path.
// Oversized payloads and non-image content are rejected.
func (s *Store) Save(data []byte) (string, error) {
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return PublicPrefix + name, nil
}

// Delete removes the blob behind a reference previously returned by Save.
// A reference that is already gone is not an error.
func (s *Store) Delete(ref string) error {
	name, ok := refFilename(ref)
	if !ok {
		return ErrBadReference
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// Owns reports whether ref points into this store, so callers can avoid
// deleting externally hosted image URLs.
func (s *Store) Owns(ref string) bool {
	_, ok := refFilename(ref)
	return ok
}

func refFilename(ref string) (string, bool) {
	if !strings.HasPrefix(ref, PublicPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, PublicPrefix)
	// No path traversal through a stored reference.
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	return name, true
}
