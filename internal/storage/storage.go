// Package storage persists operation attachments on a local upload root.
// Only bare filenames are stored in the database; the root directory is
// configuration.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	apperrors "gestops/internal/errors"
)

// allowedExtensions lists the file extensions accepted for attachments.
var allowedExtensions = map[string]bool{
	"pdf": true, "jpg": true, "jpeg": true, "png": true, "gif": true,
	"txt": true, "csv": true, "doc": true, "docx": true, "xls": true,
	"xlsx": true,
}

// allowedMIMETypes lists the content types accepted for attachments.
var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"text/plain":      true,
	"text/csv":        true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Storage abstracts attachment file persistence for the operation core.
type Storage interface {
	// Save validates and stores an uploaded file, returning the stored
	// filename to keep in the database.
	Save(src io.Reader, originalName, contentType string, size int64) (string, error)
	// Path resolves a stored filename to an absolute path for serving.
	Path(filename string) (string, error)
	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(filename string) error
}

// Local stores files under a single upload root directory.
type Local struct {
	root    string
	maxSize int64
}

// NewLocal creates a local storage rooted at dir. The directory is created
// if it does not exist.
func NewLocal(dir string, maxSize int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Local{root: dir, maxSize: maxSize}, nil
}

// Save validates the upload and writes it under a unique name:
// <uuid>_<sanitized original name>.
func (l *Local) Save(src io.Reader, originalName, contentType string, size int64) (string, error) {
	if originalName == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidFile, "no file provided")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !allowedExtensions[ext] {
		return "", apperrors.WithMessage(apperrors.ErrInvalidFile,
			fmt.Sprintf("file extension %q is not allowed", ext))
	}

	if size > l.maxSize {
		return "", apperrors.WithMessage(apperrors.ErrInvalidFile,
			fmt.Sprintf("file exceeds the maximum size of %dMB", l.maxSize/(1024*1024)))
	}

	if !allowedMIMETypes[contentType] {
		return "", apperrors.WithMessage(apperrors.ErrInvalidFile,
			fmt.Sprintf("content type %q is not allowed", contentType))
	}

	filename := uuid.New().String() + "_" + sanitizeFilename(originalName)

	dst, err := os.Create(filepath.Join(l.root, filename))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, l.maxSize)); err != nil {
		_ = os.Remove(dst.Name())
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return filename, nil
}

// Path resolves a stored filename inside the upload root.
func (l *Local) Path(filename string) (string, error) {
	full := filepath.Join(l.root, filepath.Base(filename))
	if _, err := os.Stat(full); err != nil {
		return "", apperrors.ErrAttachmentNotFound
	}
	return full, nil
}

// Remove deletes a stored file if it exists.
func (l *Local) Remove(filename string) error {
	full := filepath.Join(l.root, filepath.Base(filename))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// sanitizeFilename keeps only the base name and replaces characters that
// are unsafe in a filesystem path.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	return unsafeChars.ReplaceAllString(base, "_")
}
