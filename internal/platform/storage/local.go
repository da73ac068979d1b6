// Package storage keeps uploaded documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// DefaultAllowedTypes are the document types accepted for entity attachments.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
	"text/plain",
	"text/csv",
}

// LocalStorage stores files under a root directory with random names.
type LocalStorage struct {
	root    string
	maxSize int64
	allowed []string
}

// NewLocalStorage creates root if needed. A maxSize of zero disables the size check.
func NewLocalStorage(root string, maxSize int64, allowed []string) (*LocalStorage, error) {
	if root == "" {
		return nil, errors.New("upload directory is not configured")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	return &LocalStorage{root: root, maxSize: maxSize, allowed: allowed}, nil
}

// Save sniffs the content type, rejects types outside the allowlist and writes the file.
func (s *LocalStorage) Save(ctx context.Context, fileName string, content []byte) (domain.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Attachment{}, err
	}
	if s.maxSize > 0 && int64(len(content)) > s.maxSize {
		return domain.Attachment{}, apperrors.NewValidationFailedError(fmt.Sprintf("document %s exceeds the maximum size of %d bytes", fileName, s.maxSize))
	}
	mtype := mimetype.Detect(content)
	if !mimetype.EqualsAny(mtype.String(), s.allowed...) {
		return domain.Attachment{}, apperrors.NewValidationFailedError(fmt.Sprintf("document %s has unsupported type %s", fileName, mtype.String()))
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = mtype.Extension()
	}
	stored := uuid.NewString() + ext
	path := filepath.Join(s.root, stored)
	if err := os.WriteFile(path, content, 0o640); err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return domain.Attachment{
		FileName:   filepath.Base(fileName),
		StoredName: stored,
		Path:       path,
		MimeType:   mtype.String(),
		Size:       int64(len(content)),
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *LocalStorage) Delete(_ context.Context, attachment domain.Attachment) error {
	if attachment.StoredName == "" {
		return nil
	}
	path := filepath.Join(s.root, filepath.Base(attachment.StoredName))
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
