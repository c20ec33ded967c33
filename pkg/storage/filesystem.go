package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Attachment describes a stored upload. The messaging service persists this
// metadata; the raw bytes stay on disk.
type Attachment struct {
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	ByteSize     int64  `json:"byte_size"`
	Kind         string `json:"kind"`
}

// LocalStorage persists chat attachments on disk under a base directory.
type LocalStorage struct {
	baseDir string
	maxSize int64
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string, maxSize int64) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, maxSize: maxSize}, nil
}

// SaveUpload stores a multipart upload and returns its metadata. The stored
// name is randomized; the original name survives only in the metadata.
func (s *LocalStorage) SaveUpload(header *multipart.FileHeader) (*Attachment, error) {
	if s.maxSize > 0 && header.Size > s.maxSize {
		return nil, fmt.Errorf("file exceeds maximum size of %d bytes", s.maxSize)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close() //nolint:errcheck

	stored := uuid.NewString() + filepath.Ext(header.Filename)
	path := s.resolve(stored)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close() //nolint:errcheck

	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &Attachment{
		URL:          "/uploads/" + stored,
		OriginalName: header.Filename,
		ByteSize:     written,
		Kind:         CoarseKind(header.Filename, header.Header.Get("Content-Type")),
	}, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(filename string) string {
	cleaned := filepath.Clean("/" + filename)
	return filepath.Join(s.baseDir, cleaned)
}

// CoarseKind maps an upload to the message kind bucket used by the chat
// service: image, video, audio, document.
func CoarseKind(filename, contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	case ".mp4", ".mov", ".webm":
		return "video"
	case ".mp3", ".ogg", ".wav", ".m4a":
		return "audio"
	}
	return "document"
}
