package audiostore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/professorai/server/domain/repositories"
)

// ErrNotFound is returned when no stored file matches the reference.
var ErrNotFound = errors.New("audio file not found")

// DiskStore keeps audio files on local disk under a single directory and
// serves them back by filename. Filenames are generated, never
// caller-supplied, so a stored reference is stable and safe to embed in
// outbound message payloads.
type DiskStore struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

// Ensure DiskStore implements the AudioStore interface
var _ repositories.AudioStore = (*DiskStore)(nil)

// NewDiskStore creates the storage directory if needed. baseURL is the
// public prefix under which filenames are served.
func NewDiskStore(dir, baseURL string, logger *zap.Logger) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("audio directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory %s: %w", dir, err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Store implements repositories.AudioStore.
func (s *DiskStore) Store(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("audio data is empty")
	}

	filename := uuid.NewString() + extensionFor(contentType)
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.Info("Stored audio file",
		zap.String("filename", filename),
		zap.Int("size", len(data)))

	return filename, nil
}

// Read implements repositories.AudioStore.
func (s *DiskStore) Read(filename string) ([]byte, error) {
	if !ValidFilename(filename) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	return data, nil
}

// URL implements repositories.AudioStore.
func (s *DiskStore) URL(filename string) string {
	return s.baseURL + "/api/whatsapp/audio/" + filename
}

// ValidFilename rejects references that could escape the storage directory.
func ValidFilename(filename string) bool {
	if filename == "" {
		return false
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return false
	}
	return true
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	default:
		return ".bin"
	}
}

// ContentTypeFor maps a stored filename back to its serving content type.
func ContentTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
