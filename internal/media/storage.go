package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"consultant-hub/internal/models"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrStorage              = errors.New("media storage failed")
)

// mimeTypes maps accepted MIME types to their media type tag.
var mimeTypes = map[string]string{
	"image/jpeg":      models.MediaTypeImage,
	"image/png":       models.MediaTypeImage,
	"image/gif":       models.MediaTypeImage,
	"image/webp":      models.MediaTypeImage,
	"video/mp4":       models.MediaTypeVideo,
	"video/quicktime": models.MediaTypeVideo,
	"video/webm":      models.MediaTypeVideo,
}

// StoredFile describes a file written to the storage root. Path is relative
// to the root and is what gets persisted and served.
type StoredFile struct {
	Path      string
	Type      string
	MimeType  string
	SizeBytes int64
}

// Storage writes uploads below an explicitly injected root directory.
type Storage struct {
	root string
	log  *zap.Logger
}

func NewStorage(root string, log *zap.Logger) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Storage{root: root, log: log}, nil
}

// Root returns the storage root directory, for static file serving.
func (s *Storage) Root() string { return s.root }

// TypeForMime reports the media type tag for a MIME type, if supported.
func TypeForMime(mime string) (string, bool) {
	t, ok := mimeTypes[strings.ToLower(strings.TrimSpace(mime))]
	return t, ok
}

// Store writes the upload under <root>/<consultantID>/<yyyymmdd>/ with a
// collision-free generated name. Files are created with O_EXCL so a derived
// name can never silently overwrite an existing file; uploads by different
// consultants land in different directories and cannot interfere.
func (s *Storage) Store(ctx context.Context, consultantID, filename, mime string, r io.Reader) (*StoredFile, error) {
	mediaType, ok := TypeForMime(mime)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mime)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Buffer the upload so a retried write starts from the full content.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	day := time.Now().UTC().Format("20060102")
	dir := filepath.Join(s.root, consultantID, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	// One retry covers both a transient write failure and the (unlikely)
	// case of two uploads deriving the same name in the same nanosecond.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.New().String()[:8], ext)
		full := filepath.Join(dir, name)

		if err := writeExclusive(full, data); err != nil {
			lastErr = err
			s.log.Warn("media write failed", zap.String("path", full), zap.Error(err))
			continue
		}
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return &StoredFile{
			Path:      filepath.ToSlash(rel),
			Type:      mediaType,
			MimeType:  mime,
			SizeBytes: int64(len(data)),
		}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrStorage, lastErr)
}

// Remove deletes a previously stored file. The path must resolve inside the
// root; anything else is refused.
func (s *Storage) Remove(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(s.root, filepath.FromSlash(relPath))
	resolved, err := filepath.Abs(full)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !strings.HasPrefix(resolved, rootAbs+string(os.PathSeparator)) {
		return fmt.Errorf("%w: path escapes media root", ErrStorage)
	}
	if err := os.Remove(resolved); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
