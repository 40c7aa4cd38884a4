// Package photostore persists uploaded sighting photos on the local
// filesystem and serves them through a configured public base URL.
package photostore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wingman2025/birdtarifa/internal/conf"
	"github.com/wingman2025/birdtarifa/internal/errors"
	"github.com/wingman2025/birdtarifa/internal/logging"
)

// contentTypeExtensions maps accepted upload types to file extensions.
// Anything absent from this map is rejected before touching storage.
var contentTypeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var (
	storeLogger *slog.Logger
	closeLogger func() error
)

func init() {
	var err error
	storeLogger, closeLogger, err = logging.NewFileLogger("logs/photostore.log", "photostore", slog.LevelInfo)
	if err != nil || storeLogger == nil {
		storeLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// CloseLogger releases the package log file. Call during shutdown.
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}

// AllowedContentType reports whether an upload content type is accepted.
func AllowedContentType(contentType string) bool {
	_, ok := contentTypeExtensions[contentType]
	return ok
}

// BuildPhotoKey derives a storage key for a new upload, partitioned by year
// and month so listings stay manageable.
func BuildPhotoKey(contentType string) (string, error) {
	extension, ok := contentTypeExtensions[contentType]
	if !ok {
		return "", errors.Newf("unsupported image content type").
			Component("photostore").
			Category(errors.CategoryValidation).
			Context("content_type", contentType).
			Build()
	}
	now := time.Now().UTC()
	name := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("sightings/%04d/%02d/%s.%s", now.Year(), int(now.Month()), name, extension), nil
}

// Store writes photos below a root directory.
type Store struct {
	root    string
	baseURL string
}

func NewStore(settings *conf.Settings) (*Store, error) {
	root := strings.TrimSpace(settings.Media.StoragePath)
	if root == "" {
		return nil, errors.Newf("media storage path is not configured").
			Component("photostore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Newf("creating media storage directory: %v", err).
			Component("photostore").
			Category(errors.CategoryFileIO).
			Context("path", root).
			Build()
	}
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(settings.Media.PublicBaseURL, "/"),
	}, nil
}

// Upload writes the payload under key and returns its public URL.
func (s *Store) Upload(key string, payload []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Newf("creating photo directory: %v", err).
			Component("photostore").
			Category(errors.CategoryMedia).
			Context("key", key).
			Build()
	}
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return "", errors.Newf("writing photo: %v", err).
			Component("photostore").
			Category(errors.CategoryMedia).
			Context("key", key).
			Build()
	}

	storeLogger.Info("photo stored", "key", key, "bytes", len(payload))
	return s.PublicURL(key), nil
}

// Delete removes a stored photo. Deleting a key that does not exist is not
// an error, matching object-store delete semantics.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Newf("deleting photo: %v", err).
			Component("photostore").
			Category(errors.CategoryMedia).
			Context("key", key).
			Build()
	}
	storeLogger.Info("photo deleted", "key", key)
	return nil
}

// PublicURL maps a storage key to its public address.
func (s *Store) PublicURL(key string) string {
	if s.baseURL == "" {
		return "/" + key
	}
	return s.baseURL + "/" + key
}

// validateKey rejects keys that would escape the storage root.
func validateKey(key string) error {
	cleaned := path.Clean(key)
	if key == "" || path.IsAbs(cleaned) || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return errors.Newf("invalid photo key").
			Component("photostore").
			Category(errors.CategoryValidation).
			Context("key", key).
			Build()
	}
	return nil
}
