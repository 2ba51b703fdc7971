// Package storage archives uploaded files: withdrawal receipts and stuff
// pictures are kept here, together with generated receipt thumbnails, before
// being forwarded to the backend.
//
// Two providers exist: LocalStorage for development and R2Storage
// (Cloudflare R2 through the S3 API) for production.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage stores and serves objects by key.
type Storage interface {
	// Put stores data at key, replacing any previous object.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link to the object. A zero expiry asks for a permanent
	// public URL when the provider has one.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string // detected from the key when empty
	MaxSize     int64  // 0 means no limit
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Provider names.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	BasePath string // e.g. "./storage"
	BaseURL  string // e.g. "http://localhost:8080/files"
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string // custom domain; presigned URLs are used when empty
	Region          string // defaults to "auto"
}

// New opens the configured provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// =============================================================================
// Keys
// =============================================================================

// ReceiptKey returns a fresh key for a withdrawal receipt.
// Format: receipts/{transactionID}/{uuid}{ext}
func ReceiptKey(transactionID, filename string) string {
	return fmt.Sprintf("receipts/%s/%s%s", sanitizeSegment(transactionID), uuid.New(), extension(filename))
}

// ThumbnailKey returns the thumbnail key of an archived image.
// Format: {dir}/thumbnails/{name}.jpg
func ThumbnailKey(key string) string {
	dir, file := path.Split(key)
	name := strings.TrimSuffix(file, path.Ext(file))
	return dir + "thumbnails/" + name + ".jpg"
}

// StuffImageKey returns a fresh key for a stuff picture.
// Format: stuffs/{uuid}{ext}
func StuffImageKey(filename string) string {
	return fmt.Sprintf("stuffs/%s%s", uuid.New(), extension(filename))
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == ".jpeg" {
		return ".jpg"
	}
	return ext
}

// sanitizeSegment keeps a backend id usable as a single path segment.
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}

// validKey rejects empty keys and traversal attempts.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
