package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps objects under a base directory and serves them from
// BaseURL (mounted by the HTTP server under /files/).
type LocalStorage struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(cfg LocalConfig, logger *slog.Logger) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.Info("initialized local storage", "base_path", absPath, "base_url", cfg.BaseURL)

	return &LocalStorage{
		basePath: absPath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:   logger,
	}, nil
}

// BasePath returns the directory objects are stored in.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

func (s *LocalStorage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filePath, err := s.resolve(key)
	if err != nil {
		return &StorageError{Op: "Put", Key: key, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return &StorageError{Op: "Put", Key: key, Err: err}
	}

	// Write to a temp file first so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".upload-*")
	if err != nil {
		return &StorageError{Op: "Put", Key: key, Err: err}
	}
	defer os.Remove(tmp.Name())

	src := data
	if opts.MaxSize > 0 {
		src = io.LimitReader(data, opts.MaxSize+1)
	}
	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &StorageError{Op: "Put", Key: key, Err: err}
	}
	if opts.MaxSize > 0 && written > opts.MaxSize {
		return &StorageError{Op: "Put", Key: key, Err: ErrTooLarge}
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return &StorageError{Op: "Put", Key: key, Err: err}
	}

	s.logger.Debug("stored file", "key", key, "size", written, "content_type", opts.ContentType)
	return nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	filePath, err := s.resolve(key)
	if err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "Get", Key: key, Err: err}
	}

	f, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, ObjectInfo{}, &StorageError{Op: "Get", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "Get", Key: key, Err: err}
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, &StorageError{Op: "Get", Key: key, Err: err}
	}

	return f, ObjectInfo{
		Key:          key,
		Size:         stat.Size(),
		ContentType:  DetectContentType("", key, nil),
		LastModified: stat.ModTime(),
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filePath, err := s.resolve(key)
	if err != nil {
		return &StorageError{Op: "Delete", Key: key, Err: err}
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "Delete", Key: key, Err: err}
	}
	return nil
}

// URL ignores expires; local files are always public.
func (s *LocalStorage) URL(ctx context.Context, key string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validKey(key) {
		return "", &StorageError{Op: "URL", Key: key, Err: ErrInvalidKey}
	}
	return s.baseURL + "/" + key, nil
}

// resolve maps key to a path inside basePath.
func (s *LocalStorage) resolve(key string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	p := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(p, s.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return p, nil
}
