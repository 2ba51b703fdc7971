package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long a page is served without a re-fetch when no
// write invalidates it.
const DefaultTTL = 30 * time.Second

// Lists caches list pages for every entity kind.
type Lists struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewLists creates a list cache over store.
func NewLists(store Store, ttl time.Duration, logger *slog.Logger) *Lists {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lists{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// FetchFunc loads one page from the backend.
type FetchFunc[T any] func(ctx context.Context) (domain.Page[T], error)

// Load returns the page for key, fetching it at most once concurrently.
//
// Cache store failures degrade to a direct fetch. Errors from fetch are
// returned as-is and never cached.
func Load[T any](ctx context.Context, l *Lists, key Key, fetch FetchFunc[T]) (domain.Page[T], error) {
	kind := string(key.Kind)

	gen, err := l.store.Generation(ctx, kind)
	if err != nil {
		metrics.CacheError(kind)
		l.logger.Warn("list cache generation lookup failed", "kind", kind, "error", err)
		return fetch(ctx)
	}
	entryKey := entryKey(kind, gen, key)

	if raw, ok, err := l.store.Get(ctx, entryKey); err != nil {
		metrics.CacheError(kind)
		l.logger.Warn("list cache read failed", "key", entryKey, "error", err)
	} else if ok {
		var page domain.Page[T]
		if err := json.Unmarshal(raw, &page); err == nil {
			metrics.CacheHit(kind)
			return page, nil
		}
		l.logger.Warn("discarding undecodable cache entry", "key", entryKey)
	}

	v, err, shared := l.group.Do(entryKey, func() (interface{}, error) {
		// Detach from the first caller so joined callers are not failed by
		// its cancellation. The backend client enforces its own timeout.
		fctx := context.WithoutCancel(ctx)

		page, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		l.storeIfCurrent(fctx, kind, gen, entryKey, page)
		return page, nil
	})
	if shared {
		metrics.CacheShared(kind)
	} else {
		metrics.CacheMiss(kind)
	}
	if err != nil {
		return domain.Page[T]{}, err
	}
	return v.(domain.Page[T]), nil
}

// storeIfCurrent writes page unless kind was invalidated while it was in
// flight.
func (l *Lists) storeIfCurrent(ctx context.Context, kind string, gen int64, entryKey string, page any) {
	current, err := l.store.Generation(ctx, kind)
	if err != nil {
		metrics.CacheError(kind)
		return
	}
	if current != gen {
		metrics.CacheStaleWriteSkipped(kind)
		l.logger.Debug("skipping stale list page", "key", entryKey, "fetched_gen", gen, "current_gen", current)
		return
	}

	raw, err := json.Marshal(page)
	if err != nil {
		l.logger.Warn("failed to encode list page", "key", entryKey, "error", err)
		return
	}
	if err := l.store.Set(ctx, entryKey, raw, l.ttl); err != nil {
		metrics.CacheError(kind)
		l.logger.Warn("list cache write failed", "key", entryKey, "error", err)
	}
}

// Invalidate drops every cached page of kind.
func (l *Lists) Invalidate(ctx context.Context, kind domain.EntityKind) error {
	gen, err := l.store.Bump(ctx, string(kind))
	if err != nil {
		metrics.CacheError(string(kind))
		return fmt.Errorf("invalidate %s: %w", kind, err)
	}
	metrics.CacheInvalidated(string(kind))
	l.logger.Debug("list cache invalidated", "kind", kind, "generation", gen)
	return nil
}

// Close releases the underlying store.
func (l *Lists) Close() error {
	return l.store.Close()
}

func entryPrefix(kind string) string {
	return "list:" + kind + ":"
}

func entryKey(kind string, gen int64, key Key) string {
	return fmt.Sprintf("%s%d:%s", entryPrefix(kind), gen, key.String())
}
