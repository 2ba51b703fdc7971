package metrics

// CacheHit records a list page served from the cache.
func CacheHit(kind string) {
	CacheLookupsTotal.WithLabelValues(kind, "hit").Inc()
}

// CacheMiss records a list page fetched from the backend.
func CacheMiss(kind string) {
	CacheLookupsTotal.WithLabelValues(kind, "miss").Inc()
}

// CacheShared records a caller that joined an in-flight fetch.
func CacheShared(kind string) {
	CacheLookupsTotal.WithLabelValues(kind, "shared").Inc()
}

// CacheError records a cache store failure. The fetch still proceeds.
func CacheError(kind string) {
	CacheLookupsTotal.WithLabelValues(kind, "error").Inc()
}

// CacheInvalidated records that every page of kind was dropped.
func CacheInvalidated(kind string) {
	CacheInvalidationsTotal.WithLabelValues(kind).Inc()
}

// CacheStaleWriteSkipped records a late response that was not stored.
func CacheStaleWriteSkipped(kind string) {
	CacheStaleWritesSkipped.WithLabelValues(kind).Inc()
}

// MutationSucceeded records a successful write against the backend.
func MutationSucceeded(kind, action string) {
	MutationsTotal.WithLabelValues(kind, action, "success").Inc()
}

// MutationFailed records a rejected write.
func MutationFailed(kind, action string) {
	MutationsTotal.WithLabelValues(kind, action, "failure").Inc()
}
