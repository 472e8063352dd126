package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
	"anomalydash/internal/services/cache"
)

// Fetcher retrieves one image from the origin as a data URI.
type Fetcher interface {
	FetchImage(ctx context.Context, key string) (string, error)
}

// ImageLoadError is the per-key failure every waiter of an attempt observes.
type ImageLoadError struct {
	Key   string
	Cause error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Key, e.Cause)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Cause
}

// ImageLoader fetches images on demand through a shared ResourceCache so a key is
// never retrieved twice at the same time and never again once loaded.
type ImageLoader struct {
	cache   *cache.ResourceCache
	fetcher Fetcher
	timeout time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// New creates a loader. timeout bounds each retrieval; zero means no extra bound.
func New(c *cache.ResourceCache, f Fetcher, timeout time.Duration, logger *logger.Logger, m *metrics.Metrics) *ImageLoader {
	return &ImageLoader{
		cache:   c,
		fetcher: f,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Load returns the payload for key. Concurrent callers share one retrieval; a Failed
// key is retried. ctx only bounds how long this caller waits.
func (l *ImageLoader) Load(ctx context.Context, key string) (string, error) {
	if entry, ok := l.cache.Get(key); ok && entry.State == cache.Loaded {
		l.metrics.CacheLookup("hit")
		return entry.Payload, nil
	}

	proceed, attempt := l.cache.BeginFetch(key)
	if proceed {
		l.metrics.CacheLookup("miss")
		go l.retrieve(context.WithoutCancel(ctx), key)
	} else {
		l.metrics.CacheLookup("shared")
	}

	select {
	case <-attempt.Done():
		return attempt.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// State reports the cache state for key.
func (l *ImageLoader) State(key string) cache.State {
	entry, _ := l.cache.Get(key)
	return entry.State
}

// Cache exposes the shared cache for status snapshots.
func (l *ImageLoader) Cache() *cache.ResourceCache {
	return l.cache
}

func (l *ImageLoader) retrieve(ctx context.Context, key string) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	payload, err := l.fetcher.FetchImage(ctx, key)
	elapsed := time.Since(start)

	if err != nil {
		l.metrics.ImageFetch("error", elapsed.Seconds())
		if errors.Is(err, context.DeadlineExceeded) {
			l.logger.Warning("Image %s timed out after %s", key, elapsed.Round(time.Millisecond))
		} else {
			l.logger.Error("Error loading image %s: %v", key, err)
		}
		if ferr := l.cache.Fail(key, &ImageLoadError{Key: key, Cause: err}); ferr != nil {
			l.logger.Error("Cache refused failure for %s: %v", key, ferr)
		}
		return
	}

	l.metrics.ImageFetch("success", elapsed.Seconds())
	l.logger.Debug("Loaded image %s (%d bytes) in %s", key, len(payload), elapsed.Round(time.Millisecond))
	if cerr := l.cache.Complete(key, payload); cerr != nil {
		l.logger.Error("Cache refused payload for %s: %v", key, cerr)
	}
}
