// Package cache provides the shared key-value substrate used by session
// memory, price quotes, review summaries, and the policy index. Two backends
// implement the same interface: a redis-backed one and an in-process bounded
// map. Callers never see backend errors; a broken cache behaves like an empty
// one.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Logical namespaces sharing one physical store. The namespace doubles as
// the key prefix on the redis backend.
const (
	NamespaceSession       = "session:"
	NamespacePrice         = "price:"
	NamespaceReviewSummary = "review_summary:"
	NamespacePolicyIndex   = "policy_index:"
)

// Cache is the storage contract. No operation returns an error: a missing,
// expired, or unreachable value reads as absent, and failed writes are
// dropped. Upstream code re-computes on miss.
type Cache interface {
	// Get returns the value for key, or false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A non-positive ttl selects the
	// namespace default. Set refreshes both value and expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key and reports whether it previously existed.
	Delete(ctx context.Context, key string) bool

	// Clear removes every entry in the namespace.
	Clear(ctx context.Context)

	// Size returns the number of live entries in the namespace.
	Size(ctx context.Context) int
}

// Options configures the process-wide cache handles.
type Options struct {
	// RedisURL selects the redis backend when non-empty. The constructor
	// pings the server; on any failure the in-process backend is used.
	RedisURL string

	// DefaultTTL applies when Set is called with a non-positive ttl.
	DefaultTTL time.Duration

	// MaxEntries bounds the in-process backend per namespace.
	MaxEntries int
}

const (
	defaultTTL        = time.Hour
	defaultMaxEntries = 10000
)

var (
	mu      sync.Mutex
	opts    Options
	handles map[string]Cache
)

func init() {
	handles = make(map[string]Cache)
	opts = Options{DefaultTTL: defaultTTL, MaxEntries: defaultMaxEntries}
}

// Configure installs the process-wide defaults. Existing handles are kept;
// call Reset first to rebuild them under new options.
func Configure(o Options) {
	mu.Lock()
	defer mu.Unlock()
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = defaultTTL
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = defaultMaxEntries
	}
	opts = o
}

// For returns the shared handle for a namespace, constructing it on first
// use. The backend choice is made once and reused for the life of the
// process: redis when configured and reachable, the in-process map otherwise.
func For(namespace string) Cache {
	mu.Lock()
	defer mu.Unlock()

	if c, ok := handles[namespace]; ok {
		return c
	}

	c := build(namespace)
	handles[namespace] = c
	return c
}

// ForWithTTL returns the namespace handle with a namespace-specific default
// TTL instead of the global one. The first caller of a namespace fixes its
// default.
func ForWithTTL(namespace string, ttl time.Duration) Cache {
	mu.Lock()
	defer mu.Unlock()

	if c, ok := handles[namespace]; ok {
		return c
	}

	saved := opts.DefaultTTL
	if ttl > 0 {
		opts.DefaultTTL = ttl
	}
	c := build(namespace)
	opts.DefaultTTL = saved
	handles[namespace] = c
	return c
}

func build(namespace string) Cache {
	if opts.RedisURL != "" {
		c, err := newRedisCache(opts.RedisURL, namespace, opts.DefaultTTL)
		if err == nil {
			slog.Info("cache backend selected", "namespace", namespace, "backend", "redis")
			return c
		}
		slog.Warn("redis cache unavailable, falling back to in-process backend",
			"namespace", namespace,
			"error", err,
		)
	}
	return newMemoryCache(opts.MaxEntries, opts.DefaultTTL)
}

// Reset drops every handle so the next For rebuilds it. Tests use this to
// swap options between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	handles = make(map[string]Cache)
}
