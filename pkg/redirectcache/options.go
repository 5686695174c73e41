package redirectcache

import "time"

// Option configures the cache.
type Option func(*options)

type options struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int
}

func defaultOptions() *options {
	return &options{
		defaultTTL:      time.Hour,
		cleanupInterval: 2 * time.Minute,
		maxEntries:      1000,
	}
}

// WithDefaultTTL sets the expiry applied when an entry is stored without
// an explicit TTL.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithCleanupInterval sets how often the background janitor sweeps
// expired entries. Zero disables the janitor; expired entries are then
// only removed lazily on read.
// Default: 2 minutes.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

// WithMaxEntries caps the cache size. When the cap is reached, the entry
// with the oldest creation time is evicted. Zero means unlimited.
// Default: 1000.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}
