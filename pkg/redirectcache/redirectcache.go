package redirectcache

import (
	"container/list"
	"sync"
	"time"
)

// Entry is a single subdomain to custom-domain mapping. An entry with an
// empty CustomDomain records that the subdomain has no redirect configured
// (negative caching), which is distinct from the subdomain being absent
// from the cache.
type Entry struct {
	Subdomain      string        `json:"subdomain"`
	CustomDomain   string        `json:"custom_domain,omitempty"`
	ShouldRedirect bool          `json:"should_redirect"`
	CreatedAt      time.Time     `json:"created_at"`
	TTL            time.Duration `json:"ttl"`
}

// expired reports whether the entry has outlived its TTL. Non-positive
// TTLs never expire.
func (e *Entry) expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > e.TTL
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache maps tenant subdomains to their verified custom domains so the
// edge can decide redirects without a store round trip.
//
// It uses a hash map for O(1) lookups and a doubly-linked list ordered by
// entry creation time: the newest entries sit at the front, the oldest at
// the back. Reads never reorder the list, so eviction under the size cap
// always removes the oldest entry in O(1). All operations, including the
// lazy expiry inside Get and the statistics counters, are guarded by one
// mutex and safe for concurrent use.
type Cache struct {
	items map[string]*list.Element
	order *list.List
	opts  *options
	done  chan struct{}

	mu        sync.Mutex
	closed    bool
	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a redirect cache and starts its background janitor unless
// the cleanup interval is zero.
//
// Example:
//
//	c := redirectcache.New(
//	    redirectcache.WithDefaultTTL(time.Hour),
//	    redirectcache.WithMaxEntries(1000),
//	)
//	defer c.Close()
func New(opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Cache{
		items: make(map[string]*list.Element),
		order: list.New(),
		opts:  o,
		done:  make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go c.janitor()
	}

	return c
}

// Get returns the entry for subdomain. Expired entries are removed on
// read and count as misses, so absence after expiry is indistinguishable
// from the key never having been set.
func (c *Cache) Get(subdomain string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[subdomain]
	if !ok {
		c.misses++
		return Entry{}, ErrNotFound
	}

	e := elem.Value.(*Entry)
	if e.expired(time.Now()) {
		c.removeElement(elem)
		c.misses++
		return Entry{}, ErrNotFound
	}

	c.hits++
	return *e, nil
}

// Set records the mapping for subdomain using the default TTL. An empty
// customDomain marks a known no-redirect state.
func (c *Cache) Set(subdomain, customDomain string, shouldRedirect bool) error {
	return c.SetTTL(subdomain, customDomain, shouldRedirect, 0)
}

// SetTTL is Set with an explicit TTL.
// TTL semantics: positive = expires after duration, zero = use default TTL,
// negative = never expires.
func (c *Cache) SetTTL(subdomain, customDomain string, shouldRedirect bool, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.set(subdomain, customDomain, shouldRedirect, ttl, time.Now())
	return nil
}

// SetMany bulk-loads entries, typically to warm the cache at startup.
// Each entry's TTL field is honored under the usual semantics; inserts
// beyond the size cap evict the oldest as usual.
func (c *Cache) SetMany(entries []Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	now := time.Now()
	for _, e := range entries {
		c.set(e.Subdomain, e.CustomDomain, e.ShouldRedirect, e.TTL, now)
	}
	return nil
}

// set inserts or overwrites an entry. Overwriting refreshes the entry's
// creation time, making it the newest for eviction ordering.
// Caller must hold the mutex.
func (c *Cache) set(subdomain, customDomain string, shouldRedirect bool, ttl time.Duration, now time.Time) {
	if ttl == 0 {
		ttl = c.opts.defaultTTL
	}

	if elem, ok := c.items[subdomain]; ok {
		e := elem.Value.(*Entry)
		e.CustomDomain = customDomain
		e.ShouldRedirect = shouldRedirect
		e.CreatedAt = now
		e.TTL = ttl
		c.order.MoveToFront(elem)
		return
	}

	if c.opts.maxEntries > 0 && len(c.items) >= c.opts.maxEntries {
		c.evictOldest()
	}

	e := &Entry{
		Subdomain:      subdomain,
		CustomDomain:   customDomain,
		ShouldRedirect: shouldRedirect,
		CreatedAt:      now,
		TTL:            ttl,
	}
	c.items[subdomain] = c.order.PushFront(e)
}

// ShouldRedirect reports whether subdomain has a verified redirect target.
// Misses and negative entries both report false.
func (c *Cache) ShouldRedirect(subdomain string) bool {
	e, err := c.Get(subdomain)
	return err == nil && e.ShouldRedirect && e.CustomDomain != ""
}

// RedirectURL returns the absolute redirect target for subdomain. The
// second return is false on a miss or when no redirect is configured.
func (c *Cache) RedirectURL(subdomain string) (string, bool) {
	e, err := c.Get(subdomain)
	if err != nil || !e.ShouldRedirect || e.CustomDomain == "" {
		return "", false
	}
	return "https://" + e.CustomDomain, true
}

// InvalidateDomain removes every entry pointing at customDomain and
// returns how many were removed. Used when a domain is reassigned or
// removed. Linear scan over the capped entry set.
func (c *Cache) InvalidateDomain(customDomain string) int {
	if customDomain == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*Entry).CustomDomain == customDomain {
			c.removeElement(elem)
			count++
		}
		elem = prev
	}
	return count
}

// InvalidateSubdomain drops the entry for subdomain, reporting whether
// one was present.
func (c *Cache) InvalidateSubdomain(subdomain string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[subdomain]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Len returns the number of live entries, expired ones included until
// they are swept or read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns current counters. HitRate is zero when no lookups have
// happened yet.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.items),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Clear removes all entries. Statistics counters are kept.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.items = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Close stops the background janitor and marks the cache as closed.
// Close is idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return nil
}

// janitor periodically sweeps expired entries so memory stays bounded
// even when keys are never read again.
func (c *Cache) janitor() {
	ticker := time.NewTicker(c.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.deleteExpired()
		}
	}
}

// deleteExpired removes all expired entries from back to front.
func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*Entry).expired(now) {
			c.removeElement(elem)
		}
		elem = prev
	}
}

// evictOldest removes the entry with the oldest creation time and counts
// the eviction.
// Caller must hold the mutex.
func (c *Cache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
		c.evictions++
	}
}

// removeElement removes a specific element from both structures.
// Caller must hold the mutex.
func (c *Cache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*Entry).Subdomain)
}
