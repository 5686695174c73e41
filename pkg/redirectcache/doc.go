// Package redirectcache keeps the subdomain to custom-domain mapping the
// edge needs to answer "should this tenant site redirect, and where to"
// without touching the database on the hot path.
//
// # Model
//
// Each entry maps a tenant subdomain to its verified custom domain plus a
// redirect flag. An entry with an empty CustomDomain is a negative entry:
// it records that the subdomain is known to have no redirect, so repeat
// lookups for unconfigured sites skip the store too. Negative entries are
// distinct from cache misses.
//
// Entries expire after a TTL (default one hour). Expiry is lazy on read
// and proactive via a background janitor (default every two minutes), so
// memory stays bounded even for keys that are never read again. Absence
// after expiry is indistinguishable from the key never having been set.
//
// The cache is size-capped (default 1000 entries). At capacity, the entry
// with the oldest creation time is evicted; reads do not refresh creation
// time, so a frequently read but stale mapping still ages out.
//
// # Usage
//
//	c := redirectcache.New(
//	    redirectcache.WithDefaultTTL(time.Hour),
//	    redirectcache.WithMaxEntries(1000),
//	)
//	defer c.Close()
//
//	c.Set("john-jane-2024", "ourwedding.com", true)
//
//	if url, ok := c.RedirectURL("john-jane-2024"); ok {
//	    // 301 to url
//	}
//
// All operations are safe for concurrent use from many request handlers.
// Hit/miss/eviction counters are exposed via Stats for observability and
// never affect correctness.
//
// # Multi-Instance Invalidation
//
// A single edge instance only needs the in-process cache. Fleets use
// Broadcaster, which publishes domain and subdomain invalidations on a
// Redis channel and applies remote ones locally, keeping every instance's
// cache convergent within the TTL bound.
package redirectcache
