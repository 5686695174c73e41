package redirectcache

import "errors"

var (
	// ErrNotFound is returned when a subdomain is absent or expired.
	ErrNotFound = errors.New("redirectcache: entry not found")
	// ErrClosed is returned by mutating operations after Close.
	ErrClosed = errors.New("redirectcache: cache is closed")
)
