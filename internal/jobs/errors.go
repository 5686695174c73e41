package jobs

import "errors"

var (
	// ErrPoolRequired is returned when a client is built without a
	// database pool.
	ErrPoolRequired = errors.New("jobs: pool is required")
	// ErrAlreadyStarted is returned when starting a running client.
	ErrAlreadyStarted = errors.New("jobs: already started")
	// ErrNotStarted is returned when stopping a client that never started.
	ErrNotStarted = errors.New("jobs: not started")
	// ErrHealthcheckFailed wraps the cause when the readiness check fails.
	ErrHealthcheckFailed = errors.New("jobs: healthcheck failed")
)
