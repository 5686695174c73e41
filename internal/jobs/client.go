package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/dmitrymomot/domainforge/internal/store"
)

// Client owns the service's background work on river: visit analytics
// inserts, outcome notification sends, and the periodic re-verification
// sweep. Jobs can be enqueued before Start; they are worked once the
// client runs.
type Client struct {
	client     *river.Client[pgx.Tx]
	pool       *pgxpool.Pool
	queue      string
	log        *slog.Logger
	insertOnly bool

	mu      sync.Mutex
	started bool
}

type config struct {
	queue         string
	workerCount   int
	reverifyEvery time.Duration
	log           *slog.Logger
}

func defaultConfig() *config {
	return &config{
		queue:         QueueDefault,
		workerCount:   10,
		reverifyEvery: 24 * time.Hour,
		log:           slog.New(slog.DiscardHandler),
	}
}

// Option configures a Client.
type Option func(*config)

// WithQueue overrides the queue all jobs run on.
// Default: QueueDefault.
func WithQueue(name string) Option {
	return func(c *config) {
		if name != "" {
			c.queue = name
		}
	}
}

// WithWorkerCount caps concurrent jobs on the queue.
// Default: 10.
func WithWorkerCount(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithReverifyInterval sets how often the re-verification sweep runs.
// Default: 24h.
func WithReverifyInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.reverifyEvery = d
		}
	}
}

// WithLogger attaches a logger passed through to river.
// Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a working client: all three workers registered and the
// re-verification sweep scheduled.
func New(pool *pgxpool.Pool, st store.Store, notifier OutcomeNotifier, reverifier Reverifier, opts ...Option) (*Client, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &RecordVisitWorker{store: st})
	river.AddWorker(workers, &NotifyWorker{notifier: notifier})
	river.AddWorker(workers, &ReverifyWorker{reverifier: reverifier, log: cfg.log})

	periodic := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.reverifyEvery),
			func() (river.JobArgs, *river.InsertOpts) {
				return ReverifyArgs{}, &river.InsertOpts{Queue: cfg.queue}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			cfg.queue: {MaxWorkers: cfg.workerCount},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.log,
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: create river client: %w", err)
	}

	return &Client{client: client, pool: pool, queue: cfg.queue, log: cfg.log}, nil
}

// NewInsertOnly builds a client that can enqueue but never works jobs,
// for edge-only instances that leave processing to the rest of the
// fleet.
func NewInsertOnly(pool *pgxpool.Pool, opts ...Option) (*Client, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{Logger: cfg.log})
	if err != nil {
		return nil, fmt.Errorf("jobs: create river client: %w", err)
	}

	return &Client{client: client, pool: pool, queue: cfg.queue, log: cfg.log, insertOnly: true}, nil
}

// Start begins working jobs. A no-op beyond bookkeeping for insert-only
// clients.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if !c.insertOnly {
		if err := c.client.Start(ctx); err != nil {
			return fmt.Errorf("jobs: start client: %w", err)
		}
	}
	c.started = true
	c.log.InfoContext(ctx, "job client started",
		slog.String("queue", c.queue),
		slog.Bool("insert_only", c.insertOnly),
	)
	return nil
}

// Stop drains in-flight jobs and shuts the client down.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrNotStarted
	}
	c.started = false
	if c.insertOnly {
		return nil
	}
	if err := c.client.Stop(ctx); err != nil {
		return fmt.Errorf("jobs: stop client: %w", err)
	}
	return nil
}

// RecordVisit enqueues one visit insert.
func (c *Client) RecordVisit(ctx context.Context, args VisitArgs) error {
	if args.OccurredAt.IsZero() {
		args.OccurredAt = time.Now().UTC()
	}
	if _, err := c.client.Insert(ctx, args, &river.InsertOpts{Queue: c.queue}); err != nil {
		return fmt.Errorf("jobs: enqueue visit: %w", err)
	}
	return nil
}

// NotifyOutcome enqueues one outcome notification email.
func (c *Client) NotifyOutcome(ctx context.Context, args NotifyArgs) error {
	if _, err := c.client.Insert(ctx, args, &river.InsertOpts{Queue: c.queue}); err != nil {
		return fmt.Errorf("jobs: enqueue notification: %w", err)
	}
	return nil
}

// Healthcheck reports whether the client is started and its database
// reachable. Compatible with the handler's named readiness checks.
func (c *Client) Healthcheck(ctx context.Context) error {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
	}
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
