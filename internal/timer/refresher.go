package timer

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// DefaultRefreshInterval matches how often the bootstrap page is revalidated.
const DefaultRefreshInterval = 60 * time.Second

// RefreshFunc re-fetches whatever the refresher keeps warm.
type RefreshFunc func(ctx context.Context) error

// Option configures the refresher.
type Option func(*Refresher)

// WithInterval sets how often the refresh runs.
func WithInterval(d time.Duration) Option {
	return func(r *Refresher) {
		r.interval = d
	}
}

// WithTimeout bounds a single refresh call.
func WithTimeout(d time.Duration) Option {
	return func(r *Refresher) {
		r.timeout = d
	}
}

// Refresher runs in the background and periodically calls its refresh
// function, typically to revalidate the unfiltered first page.
type Refresher struct {
	refresh  RefreshFunc
	log      *logger.Logger
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	runs    int
	fails   int
}

// NewRefresher creates a refresher around fn.
func NewRefresher(fn RefreshFunc, log *logger.Logger, opts ...Option) *Refresher {
	r := &Refresher{
		refresh:  fn,
		log:      log,
		interval: DefaultRefreshInterval,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the background loop. Non-blocking.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		r.log.Warn("refresher already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.done = make(chan struct{})

	go r.loop(childCtx, r.done)

	r.log.Info("refresher started (interval=%s)", r.interval)
}

// Stop shuts the loop down and waits for it to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.running = false
	done := r.done
	r.mu.Unlock()

	<-done
	r.log.Info("refresher stopped")
}

// Stats returns how many refreshes ran and how many of them failed.
func (r *Refresher) Stats() (runs, fails int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, r.fails
}

func (r *Refresher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one refresh under the per-call timeout.
func (r *Refresher) tick(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.refresh(callCtx)

	r.mu.Lock()
	r.runs++
	if err != nil {
		r.fails++
	}
	r.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		r.log.Error("refresher: %v", err)
		return
	}
	r.log.Debug("refresher: refreshed")
}
