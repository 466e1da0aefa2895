package timer

import (
	"sync"
	"time"

	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// DefaultDebounceDelay is how long input must settle before it is dispatched.
const DefaultDebounceDelay = 500 * time.Millisecond

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// WithDelay sets the settle delay.
func WithDelay(d time.Duration) DebounceOption {
	return func(db *Debouncer) {
		db.delay = d
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) DebounceOption {
	return func(db *Debouncer) {
		db.clock = c
	}
}

// Debouncer collapses a burst of values into a single call of fire with
// the last value, once no new value has arrived for the configured delay.
// Each Push restarts the delay. No call starts after Close returns, but
// Close does not wait for a call that has already started, so fire must
// check its own state if it can race with Close. Not waiting lets Close
// run from inside fire or under a lock that fire takes.
type Debouncer struct {
	fire  func(value string)
	log   *logger.Logger
	delay time.Duration
	clock Clock

	mu     sync.Mutex
	stop   func() bool // pending timer, nil when idle
	gen    uint64      // bumped on every push and cancel
	latest string
	closed bool
}

// NewDebouncer creates a debouncer that calls fire on settle. fire runs on
// the clock's goroutine and must not block for long.
func NewDebouncer(fire func(value string), log *logger.Logger, opts ...DebounceOption) *Debouncer {
	d := &Debouncer{
		fire:  fire,
		log:   log,
		delay: DefaultDebounceDelay,
		clock: SystemClock,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Push records value and restarts the delay, replacing any pending call.
func (d *Debouncer) Push(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.log.Debug("debounce: push after close ignored")
		return
	}
	if d.stop != nil {
		d.stop()
	}
	d.gen++
	gen := d.gen
	d.latest = value
	d.stop = d.clock.AfterFunc(d.delay, func() { d.settle(gen) })
}

// settle runs when a timer elapses. A timer whose generation has been
// superseded does nothing, even if its Stop raced with the callback.
func (d *Debouncer) settle(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.stop = nil
	value := d.latest
	d.mu.Unlock()

	d.log.Debug("debounce: settled on %q", value)
	d.fire(value)
}

// Cancel drops the pending call, if any, and reports whether there was one.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	d.gen++
	if d.stop == nil {
		return false
	}
	d.stop()
	d.stop = nil
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}

// Close cancels any pending call and disables the debouncer. A call that
// already started is not waited for. Idempotent.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.cancelLocked() {
		d.log.Debug("debounce: pending dispatch cancelled on close")
	}
	d.closed = true
}
