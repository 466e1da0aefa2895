// Package results owns what the browser displays. It accepts provider
// responses only for the most recently issued request, so a slow answer
// to an old query can never overwrite a newer one.
package results

import (
	"fmt"
	"sync"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// State is the display state of the result list.
type State int

const (
	// StateIdle shows the bootstrap page; nothing has been requested yet.
	StateIdle State = iota
	// StateLoading means a request is in flight. The previous items stay visible.
	StateLoading
	// StatePopulated shows a non-empty page.
	StatePopulated
	// StateEmpty means the latest query matched nothing.
	StateEmpty
	// StateErrored means the latest request failed. The last good page stays visible.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateEmpty:
		return "empty"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View is an immutable snapshot of the displayed results.
type View struct {
	State      State
	Items      []domain.Recipe
	TotalCount int
	// Query produced the displayed items; Pending is the query in flight.
	Query   domain.Query
	Pending domain.Query
	Message string
	Err     error
	// Seq is the latest issued sequence number.
	Seq uint64
	// Rev increases with every transition. Listeners may receive views
	// out of order and should drop one older than the last they rendered.
	Rev uint64
}

// HasMore reports whether the provider holds more matches than are shown.
func (v View) HasMore() bool {
	return len(v.Items) < v.TotalCount
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithMessages sets the locale used for status messages.
func WithMessages(m *Messages) ApplierOption {
	return func(a *Applier) {
		a.msgs = m
	}
}

// WithListener registers fn to be called after every transition.
func WithListener(fn func(View)) ApplierOption {
	return func(a *Applier) {
		a.listeners = append(a.listeners, fn)
	}
}

// Applier tracks issued requests and applies their responses. Safe for
// concurrent use; listeners are called without the lock held.
type Applier struct {
	log  *logger.Logger
	msgs *Messages

	mu        sync.Mutex
	state     State
	items     []domain.Recipe
	total     int
	shown     domain.Query
	pending   domain.Query
	err       error
	issued    uint64
	rev       uint64
	listeners []func(View)
}

// NewApplier creates an applier displaying the bootstrap page.
func NewApplier(bootstrap domain.ResultPage, log *logger.Logger, opts ...ApplierOption) *Applier {
	a := &Applier{
		log:   log,
		msgs:  NewMessages("en"),
		state: StateIdle,
		items: domain.CloneRecipes(bootstrap.Items),
		total: bootstrap.TotalCount,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnChange registers a listener called after every transition.
func (a *Applier) OnChange(fn func(View)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Issue allocates the next sequence number for a request of q and moves to
// StateLoading. Responses to any earlier number are discarded from now on.
func (a *Applier) Issue(q domain.Query) uint64 {
	a.mu.Lock()
	a.issued++
	seq := a.issued
	a.pending = q
	a.state = StateLoading
	a.err = nil
	view, listeners := a.transitionLocked()
	a.mu.Unlock()

	a.log.Debug("results: issued #%d for %s", seq, q)
	notify(listeners, view)
	return seq
}

// Latest returns the most recently issued sequence number, 0 if none.
func (a *Applier) Latest() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issued
}

// Resolve applies the outcome of request seq, replacing the displayed
// items. A response for anything but the latest request is dropped and
// domain.ErrStaleResponse returned; the display is untouched.
func (a *Applier) Resolve(seq uint64, page domain.ResultPage, fetchErr error) error {
	return a.resolve(seq, page, fetchErr, false)
}

// ResolveMore applies the outcome of a load-more request for seq,
// appending the items to those already displayed. A failed load-more
// keeps the displayed items.
func (a *Applier) ResolveMore(seq uint64, page domain.ResultPage, fetchErr error) error {
	return a.resolve(seq, page, fetchErr, true)
}

func (a *Applier) resolve(seq uint64, page domain.ResultPage, fetchErr error, appendItems bool) error {
	a.mu.Lock()
	if seq != a.issued {
		latest := a.issued
		a.mu.Unlock()
		a.log.Debug("results: dropped response #%d (latest #%d)", seq, latest)
		return fmt.Errorf("%w: #%d superseded by #%d", domain.ErrStaleResponse, seq, latest)
	}

	switch {
	case fetchErr != nil:
		a.state = StateErrored
		a.err = fetchErr
	case appendItems:
		a.items = append(domain.CloneRecipes(a.items), domain.CloneRecipes(page.Items)...)
		a.total = page.TotalCount
		a.shown = a.pending
		a.state = a.populatedOrEmpty()
		a.err = nil
	default:
		a.items = domain.CloneRecipes(page.Items)
		a.total = page.TotalCount
		a.shown = a.pending
		a.state = a.populatedOrEmpty()
		a.err = nil
	}
	view, listeners := a.transitionLocked()
	a.mu.Unlock()

	if fetchErr != nil {
		a.log.Warn("results: request #%d failed: %v", seq, fetchErr)
	} else {
		a.log.Debug("results: applied #%d (%d/%d items)", seq, len(view.Items), view.TotalCount)
	}
	notify(listeners, view)
	return nil
}

// View returns the current snapshot.
func (a *Applier) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

func (a *Applier) populatedOrEmpty() State {
	if len(a.items) == 0 {
		return StateEmpty
	}
	return StatePopulated
}

// transitionLocked bumps the revision and captures what to notify. Caller holds mu.
func (a *Applier) transitionLocked() (View, []func(View)) {
	a.rev++
	listeners := make([]func(View), len(a.listeners))
	copy(listeners, a.listeners)
	return a.viewLocked(), listeners
}

func (a *Applier) viewLocked() View {
	v := View{
		State:      a.state,
		Items:      domain.CloneRecipes(a.items),
		TotalCount: a.total,
		Query:      a.shown,
		Pending:    a.pending,
		Err:        a.err,
		Seq:        a.issued,
		Rev:        a.rev,
	}
	switch a.state {
	case StateLoading:
		v.Message = a.msgs.Loading()
	case StateEmpty:
		v.Message = a.msgs.Empty()
	case StateErrored:
		v.Message = a.msgs.Errored(a.err)
	default:
		v.Message = a.msgs.Count(len(a.items), a.total)
	}
	return v
}

func notify(listeners []func(View), v View) {
	for _, fn := range listeners {
		fn(v)
	}
}
