package engine

import (
	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/metrics"
	"github.com/hammamikhairi/ottobrowse/internal/timer"
)

// SearchField is the handle for a free-text title search surface. Typed
// text is committed to the title facet only once input settles; Close
// guarantees nothing is dispatched afterwards.
type SearchField struct {
	eng *Engine
	deb *timer.Debouncer

	// Guarded by eng.mu.
	latest string
	armed  bool
	closed bool
}

// OpenSearch opens the search surface, closing any previously open one.
func (e *Engine) OpenSearch() *SearchField {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := &SearchField{eng: e}
	if e.closed {
		f.closed = true
		return f
	}
	if e.search != nil {
		e.search.closeLocked()
	}

	f.latest = e.store.Facets().Title
	f.deb = timer.NewDebouncer(func(string) { e.commitTitle(f) }, e.log,
		timer.WithDelay(e.debounce),
		timer.WithClock(e.clock),
	)
	e.search = f
	return f
}

// Type records the full current text of the field and restarts the
// settle delay.
func (f *SearchField) Type(text string) {
	f.eng.mu.Lock()
	if f.closed {
		f.eng.mu.Unlock()
		return
	}
	f.latest = text
	f.armed = true
	f.eng.mu.Unlock()

	f.deb.Push(text)
}

// Text returns the last typed text.
func (f *SearchField) Text() string {
	f.eng.mu.Lock()
	defer f.eng.mu.Unlock()
	return f.latest
}

// Pending reports whether typed text is waiting to settle.
func (f *SearchField) Pending() bool {
	f.eng.mu.Lock()
	defer f.eng.mu.Unlock()
	return f.armed && !f.closed
}

// Close cancels any pending dispatch. Idempotent.
func (f *SearchField) Close() {
	f.eng.mu.Lock()
	defer f.eng.mu.Unlock()
	f.closeLocked()
}

func (f *SearchField) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	f.armed = false
	if f.deb != nil {
		f.deb.Close()
	}
	if f.eng.search == f {
		f.eng.search = nil
	}
}

// commitTitle runs when search input settles. It commits the latest text,
// not the value the timer captured, and does nothing once the field was
// closed or its input dropped by a reset.
func (e *Engine) commitTitle(f *SearchField) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || f.closed || !f.armed {
		return
	}
	f.armed = false

	changed, err := e.store.SetFacet(domain.FacetTitle, f.latest)
	if err != nil {
		e.log.Error("engine: committing search %q: %v", f.latest, err)
		return
	}
	if changed {
		e.dispatchLocked(metrics.TriggerSearch)
	}
}

// disarmSearchLocked drops search input that has not settled. Caller holds mu.
func (e *Engine) disarmSearchLocked() {
	if e.search == nil {
		return
	}
	e.search.armed = false
	e.search.deb.Cancel()
}
