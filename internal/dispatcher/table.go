package dispatcher

import (
	"net/http"
	"sync/atomic"
)

// Table serves through whichever Dispatcher was installed last. Swapping is
// atomic, so in-flight requests finish on the dispatcher they started with.
type Table struct {
	current atomic.Pointer[Dispatcher]
}

// NewTable returns a Table serving d. d may be nil.
func NewTable(d *Dispatcher) *Table {
	t := &Table{}
	if d != nil {
		t.current.Store(d)
	}
	return t
}

// Swap installs d and returns the dispatcher it replaced.
func (t *Table) Swap(d *Dispatcher) *Dispatcher {
	return t.current.Swap(d)
}

// Current returns the installed dispatcher, or nil.
func (t *Table) Current() *Dispatcher {
	return t.current.Load()
}

func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d := t.current.Load()
	if d == nil {
		NotFound(w, r)
		return
	}
	d.ServeHTTP(w, r)
}
