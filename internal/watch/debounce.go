package watch

import (
	"sort"
	"sync"
	"time"
)

// Batch is one coalesced, deduplicated set of filesystem changes. Paths are
// sorted and appear in at most one of the three lists.
type Batch struct {
	Changed []string
	Created []string
	Deleted []string
}

// Empty reports whether the batch carries no paths at all.
func (b Batch) Empty() bool {
	return len(b.Changed) == 0 && len(b.Created) == 0 && len(b.Deleted) == 0
}

// pathState is the coalesced fate of one path within the current window.
type pathState int

const (
	stateChanged pathState = iota
	stateCreated
	stateDeleted
)

// Debouncer coalesces change notifications. Every incoming event resets the
// quiet-period timer; once the period elapses with no new events, the
// accumulated batch is delivered to the emit callback on the timer
// goroutine. A path seen multiple times collapses to a single entry:
// create followed by delete cancels out, delete followed by create becomes
// a change, and a change after a create stays a create.
type Debouncer struct {
	interval time.Duration
	emit     func(Batch)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]pathState
	stopped bool
}

// NewDebouncer returns a debouncer delivering batches to emit after each
// quiet period of the given interval.
func NewDebouncer(interval time.Duration, emit func(Batch)) *Debouncer {
	return &Debouncer{
		interval: interval,
		emit:     emit,
		pending:  make(map[string]pathState),
	}
}

// Changed records a modification of path.
func (d *Debouncer) Changed(path string) { d.record(path, stateChanged) }

// Created records the creation of path.
func (d *Debouncer) Created(path string) { d.record(path, stateCreated) }

// Deleted records the deletion of path.
func (d *Debouncer) Deleted(path string) { d.record(path, stateDeleted) }

func (d *Debouncer) record(path string, next pathState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	prev, seen := d.pending[path]
	if !seen {
		d.pending[path] = next
	} else {
		switch {
		case prev == stateCreated && next == stateDeleted:
			// Never existed as far as consumers know.
			delete(d.pending, path)
		case prev == stateCreated:
			// A change right after a create is still just a create.
		case prev == stateDeleted && next == stateCreated:
			// Delete-then-recreate is how many editors save.
			d.pending[path] = stateChanged
		default:
			d.pending[path] = next
		}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.drainLocked()
	d.mu.Unlock()

	if !batch.Empty() {
		d.emit(batch)
	}
}

// Flush delivers any pending batch immediately, without waiting out the
// quiet period.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	batch := d.drainLocked()
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && !batch.Empty() {
		d.emit(batch)
	}
}

// Stop discards pending events and prevents any further delivery. Safe to
// call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]pathState)
}

// Pending returns the number of paths waiting in the current window.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) drainLocked() Batch {
	var batch Batch
	for path, state := range d.pending {
		switch state {
		case stateCreated:
			batch.Created = append(batch.Created, path)
		case stateDeleted:
			batch.Deleted = append(batch.Deleted, path)
		default:
			batch.Changed = append(batch.Changed, path)
		}
	}
	d.pending = make(map[string]pathState)

	sort.Strings(batch.Changed)
	sort.Strings(batch.Created)
	sort.Strings(batch.Deleted)
	return batch
}
