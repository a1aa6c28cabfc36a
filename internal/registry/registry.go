// Package registry implements the stream multiplexer: a concurrent map
// from stream id to a cell holding the most recent ProcedureResult plus
// a condition-variable notifier. One writer (the transport's
// background STREAM reader) inserts; any number of readers wait or
// read without blocking the writer.
package registry

import (
	"fmt"
	"sync"

	"github.com/kladd/krpc-client/internal/schema"
)

// entry is one stream's cell: a lock/condvar pair guarding the latest
// pushed result. Insert takes the lock only long enough to store the
// value and broadcast; Wait releases the outer registry lock before
// sleeping on cond, so a writer's Insert is never blocked by a sleeping
// reader.
type entry struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value *schema.ProcedureResult
	gen   uint64 // bumped on every Insert; lets Wait detect spurious wakeups
}

func newEntry() *entry {
	e := &entry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Registry is safe for concurrent use by one writer and many readers.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]*entry
	broken  bool // set by BreakAll; Wait consults it under mu so no entry created after can block forever
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[uint64]*entry)}
}

func (r *Registry) entryFor(id uint64) *entry {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e
	}
	e = newEntry()
	r.entries[id] = e
	return e
}

// Insert stores result as the latest value for id, creating the entry
// if it does not yet exist, and wakes every waiter. Called only by the
// transport's background STREAM reader.
func (r *Registry) Insert(id uint64, result *schema.ProcedureResult) {
	e := r.entryFor(id)
	e.mu.Lock()
	e.value = result
	e.gen++
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Wait blocks until the next Insert for id completes, or returns
// immediately if BreakAll has already run. The broken check and
// get-or-create of id's entry happen under the same lock BreakAll
// takes to flip broken and snapshot entries, so there is no window in
// which an entry created here is invisible to a concurrent BreakAll.
// The entry's lock is taken before the outer lock is released, so the
// generation Wait starts from is read before any later BreakAll or
// Insert can bump it.
func (r *Registry) Wait(id uint64) {
	r.mu.Lock()
	if r.broken {
		r.mu.Unlock()
		return
	}
	e, ok := r.entries[id]
	if !ok {
		e = newEntry()
		r.entries[id] = e
	}
	e.mu.Lock()
	r.mu.Unlock()

	start := e.gen
	for e.gen == start {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

// Get returns the current cell value for id. It fails with an error if
// no value has ever been stored — a stream handle's construction
// awaits the first push before returning, so a Get following
// construction never observes this case.
func (r *Registry) Get(id uint64) (*schema.ProcedureResult, error) {
	e := r.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value == nil {
		return nil, fmt.Errorf("registry: stream %d has no value yet", id)
	}
	return e.value, nil
}

// BreakAll marks the registry broken and wakes every current waiter on
// every entry without recording a new value, for use when the
// underlying connection has terminated and no further Insert will
// ever happen. Once broken, Wait returns immediately instead of
// registering a new entry to sleep on.
func (r *Registry) BreakAll() {
	r.mu.Lock()
	r.broken = true
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.gen++
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// Remove drops id's entry. Subsequent waiters that already hold a
// reference to the entry are woken (the generation is bumped without
// storing a value, so Wait returns with no new value) rather than left
// to sleep forever.
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.gen++
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Has reports whether id currently has an entry, for tests.
func (r *Registry) Has(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}
