package cache

import (
	"errors"
	"sync"
)

// State is the retrieval state of one cached resource.
type State int

const (
	NotRequested State = iota
	InFlight
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "not_requested"
	}
}

// ErrNotInFlight is returned by Complete and Fail when the key has no attempt running.
var ErrNotInFlight = errors.New("cache: no retrieval in flight for key")

// Entry is a read-only copy of a cache record.
type Entry struct {
	State     State
	Payload   string
	LastError error
}

// Attempt is one retrieval of a key. Its result is fixed once Done is closed.
type Attempt struct {
	done    chan struct{}
	payload string
	err     error
}

func newAttempt() *Attempt {
	return &Attempt{done: make(chan struct{})}
}

// Done is closed when the attempt settles.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Result returns the settled payload or error. Only valid after Done is closed.
func (a *Attempt) Result() (string, error) {
	return a.payload, a.err
}

type record struct {
	Entry
	attempt *Attempt
}

// Observer is told about every state transition, outside the cache lock.
type Observer func(key string, state State)

// ResourceCache maps a resource key to its retrieved payload. Entries live for the
// whole session; a Loaded payload is never replaced.
type ResourceCache struct {
	mu       sync.Mutex
	entries  map[string]*record
	observer Observer
}

func NewResourceCache() *ResourceCache {
	return &ResourceCache{entries: make(map[string]*record)}
}

// SetObserver registers the transition callback. Call before the cache is shared.
func (c *ResourceCache) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Get returns a copy of the entry for key.
func (c *ResourceCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key]
	if !ok {
		return Entry{State: NotRequested}, false
	}
	return rec.Entry, true
}

// BeginFetch marks an absent or Failed key InFlight and reports proceed=true: the
// caller owns the retrieval and must end it with Complete or Fail. For InFlight or
// Loaded keys it reports false. The returned attempt is the one current at call
// time; for Loaded keys it is already settled.
func (c *ResourceCache) BeginFetch(key string) (proceed bool, attempt *Attempt) {
	c.mu.Lock()
	rec, ok := c.entries[key]
	if ok && (rec.State == InFlight || rec.State == Loaded) {
		c.mu.Unlock()
		return false, rec.attempt
	}

	if !ok {
		rec = &record{}
		c.entries[key] = rec
	}
	rec.State = InFlight
	rec.LastError = nil
	rec.attempt = newAttempt()
	attempt = rec.attempt
	observer := c.observer
	c.mu.Unlock()

	if observer != nil {
		observer(key, InFlight)
	}
	return true, attempt
}

// Complete stores payload and moves key from InFlight to Loaded.
func (c *ResourceCache) Complete(key, payload string) error {
	return c.settle(key, Loaded, payload, nil)
}

// Fail records err and moves key from InFlight to Failed. A later BeginFetch retries.
func (c *ResourceCache) Fail(key string, err error) error {
	return c.settle(key, Failed, "", err)
}

func (c *ResourceCache) settle(key string, state State, payload string, err error) error {
	c.mu.Lock()
	rec, ok := c.entries[key]
	if !ok || rec.State != InFlight {
		c.mu.Unlock()
		return ErrNotInFlight
	}
	rec.State = state
	rec.Payload = payload
	rec.LastError = err
	rec.attempt.payload = payload
	rec.attempt.err = err
	close(rec.attempt.done)
	observer := c.observer
	c.mu.Unlock()

	if observer != nil {
		observer(key, state)
	}
	return nil
}

// Snapshot returns the state of every known key.
func (c *ResourceCache) Snapshot() map[string]State {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]State, len(c.entries))
	for key, rec := range c.entries {
		out[key] = rec.State
	}
	return out
}

// Len returns the number of known keys.
func (c *ResourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
