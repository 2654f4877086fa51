// Package dedupe tracks which frames have already been accepted so resent
// frames are processed at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultMaxSize bounds the number of remembered frame keys.
const DefaultMaxSize = 50000

// Deduper records seen frame keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a frame that could not be enqueued can be
	// resent.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key builds the dedupe key of a frame within a session.
func Key(sessionID, frameID string) string {
	return sessionID + "/" + frameID
}

// inMemoryDeduper remembers keys in a ring: once full, the oldest key is
// forgotten first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 when unbounded
	ring    []slot
	next    int
	maxSize int // 0 or negative = unbounded
	size    atomic.Int64
}

type slot struct {
	key  string
	live bool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]slot, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		d.size.Add(1)
		return false
	}

	if old := d.ring[d.next]; old.live {
		delete(d.seen, old.key)
		d.size.Add(-1)
	}
	d.ring[d.next] = slot{key: key, live: true}
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if idx >= 0 {
		d.ring[idx].live = false
	}
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
