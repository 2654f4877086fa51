// Package history keeps a bounded, time-ordered record of one role's poses.
package history

import (
	"fmt"

	"github.com/okian/dojo/internal/domain/model"
)

// DefaultCapacity bounds the detection history.
const DefaultCapacity = 100

// Option applies a configuration option to the Buffer.
type Option func(*Buffer)

// WithCapacity sets the maximum number of retained poses.
func WithCapacity(capacity int) Option {
	return func(b *Buffer) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

// Buffer is an append-only ring of poses. The oldest pose is evicted when a
// push would exceed capacity. Not safe for concurrent writers; a session
// owns its buffers.
type Buffer struct {
	capacity int
	items    []model.Pose
	head     int // index of the oldest pose
	size     int
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(b)
	}
	b.items = make([]model.Pose, b.capacity)
	return b
}

// Push appends a pose. Malformed poses and poses older than the newest stored
// one are rejected and leave the buffer untouched.
func (b *Buffer) Push(p model.Pose) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if last, ok := b.Latest(); ok && p.Timestamp < last.Timestamp {
		return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, p.Timestamp, last.Timestamp)
	}
	if b.size < b.capacity {
		b.items[(b.head+b.size)%b.capacity] = p
		b.size++
		return nil
	}
	b.items[b.head] = p
	b.head = (b.head + 1) % b.capacity
	return nil
}

// Len returns the number of stored poses.
func (b *Buffer) Len() int { return b.size }

// Cap returns the configured capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Latest returns the newest pose.
func (b *Buffer) Latest() (model.Pose, bool) {
	if b.size == 0 {
		return model.Pose{}, false
	}
	return b.items[(b.head+b.size-1)%b.capacity], true
}

// Window returns a copy of the last n poses, oldest first. Fewer are
// returned when the buffer holds less than n.
func (b *Buffer) Window(n int) []model.Pose {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]model.Pose, n)
	start := b.head + b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.items[(start+i)%b.capacity]
	}
	return out
}

// All returns a copy of every stored pose, oldest first.
func (b *Buffer) All() []model.Pose {
	return b.Window(b.size)
}

// Clear drops every stored pose.
func (b *Buffer) Clear() {
	clear(b.items)
	b.head = 0
	b.size = 0
}
