// Package queue carries session messages from the API to the shard workers.
package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithShard names the shard the queue feeds; it labels the queue metrics.
func WithShard(shard string) Option {
	return func(q *InMemoryQueue) {
		if shard != "" {
			q.shard = shard
		}
	}
}
