// Package repository keeps the per-session emission log and final report.
package repository

// Default store configuration constants.
const (
	DefaultMaxRecords       = 1000
	DefaultSubscriberBuffer = 64
)

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxRecords bounds how many emissions each session log retains.
func WithMaxRecords(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithSubscriberBuffer sets the channel depth of live subscribers. A
// subscriber that falls further behind misses records.
func WithSubscriberBuffer(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}
