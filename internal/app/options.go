package service

import (
	"github.com/okian/dojo/internal/domain/keyframe"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithShardCount sets how many queues and workers sessions are spread over.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithQueueSize sets the capacity of every shard queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the frame deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxEventsPerSession bounds the emission log kept per session.
func WithMaxEventsPerSession(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithSessionConfig sets the engine configuration new sessions start with.
func WithSessionConfig(cfg session.Config) Option {
	return func(s *Service) {
		s.sessionCfg = cfg
	}
}

// WithSnapshotFunc sets the fallback snapshot source for keyframes.
func WithSnapshotFunc(fn keyframe.SnapshotFunc) Option {
	return func(s *Service) {
		s.snapshot = fn
	}
}

// WithIDFunc overrides session id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
