// Package service runs training sessions behind the HTTP API. Sessions are
// spread over shards; each shard has one queue and one worker, so a session
// only ever has one writer and sees its frames in arrival order.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/okian/dojo/internal/adapters/mq/queue"
	"github.com/okian/dojo/internal/adapters/mq/worker"
	"github.com/okian/dojo/internal/adapters/repository"
	"github.com/okian/dojo/internal/domain/dedupe"
	"github.com/okian/dojo/internal/domain/keyframe"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/domain/types"
	"github.com/okian/dojo/pkg/logger"
	"github.com/okian/dojo/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize = 4096
	defaultMaxEvents = repository.DefaultMaxRecords
)

// entry is a live session plus the last stats its worker published.
type entry struct {
	sess  *session.Session
	shard int
	// token is unique per CreateSession so dedupe keys and queued messages
	// of a deleted session never reach a new session with the same id.
	token string
	stats atomic.Pointer[session.Stats]
}

// Stats summarises the service for monitoring.
type Stats struct {
	Started     bool  `json:"started"`
	Sessions    int   `json:"sessions"`
	Shards      int   `json:"shards"`
	QueueLength []int `json:"queue_length"`
	Processed   int64 `json:"processed"`
	DedupeSize  int64 `json:"dedupe_size"`
}

// Service implements the API dependencies for the recognition engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queues  []queue.Queue
	pool    *worker.Pool

	// Configuration
	shardCount int
	queueSize  int
	dedupeSize int
	maxEvents  int
	sessionCfg session.Config
	snapshot   keyframe.SnapshotFunc
	newID      func() string

	// State
	started  bool
	sessions map[string]*entry

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount: runtime.NumCPU(),
		queueSize:  defaultQueueSize,
		dedupeSize: dedupe.DefaultMaxSize,
		maxEvents:  defaultMaxEvents,
		sessionCfg: session.DefaultConfig(),
		newID:      uuid.NewString,
		sessions:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.sessionCfg.Validate(); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewMemStore(repository.WithMaxRecords(s.maxEvents))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queues = make([]queue.Queue, s.shardCount)
	for i := range s.queues {
		s.queues[i] = queue.NewInMemoryQueue(
			queue.WithCapacity(s.queueSize),
			queue.WithShard(strconv.Itoa(i)),
		)
	}
	s.pool = worker.NewPool(s.queues, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "recognition service started",
		logger.Int("shards", s.shardCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the shard queues and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping recognition service...")
	err := pool.Shutdown(ctx)
	s.logger.Info(ctx, "recognition service stopped", logger.Int("sessions", s.store.Count(ctx)))
	return err
}

func (s *Service) shardOf(id string) int {
	return int(xxhash.Sum64String(id) % uint64(s.shardCount))
}

// open resolves a session for an API call.
func (s *Service) open(id string) (*entry, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return s.lookup(id)
}

// lookup resolves a session regardless of lifecycle so queued messages still
// drain while the service stops.
func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// CreateSession opens a session and returns its id.
func (s *Service) CreateSession(ctx context.Context, req types.CreateSessionRequest) (string, error) {
	id := req.ID
	if id == "" {
		id = s.newID()
	}
	var opts []session.Option
	opts = append(opts, session.WithLogger(s.loggerOrNop().Named("session")))
	if s.snapshot != nil {
		opts = append(opts, session.WithSnapshotFunc(s.snapshot))
	}
	sess := session.New(id, s.sessionCfg, opts...)
	if req.Defender != "" {
		if err := sess.SetDefender(req.Defender); err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}
	sess.SetAttacker(req.Attacker)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return "", ErrNotStarted
	}
	if _, ok := s.sessions[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	if err := s.store.Create(ctx, id); err != nil {
		return "", fmt.Errorf("create session %s: %w", id, err)
	}
	e := &entry{sess: sess, shard: s.shardOf(id), token: uuid.NewString()}
	st := sess.Stats()
	e.stats.Store(&st)
	s.sessions[id] = e
	metrics.UpdateSessionsActive(len(s.sessions))

	s.logger.Info(ctx, "session created",
		logger.String("session_id", id),
		logger.Int("shard", e.shard),
		logger.String("defender", req.Defender),
	)
	return id, nil
}

// DeleteSession forgets a session and its output. Messages still queued for
// it are dropped by the worker.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	metrics.UpdateSessionsActive(len(s.sessions))
	s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// SubmitFrames queues frames for a session in the given order. Frames whose
// id was already accepted are skipped. On backpressure the frames accepted
// so far stay queued and ErrBackpressure is returned with the counts.
func (s *Service) SubmitFrames(ctx context.Context, id string, frames []model.Frame) (types.FramesResponse, error) {
	var resp types.FramesResponse
	e, err := s.open(id)
	if err != nil {
		return resp, err
	}
	q := s.queues[e.shard]

	for _, f := range frames {
		key := ""
		if f.ID != "" {
			key = dedupe.Key(e.token, f.ID)
			if s.deduper.SeenAndRecord(ctx, key) {
				metrics.RecordFrameDuplicate()
				resp.Duplicates++
				continue
			}
		}
		if !q.Enqueue(ctx, queue.Message{Op: queue.OpFrame, SessionID: id, Token: e.token, Frame: f}) {
			if key != "" {
				s.deduper.Unrecord(ctx, key)
			}
			return resp, s.enqueueError(q)
		}
		resp.Accepted++
	}
	return resp, nil
}

// call enqueues a control message and waits for the worker to apply it.
func (s *Service) call(ctx context.Context, id string, m queue.Message) error {
	e, err := s.open(id)
	if err != nil {
		return err
	}
	m.SessionID = id
	m.Token = e.token
	m.Reply = make(chan error, 1)
	if q := s.queues[e.shard]; !q.Enqueue(ctx, m) {
		return s.enqueueError(q)
	}
	select {
	case err := <-m.Reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueueError tells a full queue from one closed by Stop.
func (s *Service) enqueueError(q queue.Queue) error {
	if q.IsClosed() {
		return ErrNotStarted
	}
	return ErrBackpressure
}

// SetRoles designates the defender and, when req.Attacker is set, pins or
// clears the attacker track. Changing the defender resets the session.
func (s *Service) SetRoles(ctx context.Context, id string, req types.RoleRequest) error {
	if req.TrackID == "" {
		return fmt.Errorf("%w: %w", ErrBadRequest, session.ErrEmptyTrackID)
	}
	if err := s.call(ctx, id, queue.Message{Op: queue.OpSetDefender, TrackID: req.TrackID}); err != nil {
		return err
	}
	if req.Attacker == nil {
		return nil
	}
	return s.call(ctx, id, queue.Message{Op: queue.OpSetAttacker, TrackID: *req.Attacker})
}

// Reset clears a session's history, counters and cooldowns.
func (s *Service) Reset(ctx context.Context, id string) error {
	return s.call(ctx, id, queue.Message{Op: queue.OpReset})
}

// End closes the current recording of a session and returns its report.
// The session stays open and starts over.
func (s *Service) End(ctx context.Context, id string) (session.Report, error) {
	if err := s.call(ctx, id, queue.Message{Op: queue.OpEnd}); err != nil {
		return session.Report{}, err
	}
	return s.Report(ctx, id)
}

// Report returns the report of the last End of a session.
func (s *Service) Report(ctx context.Context, id string) (session.Report, error) {
	if _, err := s.open(id); err != nil {
		return session.Report{}, err
	}
	r, err := s.store.Report(ctx, id)
	if errors.Is(err, repository.ErrNoReport) {
		return r, ErrNoReport
	}
	return r, err
}

// Events returns emissions with sequence numbers above since.
func (s *Service) Events(ctx context.Context, id string, since uint64, limit int) ([]repository.Record, error) {
	if _, err := s.open(id); err != nil {
		return nil, err
	}
	return s.store.Since(ctx, id, since, limit)
}

// Subscribe streams emissions of a session as they are produced.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan repository.Record, func(), error) {
	if _, err := s.open(id); err != nil {
		return nil, nil, err
	}
	return s.store.Subscribe(ctx, id)
}

// SessionStats returns the counters a session's worker last published.
func (s *Service) SessionStats(_ context.Context, id string) (session.Stats, error) {
	e, err := s.open(id)
	if err != nil {
		return session.Stats{}, err
	}
	return *e.stats.Load(), nil
}

// Handle applies one queued message to its session. Only the worker of the
// session's shard calls it. Messages left over from a deleted session are
// dropped even when a new session took its id.
func (s *Service) Handle(ctx context.Context, m queue.Message) error {
	e, err := s.lookup(m.SessionID)
	if err != nil {
		return err
	}
	if m.Token != e.token {
		return fmt.Errorf("%w: %s (stale message)", ErrSessionNotFound, m.SessionID)
	}
	defer func() {
		st := e.sess.Stats()
		e.stats.Store(&st)
	}()

	switch m.Op {
	case queue.OpFrame:
		return s.processFrame(ctx, e, m.Frame)
	case queue.OpSetDefender:
		return e.sess.SetDefender(m.TrackID)
	case queue.OpSetAttacker:
		e.sess.SetAttacker(m.TrackID)
	case queue.OpReset:
		e.sess.Reset()
	case queue.OpEnd:
		start := time.Now()
		r := e.sess.End()
		metrics.RecordClassificationLatency(float64(time.Since(start).Microseconds()) / 1000)
		metrics.RecordSessionEnded()
		return s.store.SetReport(ctx, m.SessionID, r)
	default:
		return fmt.Errorf("%w: unknown op %d", ErrBadRequest, m.Op)
	}
	return nil
}

func (s *Service) processFrame(ctx context.Context, e *entry, f model.Frame) error {
	start := time.Now()
	emissions := slices.Collect(e.sess.Process(f))
	metrics.RecordFrameIngested()
	metrics.RecordFrameLatency(float64(time.Since(start).Microseconds()) / 1000)

	for _, em := range emissions {
		switch em.Kind {
		case session.KindAction:
			metrics.RecordAction(string(em.Action.Type))
		case session.KindKeyFrame:
			metrics.RecordKeyFrame(string(em.KeyFrame.Type))
		case session.KindDiagnostic:
			metrics.RecordPoseRejected(em.Diagnostic.Code)
		}
	}
	if len(emissions) == 0 {
		return nil
	}
	if _, err := s.store.Append(ctx, e.sess.ID(), emissions...); err != nil {
		return fmt.Errorf("append emissions: %w", err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	st := Stats{Started: s.started, Shards: s.shardCount}
	if !s.started {
		return st
	}
	st.Sessions = len(s.sessions)
	st.QueueLength = make([]int, len(s.queues))
	for i, q := range s.queues {
		st.QueueLength[i] = q.Len(ctx)
	}
	st.Processed = s.pool.Processed()
	st.DedupeSize = s.deduper.Size()
	return st
}

func (s *Service) loggerOrNop() logger.Logger {
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}
