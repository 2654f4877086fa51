package repository

import (
	"context"
	"sync"

	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/pkg/metrics"
)

// sessionLog is a ring of the latest records of one session.
type sessionLog struct {
	mu      sync.Mutex
	records []Record
	head    int // index of the oldest record once the ring is full
	lastSeq uint64
	report  *session.Report
	subs    map[int]chan Record
	nextSub int
}

func (l *sessionLog) ordered() []Record {
	out := make([]Record, 0, len(l.records))
	out = append(out, l.records[l.head:]...)
	return append(out, l.records[:l.head]...)
}

// MemStore is an in-memory Store. Sessions are independent; one slow
// session log never blocks another.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog

	maxRecords int
	subBuffer  int

	clients int // live subscribers across sessions, guarded by mu
}

// NewMemStore creates an empty store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		sessions:   make(map[string]*sessionLog),
		maxRecords: DefaultMaxRecords,
		subBuffer:  DefaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) get(id string) (*sessionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.sessions[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, ErrNotFound
	}
	return l, nil
}

// Create registers a session.
func (s *MemStore) Create(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return ErrExists
	}
	s.sessions[id] = &sessionLog{subs: make(map[int]chan Record)}
	return nil
}

// Delete forgets a session and closes its subscribers.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	l, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	l.mu.Lock()
	n := len(l.subs)
	for k, ch := range l.subs {
		close(ch)
		delete(l.subs, k)
	}
	l.mu.Unlock()
	s.addClients(-n)
	return nil
}

// Append sequences emissions onto the session log.
func (s *MemStore) Append(_ context.Context, id string, emissions ...session.Emission) ([]Record, error) {
	l, err := s.get(id)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0, len(emissions))
	for _, e := range emissions {
		l.lastSeq++
		r := Record{Seq: l.lastSeq, Emission: e}
		if len(l.records) < s.maxRecords {
			l.records = append(l.records, r)
		} else {
			l.records[l.head] = r
			l.head = (l.head + 1) % s.maxRecords
			metrics.RecordEmissionDropped()
		}
		out = append(out, r)

		for _, ch := range l.subs {
			select {
			case ch <- r:
				metrics.RecordStreamSent()
			default:
				metrics.RecordStreamDropped()
			}
		}
	}
	return out, nil
}

// Since returns retained records with Seq > seq, oldest first.
func (s *MemStore) Since(_ context.Context, id string, seq uint64, limit int) ([]Record, error) {
	l, err := s.get(id)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0)
	for _, r := range l.ordered() {
		if r.Seq <= seq {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

// SetReport stores the final report of a session, replacing any earlier one.
func (s *MemStore) SetReport(_ context.Context, id string, r session.Report) error {
	l, err := s.get(id)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.report = &r
	l.mu.Unlock()
	return nil
}

// Report returns the stored report.
func (s *MemStore) Report(_ context.Context, id string) (session.Report, error) {
	l, err := s.get(id)
	if err != nil {
		return session.Report{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.report == nil {
		return session.Report{}, ErrNoReport
	}
	return *l.report, nil
}

// Subscribe streams records appended after the call.
func (s *MemStore) Subscribe(_ context.Context, id string) (<-chan Record, func(), error) {
	l, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan Record, s.subBuffer)

	l.mu.Lock()
	key := l.nextSub
	l.nextSub++
	l.subs[key] = ch
	l.mu.Unlock()
	s.addClients(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			_, live := l.subs[key]
			if live {
				delete(l.subs, key)
				close(ch)
			}
			l.mu.Unlock()
			if live {
				s.addClients(-1)
			}
		})
	}
	return ch, cancel, nil
}

// Count returns the number of sessions tracked.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemStore) addClients(delta int) {
	s.mu.Lock()
	s.clients += delta
	n := s.clients
	s.mu.Unlock()
	metrics.UpdateStreamClients(n)
}
