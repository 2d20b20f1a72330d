package pipeline

import (
	"context"
	"sync"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/lru"
	"github.com/google/uuid"
)

// Sessions arbitrates dashboard submissions so that, per session key, only
// the most recently started submission may publish its result. Starting a
// new submission cancels the previous one's context.
type Sessions struct {
	mu       sync.Mutex
	next     uint64
	inflight map[string]*Ticket
	latest   *lru.Cache[string, domain.ForecastResult]
}

// Ticket identifies one submission within a session.
type Ticket struct {
	ID     string
	key    string
	gen    uint64
	cancel context.CancelFunc
}

// NewSessions tracks the latest result of up to maxSessions session keys.
func NewSessions(maxSessions int) *Sessions {
	return &Sessions{
		inflight: make(map[string]*Ticket),
		latest:   lru.New[string, domain.ForecastResult](maxSessions),
	}
}

// Begin starts a submission for key and returns the context it must run
// under. Any in-flight submission for the same key is cancelled. An empty key
// opts out of arbitration.
func (s *Sessions) Begin(ctx context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	t := &Ticket{ID: uuid.NewString(), key: key, gen: s.next, cancel: cancel}
	if key == "" {
		return ctx, t
	}
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.inflight[key] = t
	return ctx, t
}

// Complete records result as the session's latest if t is still current.
// A stale ticket gets domain.ErrSuperseded and its result is dropped.
func (s *Sessions) Complete(t *Ticket, result domain.ForecastResult) error {
	defer t.cancel()
	if t.key == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.releaseLocked(t) {
		return domain.ErrSuperseded
	}
	s.latest.Put(t.key, result)
	return nil
}

// Release ends a failed submission and reports whether it was still current.
func (s *Sessions) Release(t *Ticket) bool {
	defer t.cancel()
	if t.key == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(t)
}

func (s *Sessions) releaseLocked(t *Ticket) bool {
	cur, ok := s.inflight[t.key]
	if !ok || cur.gen != t.gen {
		return false
	}
	delete(s.inflight, t.key)
	return true
}

// Latest returns the last accepted result for key.
func (s *Sessions) Latest(key string) (domain.ForecastResult, bool) {
	return s.latest.Get(key)
}

// InFlight reports whether key has a running submission.
func (s *Sessions) InFlight(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[key]
	return ok
}
