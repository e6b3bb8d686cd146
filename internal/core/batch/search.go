package batch

import (
	"context"
	"sync"
	"time"

	"sku-batch/internal/api"
)

// CategoryAPI is the remote category lookup.
type CategoryAPI interface {
	SearchCategories(ctx context.Context, query string, limit int) ([]api.CategoryHit, error)
}

// CategorySearch debounces keystrokes into category lookups. Only the
// newest query's result is delivered; responses for superseded queries are
// dropped on resolution.
type CategorySearch struct {
	api     CategoryAPI
	delay   time.Duration
	limit   int
	timeout time.Duration
	deliver func(query string, hits []api.CategoryHit, err error)

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	closed bool
}

func NewCategorySearch(remote CategoryAPI, delay time.Duration, limit int, deliver func(string, []api.CategoryHit, error)) *CategorySearch {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	if limit <= 0 {
		limit = 10
	}
	return &CategorySearch{api: remote, delay: delay, limit: limit, timeout: 10 * time.Second, deliver: deliver}
}

// Update registers the latest keystroke. An empty query delivers an empty
// result immediately and cancels any pending lookup.
func (s *CategorySearch) Update(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if query == "" {
		s.mu.Unlock()
		s.deliver("", nil, nil)
		return
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(seq, query) })
	s.mu.Unlock()
}

func (s *CategorySearch) fire(seq uint64, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	hits, err := s.api.SearchCategories(ctx, query, s.limit)

	s.mu.Lock()
	stale := s.closed || seq != s.seq
	s.mu.Unlock()
	if stale {
		return
	}
	s.deliver(query, hits, err)
}

// Close stops pending lookups; late resolutions are dropped.
func (s *CategorySearch) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
