package batch

import (
	"sync"
	"testing"
	"time"

	"sku-batch/internal/api"
)

type searchRecorder struct {
	mu      sync.Mutex
	queries []string
	hits    [][]api.CategoryHit
	errs    []error
}

func (r *searchRecorder) deliver(query string, hits []api.CategoryHit, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	r.hits = append(r.hits, hits)
	r.errs = append(r.errs, err)
}

func (r *searchRecorder) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestCategorySearchDeliversOnlyNewestQuery(t *testing.T) {
	f := newFakeCatalog()
	f.searchCategsFn = func(query string, limit int) ([]api.CategoryHit, error) {
		return []api.CategoryHit{{CategoryID: "1", Label: query}}, nil
	}
	rec := &searchRecorder{}
	s := NewCategorySearch(f, 10*time.Millisecond, 5, rec.deliver)
	defer s.Close()

	s.Update("sh")
	s.Update("sho")
	s.Update("shoe")

	waitFor(t, func() bool { return len(rec.delivered()) >= 1 })
	time.Sleep(30 * time.Millisecond)

	got := rec.delivered()
	if len(got) != 1 || got[0] != "shoe" {
		t.Fatalf("delivered = %v, want only [shoe]", got)
	}
	// superseded keystrokes never reached the remote
	if n := f.callCount("searchCategories"); n != 1 {
		t.Fatalf("remote calls = %d, want 1", n)
	}
}

func TestCategorySearchEmptyQueryImmediate(t *testing.T) {
	f := newFakeCatalog()
	rec := &searchRecorder{}
	s := NewCategorySearch(f, time.Hour, 5, rec.deliver)
	defer s.Close()

	s.Update("sho")
	s.Update("")

	got := rec.delivered()
	if len(got) != 1 || got[0] != "" {
		t.Fatalf("delivered = %v, want immediate empty delivery", got)
	}
	if f.callCount("searchCategories") != 0 {
		t.Fatal("clearing the query must cancel the pending lookup")
	}
}

func TestCategorySearchCloseDropsLateResolution(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := newFakeCatalog()
	f.searchCategsFn = func(query string, limit int) ([]api.CategoryHit, error) {
		close(started)
		<-release
		return []api.CategoryHit{{CategoryID: "1"}}, nil
	}
	rec := &searchRecorder{}
	s := NewCategorySearch(f, time.Millisecond, 5, rec.deliver)

	s.Update("shoe")
	<-started
	s.Close()
	close(release)

	time.Sleep(20 * time.Millisecond)
	if got := rec.delivered(); len(got) != 0 {
		t.Fatalf("delivered after close: %v", got)
	}
}

func TestCategorySearchPassesLimit(t *testing.T) {
	var gotLimit int
	done := make(chan struct{})
	f := newFakeCatalog()
	f.searchCategsFn = func(query string, limit int) ([]api.CategoryHit, error) {
		gotLimit = limit
		close(done)
		return nil, nil
	}
	rec := &searchRecorder{}
	s := NewCategorySearch(f, time.Millisecond, 7, rec.deliver)
	defer s.Close()

	s.Update("boots")
	<-done
	if gotLimit != 7 {
		t.Fatalf("limit = %d, want 7", gotLimit)
	}
}
