package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sku-batch/internal/api"
	"sku-batch/internal/infra/logx"
)

// SessionState is the bulk-edit lifecycle: Closed → Open → Saving → Closed.
type SessionState int

const (
	SessionClosed SessionState = iota
	SessionOpen
	SessionSaving
)

func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "open"
	case SessionSaving:
		return "saving"
	default:
		return "closed"
	}
}

// FieldKey identifies a detail field within its category; field names may
// repeat across categories.
type FieldKey struct {
	Category string
	Field    string
}

// Refresher is the slice-refresh dependency of the sessions.
type Refresher interface {
	RefreshOne(ctx context.Context, sku string, s Slice) error
}

// ---------- product-details bulk edit ----------

// DetailsEditAPI is the remote surface of the details session.
type DetailsEditAPI interface {
	Details(ctx context.Context, sku string) (api.ProductDetails, error)
	ImageOrders(ctx context.Context, sku string) (map[string]int, error)
	SaveDetails(ctx context.Context, sku string, updates map[string]map[string]string) error
}

// DetailsSession is the bulk edit over product-detail fields. Edits land in
// the buffer only; the cache baseline is replaced solely through the
// post-save refresh. Saves go out one call per SKU, sequentially, and a
// failing SKU never aborts the rest.
type DetailsSession struct {
	mu      sync.Mutex
	state   SessionState
	skus    []string
	buffer  map[string]map[FieldKey]string
	cache   *Cache
	api     DetailsEditAPI
	refresh Refresher
	workers int
}

func NewDetailsSession(cache *Cache, remote DetailsEditAPI, refresh Refresher, workers int) *DetailsSession {
	if workers <= 0 {
		workers = 4
	}
	return &DetailsSession{cache: cache, api: remote, refresh: refresh, workers: workers}
}

func (s *DetailsSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *DetailsSession) Skus() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.skus...)
}

// Open starts a session over the target SKUs and eagerly populates the
// slices the edit surface needs (details, image orders). A SKU whose
// prefetch fails keeps an empty baseline and stays in the session.
func (s *DetailsSession) Open(ctx context.Context, skus []string) error {
	s.mu.Lock()
	if s.state != SessionClosed {
		s.mu.Unlock()
		return fmt.Errorf("session is %s, not closed", s.state)
	}
	s.state = SessionOpen
	s.skus = append([]string(nil), skus...)
	s.buffer = make(map[string]map[FieldKey]string)
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, sku := range skus {
		g.Go(func() error {
			d, err := s.api.Details(ctx, sku)
			if err != nil {
				s.cache.MarkError(sku, SliceDetails, err)
			} else {
				s.cache.SetSlice(sku, SliceDetails, d)
			}
			return nil
		})
		g.Go(func() error {
			orders, err := s.api.ImageOrders(ctx, sku)
			if err != nil {
				s.cache.MarkError(sku, SliceImageOrders, err)
			} else {
				s.cache.SetSlice(sku, SliceImageOrders, orders)
			}
			return nil
		})
	}
	return g.Wait()
}

// Set records an override in the buffer. The cache is never touched.
func (s *DetailsSession) Set(sku string, key FieldKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionOpen {
		return
	}
	m, ok := s.buffer[sku]
	if !ok {
		m = make(map[FieldKey]string)
		s.buffer[sku] = m
	}
	m[key] = value
}

// Value reads through the buffer, falling back to the cached baseline.
func (s *DetailsSession) Value(sku string, key FieldKey) string {
	s.mu.Lock()
	if m, ok := s.buffer[sku]; ok {
		if v, ok := m[key]; ok {
			s.mu.Unlock()
			return v
		}
	}
	s.mu.Unlock()
	return baselineDetail(s.cache.Get(sku), key)
}

// Dirty reports whether any override differs from the baseline.
func (s *DetailsSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sku, m := range s.buffer {
		e := s.cache.Get(sku)
		for key, v := range m {
			if v != baselineDetail(e, key) {
				return true
			}
		}
	}
	return false
}

// Save diffs each SKU's buffer against its baseline and writes the changed
// fields, one call per SKU, sequentially. Successful SKUs get their details
// slice refreshed so the baseline is the authoritative server state. The
// session closes when the batch finishes; the report carries the tally.
func (s *DetailsSession) Save(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	if s.state != SessionOpen {
		s.mu.Unlock()
		return nil, fmt.Errorf("session is %s, not open", s.state)
	}
	s.state = SessionSaving
	skus := append([]string(nil), s.skus...)
	s.mu.Unlock()

	report := NewReport()
	for _, sku := range skus {
		start := time.Now()
		updates := s.diff(sku)
		if len(updates) == 0 {
			continue
		}
		if err := s.api.SaveDetails(ctx, sku, updates); err != nil {
			report.AddFailure(sku, "details.save", err, time.Since(start).Milliseconds())
			continue
		}
		if err := s.refresh.RefreshOne(ctx, sku, SliceDetails); err != nil {
			report.AddWarning(sku, "details.save", "saved but refresh failed: "+err.Error(), time.Since(start).Milliseconds())
			continue
		}
		report.AddSuccess(sku, "details.save", time.Since(start).Milliseconds())
	}

	s.mu.Lock()
	s.state = SessionClosed
	s.buffer = nil
	s.skus = nil
	s.mu.Unlock()

	succ, _, fail := report.Counts()
	logx.L().Info().Str("run", report.RunID).Int("succeeded", succ).Int("failed", fail).Msg("details bulk save finished")
	return report, nil
}

// Cancel discards the buffer unconditionally; no remote effect.
func (s *DetailsSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionClosed
	s.buffer = nil
	s.skus = nil
}

// diff builds the minimal update map for one SKU: only overrides that
// differ from the cached baseline, grouped by category.
func (s *DetailsSession) diff(sku string) map[string]map[string]string {
	s.mu.Lock()
	m := make(map[FieldKey]string, len(s.buffer[sku]))
	for k, v := range s.buffer[sku] {
		m[k] = v
	}
	s.mu.Unlock()

	if len(m) == 0 {
		return nil
	}
	e := s.cache.Get(sku)
	updates := make(map[string]map[string]string)
	for key, v := range m {
		if v == baselineDetail(e, key) {
			continue
		}
		cat, ok := updates[key.Category]
		if !ok {
			cat = make(map[string]string)
			updates[key.Category] = cat
		}
		cat[key.Field] = v
	}
	return updates
}

func baselineDetail(e Entry, key FieldKey) string {
	if e.Details == nil {
		return ""
	}
	for _, cat := range e.Details.Categories {
		if cat.Name != key.Category {
			continue
		}
		for _, f := range cat.Fields {
			if f.Name == key.Field {
				return f.Value
			}
		}
	}
	return ""
}

// ---------- listing bulk edit ----------

// ListingEditAPI is the remote surface of the listing session.
type ListingEditAPI interface {
	ListingDraft(ctx context.Context, sku string) (api.ListingDraft, error)
	FieldSchema(ctx context.Context, sku string) (api.FieldSchema, error)
	BulkSaveListings(ctx context.Context, listings map[string]api.ListingDraft) (api.BulkSaveResult, error)
}

// Listing field names addressable in the edit buffer.
const (
	ListingPrice         = "price"
	ListingShipping      = "shipping_costs_net"
	ListingQuantity      = "quantity"
	ListingCondition     = "condition_id"
	ListingConditionDesc = "condition_description"
	ListingEAN           = "ean"
	ListingModifiedSKU   = "modified_sku"
	ListingScheduleDate  = "schedule_date"
)

// ListingSession is the bulk edit over listing drafts. Unlike the details
// variant, Save issues one batched call carrying the full draft per changed
// SKU; per-SKU failures come back in the response's error map.
type ListingSession struct {
	mu      sync.Mutex
	state   SessionState
	skus    []string
	buffer  map[string]map[string]string
	cache   *Cache
	api     ListingEditAPI
	refresh Refresher
	workers int
}

func NewListingSession(cache *Cache, remote ListingEditAPI, refresh Refresher, workers int) *ListingSession {
	if workers <= 0 {
		workers = 4
	}
	return &ListingSession{cache: cache, api: remote, refresh: refresh, workers: workers}
}

func (s *ListingSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open starts a session and prefetches listing drafts and field schemas.
func (s *ListingSession) Open(ctx context.Context, skus []string) error {
	s.mu.Lock()
	if s.state != SessionClosed {
		s.mu.Unlock()
		return fmt.Errorf("session is %s, not closed", s.state)
	}
	s.state = SessionOpen
	s.skus = append([]string(nil), skus...)
	s.buffer = make(map[string]map[string]string)
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, sku := range skus {
		g.Go(func() error {
			d, err := s.api.ListingDraft(ctx, sku)
			if err != nil {
				s.cache.MarkError(sku, SliceListing, err)
			} else {
				s.cache.SetSlice(sku, SliceListing, d)
			}
			return nil
		})
		g.Go(func() error {
			fs, err := s.api.FieldSchema(ctx, sku)
			if err != nil {
				s.cache.MarkError(sku, SliceFieldSchema, err)
			} else {
				s.cache.SetSlice(sku, SliceFieldSchema, fs)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *ListingSession) Set(sku, field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionOpen {
		return
	}
	m, ok := s.buffer[sku]
	if !ok {
		m = make(map[string]string)
		s.buffer[sku] = m
	}
	m[field] = value
}

func (s *ListingSession) Value(sku, field string) string {
	s.mu.Lock()
	if m, ok := s.buffer[sku]; ok {
		if v, ok := m[field]; ok {
			s.mu.Unlock()
			return v
		}
	}
	s.mu.Unlock()
	e := s.cache.Get(sku)
	if e.Listing == nil {
		return ""
	}
	return listingField(*e.Listing, field)
}

// Save overlays the buffer on each changed SKU's baseline draft and issues
// a single bulk call. SKUs absent from the response's error map succeeded
// and get their listing slice refreshed.
func (s *ListingSession) Save(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	if s.state != SessionOpen {
		s.mu.Unlock()
		return nil, fmt.Errorf("session is %s, not open", s.state)
	}
	s.state = SessionSaving
	buffered := make(map[string]map[string]string, len(s.buffer))
	for sku, m := range s.buffer {
		c := make(map[string]string, len(m))
		for k, v := range m {
			c[k] = v
		}
		buffered[sku] = c
	}
	s.mu.Unlock()

	report := NewReport()
	payload := make(map[string]api.ListingDraft)
	for sku, m := range buffered {
		e := s.cache.Get(sku)
		var draft api.ListingDraft
		if e.Listing != nil {
			draft = *e.Listing
		}
		changed := false
		for field, v := range m {
			if listingField(draft, field) != v {
				applyListingField(&draft, field, v)
				changed = true
			}
		}
		if changed {
			payload[sku] = draft
		}
	}

	if len(payload) > 0 {
		start := time.Now()
		res, err := s.api.BulkSaveListings(ctx, payload)
		ms := time.Since(start).Milliseconds()
		if err != nil {
			for sku := range payload {
				report.AddFailure(sku, "listing.save", err, ms)
			}
		} else {
			for sku := range payload {
				if msg, bad := res.Errors[sku]; bad {
					report.AddFailure(sku, "listing.save", remoteFailure(msg), ms)
					continue
				}
				if err := s.refresh.RefreshOne(ctx, sku, SliceListing); err != nil {
					report.AddWarning(sku, "listing.save", "saved but refresh failed: "+err.Error(), ms)
					continue
				}
				report.AddSuccess(sku, "listing.save", ms)
			}
		}
	}

	s.mu.Lock()
	s.state = SessionClosed
	s.buffer = nil
	s.skus = nil
	s.mu.Unlock()
	return report, nil
}

func (s *ListingSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionClosed
	s.buffer = nil
	s.skus = nil
}

func remoteFailure(msg string) error {
	if msg == "" {
		msg = "remote reported failure"
	}
	return fmt.Errorf("%s", msg)
}

func listingField(d api.ListingDraft, field string) string {
	switch field {
	case ListingPrice:
		return d.Price
	case ListingShipping:
		return d.ShippingCostsNet
	case ListingQuantity:
		return d.Quantity
	case ListingCondition:
		return d.ConditionID
	case ListingConditionDesc:
		return d.ConditionDescription
	case ListingEAN:
		return d.EAN
	case ListingModifiedSKU:
		return d.ModifiedSKU
	case ListingScheduleDate:
		return d.ScheduleDate
	}
	return ""
}

func applyListingField(d *api.ListingDraft, field, v string) {
	switch field {
	case ListingPrice:
		d.Price = v
	case ListingShipping:
		d.ShippingCostsNet = v
	case ListingQuantity:
		d.Quantity = v
	case ListingCondition:
		d.ConditionID = v
	case ListingConditionDesc:
		d.ConditionDescription = v
	case ListingEAN:
		d.EAN = v
	case ListingModifiedSKU:
		d.ModifiedSKU = v
	case ListingScheduleDate:
		d.ScheduleDate = v
	}
}
