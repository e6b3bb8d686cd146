package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"sku-batch/internal/api"
	"sku-batch/internal/infra/logx"
)

// ErrClosed is returned when a refresh resolves after the workspace was
// abandoned; its result has not been applied to the cache.
var ErrClosed = errors.New("workspace closed")

// CatalogAPI is the read surface the coordinator needs.
type CatalogAPI interface {
	HasListings(ctx context.Context, skus []string) (map[string]bool, error)
	Images(ctx context.Context, sku string) (api.ImageList, error)
	JSONStatus(ctx context.Context, sku string) (bool, error)
	Details(ctx context.Context, sku string) (api.ProductDetails, error)
	ListingDraft(ctx context.Context, sku string) (api.ListingDraft, error)
	Seo(ctx context.Context, sku string) (api.SeoFields, error)
	FieldSchema(ctx context.Context, sku string) (api.FieldSchema, error)
	FieldValues(ctx context.Context, sku string) (map[string]api.FieldValue, error)
	ImageOrders(ctx context.Context, sku string) (map[string]int, error)
	Validate(ctx context.Context, sku string) (api.ValidationSummary, error)
}

// Coordinator owns the mutate-remote → refetch → replace-slice cycle and
// the initial batched load. Every mutating action goes through RefreshOne
// afterwards so the cache reflects the authoritative remote state instead
// of an optimistic local patch.
type Coordinator struct {
	api     CatalogAPI
	cache   *Cache
	workers int

	closed atomic.Bool

	mu       sync.Mutex
	inflight map[string]*sync.Mutex // key: sku + "/" + slice
}

func NewCoordinator(catalog CatalogAPI, cache *Cache, workers int) *Coordinator {
	if workers <= 0 {
		workers = 8
	}
	return &Coordinator{
		api:      catalog,
		cache:    cache,
		workers:  workers,
		inflight: make(map[string]*sync.Mutex),
	}
}

// Close stops the coordinator from applying any further fetch results.
// In-flight requests finish but their results are dropped.
func (co *Coordinator) Close() { co.closed.Store(true) }

func (co *Coordinator) Closed() bool { return co.closed.Load() }

// LoadAll runs the initial fan-out: one batched listing-existence call for
// the whole set, plus json-status and image-list per SKU, bounded by the
// worker count. Failures are isolated per (sku, slice) as error tags;
// LoadAll itself only fails on context cancellation.
func (co *Coordinator) LoadAll(ctx context.Context, skus []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(co.workers)

	g.Go(func() error {
		flags, err := co.api.HasListings(gctx, skus)
		if err != nil {
			for _, sku := range skus {
				co.markError(sku, SliceHasListing, err)
			}
			return nil
		}
		for _, sku := range skus {
			co.setSlice(sku, SliceHasListing, flags[sku])
		}
		return nil
	})

	for _, sku := range skus {
		g.Go(func() error {
			list, err := co.api.Images(gctx, sku)
			if err != nil {
				co.markError(sku, SliceImages, err)
				return nil
			}
			co.setSlice(sku, SliceImages, list)
			return nil
		})
		g.Go(func() error {
			exists, err := co.api.JSONStatus(gctx, sku)
			if err != nil {
				co.markError(sku, SliceJSONExists, err)
				return nil
			}
			co.setSlice(sku, SliceJSONExists, exists)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// The derived context is canceled once Wait returns, so consult the
	// caller's context for the cancellation check.
	return ctx.Err()
}

// RefreshOne re-fetches exactly one slice and replaces it. Refreshes for
// the same (sku, slice) are serialized, so a caller that awaits its refresh
// cannot be interleaved by a second one; the last completed write wins.
func (co *Coordinator) RefreshOne(ctx context.Context, sku string, s Slice) error {
	lock := co.lockFor(sku, s)
	lock.Lock()
	defer lock.Unlock()

	var (
		value any
		err   error
	)
	switch s {
	case SliceImages:
		value, err = co.api.Images(ctx, sku)
	case SliceDetails:
		value, err = co.api.Details(ctx, sku)
	case SliceListing:
		value, err = co.api.ListingDraft(ctx, sku)
	case SliceSeo:
		value, err = co.api.Seo(ctx, sku)
	case SliceFieldSchema:
		value, err = co.api.FieldSchema(ctx, sku)
	case SliceFieldValues:
		value, err = co.api.FieldValues(ctx, sku)
	case SliceImageOrders:
		value, err = co.api.ImageOrders(ctx, sku)
	case SliceValidation:
		value, err = co.api.Validate(ctx, sku)
	case SliceJSONExists:
		value, err = co.api.JSONStatus(ctx, sku)
	case SliceHasListing:
		var flags map[string]bool
		flags, err = co.api.HasListings(ctx, []string{sku})
		if err == nil {
			value = flags[sku]
		}
	default:
		return fmt.Errorf("unknown slice %q", s)
	}

	if err != nil {
		co.markError(sku, s, err)
		if api.IsTimeout(err) {
			logx.L().Warn().Str("sku", sku).Str("slice", string(s)).Msg("refresh timed out")
		}
		return err
	}
	if !co.setSlice(sku, s, value) {
		return ErrClosed
	}
	return nil
}

// setSlice applies a fetched value unless the workspace has been closed.
func (co *Coordinator) setSlice(sku string, s Slice, v any) bool {
	if co.closed.Load() {
		logx.L().Debug().Str("sku", sku).Str("slice", string(s)).Msg("dropping fetch result after close")
		return false
	}
	co.cache.SetSlice(sku, s, v)
	return true
}

func (co *Coordinator) markError(sku string, s Slice, err error) {
	if co.closed.Load() {
		return
	}
	co.cache.MarkError(sku, s, err)
}

func (co *Coordinator) lockFor(sku string, s Slice) *sync.Mutex {
	key := sku + "/" + string(s)
	co.mu.Lock()
	defer co.mu.Unlock()
	l, ok := co.inflight[key]
	if !ok {
		l = &sync.Mutex{}
		co.inflight[key] = l
	}
	return l
}
