package batch

import (
	"context"
	"errors"
	"testing"

	"sku-batch/internal/api"
)

func TestLoadAllPopulatesAllSlices(t *testing.T) {
	f := newFakeCatalog()
	f.hasListingsFn = func(skus []string) (map[string]bool, error) {
		return map[string]bool{"A1": true, "A2": false}, nil
	}
	f.imagesFn = func(sku string) (api.ImageList, error) {
		return api.ImageList{FolderFound: true, Count: 1, Images: []api.ImageRecord{{Filename: sku + ".jpg"}}}, nil
	}
	f.jsonStatusFn = func(sku string) (bool, error) { return sku == "A1", nil }

	cache := NewCache()
	co := NewCoordinator(f, cache, 4)
	if err := co.LoadAll(context.Background(), []string{"A1", "A2"}); err != nil {
		t.Fatalf("LoadAll returned error: %v", err)
	}

	e1 := cache.Get("A1")
	if e1.HasListing == nil || !*e1.HasListing || e1.JSONExists == nil || !*e1.JSONExists {
		t.Fatalf("A1 flags wrong: %+v", e1)
	}
	if len(e1.Images) != 1 || e1.Images[0].Filename != "A1.jpg" {
		t.Fatalf("A1 images wrong: %+v", e1.Images)
	}
	if f.callCount("hasListings") != 1 {
		t.Fatalf("listing existence must be one batched call, got %d", f.callCount("hasListings"))
	}
}

func TestLoadAllIsolatesFailures(t *testing.T) {
	f := newFakeCatalog()
	f.imagesFn = func(sku string) (api.ImageList, error) {
		if sku == "sku1" {
			return api.ImageList{}, errBoom
		}
		return api.ImageList{Images: []api.ImageRecord{{Filename: "ok.jpg"}}}, nil
	}
	f.jsonStatusFn = func(sku string) (bool, error) { return true, nil }
	f.hasListingsFn = func(skus []string) (map[string]bool, error) {
		return map[string]bool{"sku1": false, "sku2": true}, nil
	}

	cache := NewCache()
	co := NewCoordinator(f, cache, 4)
	if err := co.LoadAll(context.Background(), []string{"sku1", "sku2"}); err != nil {
		t.Fatalf("LoadAll must not surface per-sku fetch failures: %v", err)
	}

	if cache.SliceError("sku1", SliceImages) == nil {
		t.Fatal("sku1 images not error-tagged")
	}
	e1 := cache.Get("sku1")
	if e1.JSONExists == nil || !*e1.JSONExists {
		t.Fatal("sku1 sibling slice must still populate")
	}
	e2 := cache.Get("sku2")
	if len(e2.Images) != 1 || cache.SliceError("sku2", SliceImages) != nil {
		t.Fatalf("sku2 must be fully populated: %+v", e2)
	}
}

func TestLoadAllBatchFlagFailureTagsEverySku(t *testing.T) {
	f := newFakeCatalog()
	f.hasListingsFn = func([]string) (map[string]bool, error) { return nil, errBoom }
	cache := NewCache()
	co := NewCoordinator(f, cache, 4)
	if err := co.LoadAll(context.Background(), []string{"A1", "A2"}); err != nil {
		t.Fatalf("LoadAll returned error: %v", err)
	}
	for _, sku := range []string{"A1", "A2"} {
		if cache.SliceError(sku, SliceHasListing) == nil {
			t.Fatalf("%s missing hasListing tag", sku)
		}
	}
}

func TestLoadAllSuccessReturnsNil(t *testing.T) {
	f := newFakeCatalog()
	f.hasListingsFn = func(skus []string) (map[string]bool, error) {
		return map[string]bool{"A1": true}, nil
	}
	f.jsonStatusFn = func(string) (bool, error) { return true, nil }

	co := NewCoordinator(f, NewCache(), 4)
	if err := co.LoadAll(context.Background(), []string{"A1"}); err != nil {
		t.Fatalf("successful fan-out must return nil, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := co.LoadAll(ctx, []string{"A1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller context must surface, got %v", err)
	}
}

func TestRefreshOneReplacesSlice(t *testing.T) {
	f := newFakeCatalog()
	version := "old"
	f.detailsFn = func(sku string) (api.ProductDetails, error) {
		return detailsWith(10, "Status", version), nil
	}
	cache := NewCache()
	co := NewCoordinator(f, cache, 4)
	ctx := context.Background()

	co.RefreshOne(ctx, "A1", SliceDetails)
	version = "new"
	if err := co.RefreshOne(ctx, "A1", SliceDetails); err != nil {
		t.Fatalf("RefreshOne returned error: %v", err)
	}
	if v, _ := DetailValue(cache.Get("A1").Details, "Status"); v != "new" {
		t.Fatalf("slice not replaced: %s", v)
	}
}

func TestRefreshOneErrorTags(t *testing.T) {
	f := newFakeCatalog()
	f.listingFn = func(string) (api.ListingDraft, error) { return api.ListingDraft{}, errBoom }
	cache := NewCache()
	co := NewCoordinator(f, cache, 4)
	if err := co.RefreshOne(context.Background(), "A1", SliceListing); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if cache.SliceError("A1", SliceListing) == nil {
		t.Fatal("slice not error-tagged")
	}
}

func TestRefreshOneHasListingSingleSku(t *testing.T) {
	f := newFakeCatalog()
	f.hasListingsFn = func(skus []string) (map[string]bool, error) {
		if len(skus) != 1 || skus[0] != "A1" {
			t.Fatalf("unexpected batch: %v", skus)
		}
		return map[string]bool{"A1": true}, nil
	}
	cache := NewCache()
	co := NewCoordinator(f, cache, 4)
	if err := co.RefreshOne(context.Background(), "A1", SliceHasListing); err != nil {
		t.Fatalf("RefreshOne returned error: %v", err)
	}
	if e := cache.Get("A1"); e.HasListing == nil || !*e.HasListing {
		t.Fatal("flag not applied")
	}
}

func TestRefreshOneUnknownSlice(t *testing.T) {
	co := NewCoordinator(newFakeCatalog(), NewCache(), 4)
	if err := co.RefreshOne(context.Background(), "A1", Slice("bogus")); err == nil {
		t.Fatal("expected error for unknown slice")
	}
}

func TestCloseDropsResolvedFetches(t *testing.T) {
	f := newFakeCatalog()
	f.jsonStatusFn = func(string) (bool, error) { return true, nil }
	cache := NewCache()
	co := NewCoordinator(f, cache, 4)

	co.Close()
	err := co.RefreshOne(context.Background(), "A1", SliceJSONExists)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if cache.Get("A1").JSONExists != nil {
		t.Fatal("result applied after close")
	}
}
