package batch

import (
	"context"
	"errors"
	"sync"

	"sku-batch/internal/api"
)

// fakeCatalog implements the remote surfaces used across the package.
// Unset function fields return zero values.
type fakeCatalog struct {
	mu    sync.Mutex
	calls map[string]int

	hasListingsFn  func(skus []string) (map[string]bool, error)
	imagesFn       func(sku string) (api.ImageList, error)
	jsonStatusFn   func(sku string) (bool, error)
	detailsFn      func(sku string) (api.ProductDetails, error)
	listingFn      func(sku string) (api.ListingDraft, error)
	seoFn          func(sku string) (api.SeoFields, error)
	fieldSchemaFn  func(sku string) (api.FieldSchema, error)
	fieldValuesFn  func(sku string) (map[string]api.FieldValue, error)
	imageOrdersFn  func(sku string) (map[string]int, error)
	validateFn     func(sku string) (api.ValidationSummary, error)
	saveOrdersFn   func(sku string, orders map[string]int) error
	saveDetailsFn  func(sku string, updates map[string]map[string]string) error
	generateJSONFn func(sku string) error
	bulkSaveFn     func(listings map[string]api.ListingDraft) (api.BulkSaveResult, error)
	createBatchFn  func(items []api.CreateResultRequest) (api.BatchCreateResult, error)
	searchCategsFn func(query string, limit int) ([]api.CategoryHit, error)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{calls: make(map[string]int)}
}

func (f *fakeCatalog) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeCatalog) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCatalog) HasListings(_ context.Context, skus []string) (map[string]bool, error) {
	f.count("hasListings")
	if f.hasListingsFn != nil {
		return f.hasListingsFn(skus)
	}
	return map[string]bool{}, nil
}

func (f *fakeCatalog) Images(_ context.Context, sku string) (api.ImageList, error) {
	f.count("images")
	if f.imagesFn != nil {
		return f.imagesFn(sku)
	}
	return api.ImageList{}, nil
}

func (f *fakeCatalog) JSONStatus(_ context.Context, sku string) (bool, error) {
	f.count("jsonStatus")
	if f.jsonStatusFn != nil {
		return f.jsonStatusFn(sku)
	}
	return false, nil
}

func (f *fakeCatalog) Details(_ context.Context, sku string) (api.ProductDetails, error) {
	f.count("details")
	if f.detailsFn != nil {
		return f.detailsFn(sku)
	}
	return api.ProductDetails{}, nil
}

func (f *fakeCatalog) ListingDraft(_ context.Context, sku string) (api.ListingDraft, error) {
	f.count("listing")
	if f.listingFn != nil {
		return f.listingFn(sku)
	}
	return api.ListingDraft{}, nil
}

func (f *fakeCatalog) Seo(_ context.Context, sku string) (api.SeoFields, error) {
	f.count("seo")
	if f.seoFn != nil {
		return f.seoFn(sku)
	}
	return api.SeoFields{}, nil
}

func (f *fakeCatalog) FieldSchema(_ context.Context, sku string) (api.FieldSchema, error) {
	f.count("fieldSchema")
	if f.fieldSchemaFn != nil {
		return f.fieldSchemaFn(sku)
	}
	return api.FieldSchema{}, nil
}

func (f *fakeCatalog) FieldValues(_ context.Context, sku string) (map[string]api.FieldValue, error) {
	f.count("fieldValues")
	if f.fieldValuesFn != nil {
		return f.fieldValuesFn(sku)
	}
	return map[string]api.FieldValue{}, nil
}

func (f *fakeCatalog) ImageOrders(_ context.Context, sku string) (map[string]int, error) {
	f.count("imageOrders")
	if f.imageOrdersFn != nil {
		return f.imageOrdersFn(sku)
	}
	return map[string]int{}, nil
}

func (f *fakeCatalog) Validate(_ context.Context, sku string) (api.ValidationSummary, error) {
	f.count("validate")
	if f.validateFn != nil {
		return f.validateFn(sku)
	}
	return api.ValidationSummary{}, nil
}

func (f *fakeCatalog) SaveImageOrders(_ context.Context, sku string, orders map[string]int) error {
	f.count("saveOrders")
	if f.saveOrdersFn != nil {
		return f.saveOrdersFn(sku, orders)
	}
	return nil
}

func (f *fakeCatalog) SaveDetails(_ context.Context, sku string, updates map[string]map[string]string) error {
	f.count("saveDetails")
	if f.saveDetailsFn != nil {
		return f.saveDetailsFn(sku, updates)
	}
	return nil
}

func (f *fakeCatalog) GenerateJSON(_ context.Context, sku string) error {
	f.count("generateJSON")
	if f.generateJSONFn != nil {
		return f.generateJSONFn(sku)
	}
	return nil
}

func (f *fakeCatalog) BulkSaveListings(_ context.Context, listings map[string]api.ListingDraft) (api.BulkSaveResult, error) {
	f.count("bulkSave")
	if f.bulkSaveFn != nil {
		return f.bulkSaveFn(listings)
	}
	return api.BulkSaveResult{Success: true}, nil
}

func (f *fakeCatalog) CreateListingsBatch(_ context.Context, items []api.CreateResultRequest) (api.BatchCreateResult, error) {
	f.count("createBatch")
	if f.createBatchFn != nil {
		return f.createBatchFn(items)
	}
	return api.BatchCreateResult{Success: true}, nil
}

func (f *fakeCatalog) SearchCategories(_ context.Context, query string, limit int) ([]api.CategoryHit, error) {
	f.count("searchCategories")
	if f.searchCategsFn != nil {
		return f.searchCategsFn(query, limit)
	}
	return nil, nil
}

var errBoom = errors.New("boom")

// details builds a one-category snapshot from field name/value pairs.
func detailsWith(completion float64, pairs ...string) api.ProductDetails {
	fields := make([]api.DetailField, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, api.DetailField{Name: pairs[i], Value: pairs[i+1]})
	}
	return api.ProductDetails{
		Categories:           []api.DetailCategory{{Name: "General", Fields: fields}},
		CompletionPercentage: completion,
	}
}
