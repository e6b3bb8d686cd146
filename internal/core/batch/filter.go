package batch

import "sort"

// Bucket is the completion-percentage filter bucket.
type Bucket string

const (
	BucketNone     Bucket = ""
	BucketEmpty    Bucket = "empty"    // exactly 0
	BucketLow      Bucket = "low"      // (0, 33)
	BucketMedium   Bucket = "medium"   // [33, 66)
	BucketHigh     Bucket = "high"     // [66, 100)
	BucketComplete Bucket = "complete" // exactly 100
)

// EmptyValue is the synthetic filter value matching SKUs that lack a field.
const EmptyValue = "empty"

// Detail field names used by the categorical filters.
const (
	FieldStatus = "Status"
	FieldLager  = "Lager"
	FieldBrand  = "Brand"
)

// FilterState is the compound filter: AND across categories, OR within a
// category's selected value set. Empty sets are pass-through.
type FilterState struct {
	Status     map[string]struct{}
	Lager      map[string]struct{}
	Brand      map[string]struct{}
	Completion Bucket
}

func NewFilterState() FilterState {
	return FilterState{
		Status: make(map[string]struct{}),
		Lager:  make(map[string]struct{}),
		Brand:  make(map[string]struct{}),
	}
}

// Active reports whether any filter constrains the view.
func (f FilterState) Active() bool {
	return len(f.Status) > 0 || len(f.Lager) > 0 || len(f.Brand) > 0 || f.Completion != BucketNone
}

// Passes applies the conjunction to one cache entry.
func (f FilterState) Passes(e Entry) bool {
	if !categorical(f.Status, e, FieldStatus) {
		return false
	}
	if !categorical(f.Lager, e, FieldLager) {
		return false
	}
	if !categorical(f.Brand, e, FieldBrand) {
		return false
	}
	if f.Completion != BucketNone {
		if e.Details == nil {
			return f.Completion == BucketEmpty
		}
		if CompletionBucket(e.Details.CompletionPercentage) != f.Completion {
			return false
		}
	}
	return true
}

// Visible returns the SKUs passing the filter, in input order.
func (f FilterState) Visible(c *Cache, skus []string) []string {
	if !f.Active() {
		return append([]string(nil), skus...)
	}
	out := make([]string, 0, len(skus))
	for _, sku := range skus {
		if f.Passes(c.Get(sku)) {
			out = append(out, sku)
		}
	}
	return out
}

// CompletionBucket maps a percentage to its bucket. The boundaries matter:
// 66 is high, 65.999 is medium, 100 is complete and nothing else is.
func CompletionBucket(p float64) Bucket {
	switch {
	case p <= 0:
		return BucketEmpty
	case p < 33:
		return BucketLow
	case p < 66:
		return BucketMedium
	case p < 100:
		return BucketHigh
	default:
		return BucketComplete
	}
}

// AvailableValues lists the distinct non-empty values of a detail field
// across the given SKUs, sorted, with EmptyValue appended when at least one
// SKU lacks the field.
func AvailableValues(c *Cache, skus []string, field string) []string {
	seen := make(map[string]struct{})
	hasEmpty := false
	for _, sku := range skus {
		v := fieldOrEmpty(c.Get(sku), field)
		if v == EmptyValue {
			hasEmpty = true
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen)+1)
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	if hasEmpty {
		out = append(out, EmptyValue)
	}
	return out
}

func categorical(selected map[string]struct{}, e Entry, field string) bool {
	if len(selected) == 0 {
		return true
	}
	_, ok := selected[fieldOrEmpty(e, field)]
	return ok
}

func fieldOrEmpty(e Entry, field string) string {
	v, ok := DetailValue(e.Details, field)
	if !ok || v == "" {
		return EmptyValue
	}
	return v
}
