package batch

import (
	"sort"
	"sync"

	"sku-batch/internal/api"
	"sku-batch/internal/infra/logx"
)

// Slice names one independently-fetched sub-resource of a SKU.
type Slice string

const (
	SliceImages      Slice = "images"
	SliceDetails     Slice = "details"
	SliceListing     Slice = "listing"
	SliceSeo         Slice = "seo"
	SliceFieldSchema Slice = "fieldSchema"
	SliceFieldValues Slice = "fieldValues"
	SliceImageOrders Slice = "imageOrders"
	SliceValidation  Slice = "validation"
	SliceHasListing  Slice = "hasListing"
	SliceJSONExists  Slice = "jsonExists"
)

// Entry is the per-SKU cache record. Every slice is populated independently;
// nil means "not fetched yet". Consumers must tolerate any combination of
// absent slices.
type Entry struct {
	Images      []api.ImageRecord
	ImagesFound bool
	Details     *api.ProductDetails
	Listing     *api.ListingDraft
	Seo         *api.SeoFields
	FieldSchema *api.FieldSchema
	FieldValues map[string]api.FieldValue
	ImageOrders map[string]int
	Validation  *api.ValidationSummary
	HasListing  *bool
	JSONExists  *bool

	// Errors holds the last fetch error per slice. A successful SetSlice
	// clears the slice's tag.
	Errors map[Slice]error
}

// Cache is the per-SKU keyed store of sub-resources. Slices are replaced
// wholesale, last write wins; there is no cross-slice transactionality.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Get returns a copy of the SKU's entry. Unknown SKUs yield a zero entry;
// Get never fails. Maps, slices, and nested field lists are copied all the
// way down so callers cannot mutate cache internals.
func (c *Cache) Get(sku string) Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[sku]
	if !ok {
		return Entry{}
	}
	out := *e
	if e.Images != nil {
		out.Images = append([]api.ImageRecord(nil), e.Images...)
	}
	out.ImageOrders = copyIntMap(e.ImageOrders)
	out.FieldValues = copyFieldValues(e.FieldValues)
	out.Errors = copyErrMap(e.Errors)
	out.Details = copyDetails(e.Details)
	if e.Listing != nil {
		l := *e.Listing
		out.Listing = &l
	}
	if e.Seo != nil {
		s := *e.Seo
		out.Seo = &s
	}
	out.FieldSchema = copySchema(e.FieldSchema)
	if e.Validation != nil {
		v := *e.Validation
		v.MissingRequired = copyStrings(e.Validation.MissingRequired)
		out.Validation = &v
	}
	if e.HasListing != nil {
		b := *e.HasListing
		out.HasListing = &b
	}
	if e.JSONExists != nil {
		b := *e.JSONExists
		out.JSONExists = &b
	}
	return out
}

// SetSlice replaces one slice of a SKU and clears its error tag. The value
// type must match the slice; mismatches are dropped with a log entry rather
// than corrupting the entry.
func (c *Cache) SetSlice(sku string, s Slice, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(sku)
	switch s {
	case SliceImages:
		list, ok := v.(api.ImageList)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.Images = append([]api.ImageRecord(nil), list.Images...)
		e.ImagesFound = list.FolderFound
	case SliceDetails:
		d, ok := v.(api.ProductDetails)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.Details = &d
	case SliceListing:
		l, ok := v.(api.ListingDraft)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.Listing = &l
	case SliceSeo:
		f, ok := v.(api.SeoFields)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.Seo = &f
	case SliceFieldSchema:
		fs, ok := v.(api.FieldSchema)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.FieldSchema = &fs
	case SliceFieldValues:
		fv, ok := v.(map[string]api.FieldValue)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.FieldValues = copyFieldValues(fv)
	case SliceImageOrders:
		m, ok := v.(map[string]int)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.ImageOrders = copyIntMap(m)
	case SliceValidation:
		vs, ok := v.(api.ValidationSummary)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.Validation = &vs
	case SliceHasListing:
		b, ok := v.(bool)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.HasListing = &b
	case SliceJSONExists:
		b, ok := v.(bool)
		if !ok {
			c.badType(sku, s, v)
			return
		}
		e.JSONExists = &b
	default:
		logx.L().Warn().Str("sku", sku).Str("slice", string(s)).Msg("unknown cache slice")
		return
	}
	delete(e.Errors, s)
}

// MarkError tags a slice as failed without touching its last value.
func (c *Cache) MarkError(sku string, s Slice, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(sku)
	if e.Errors == nil {
		e.Errors = make(map[Slice]error)
	}
	e.Errors[s] = err
}

// Invalidate drops a slice's value and error tag.
func (c *Cache) Invalidate(sku string, s Slice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sku]
	if !ok {
		return
	}
	switch s {
	case SliceImages:
		e.Images = nil
		e.ImagesFound = false
	case SliceDetails:
		e.Details = nil
	case SliceListing:
		e.Listing = nil
	case SliceSeo:
		e.Seo = nil
	case SliceFieldSchema:
		e.FieldSchema = nil
	case SliceFieldValues:
		e.FieldValues = nil
	case SliceImageOrders:
		e.ImageOrders = nil
	case SliceValidation:
		e.Validation = nil
	case SliceHasListing:
		e.HasListing = nil
	case SliceJSONExists:
		e.JSONExists = nil
	}
	delete(e.Errors, s)
}

// SliceError returns the error tag of a slice, if any.
func (c *Cache) SliceError(sku string, s Slice) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[sku]
	if !ok {
		return nil
	}
	return e.Errors[s]
}

// Skus returns all cached SKU ids, sorted.
func (c *Cache) Skus() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for sku := range c.entries {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

func (c *Cache) entry(sku string) *Entry {
	e, ok := c.entries[sku]
	if !ok {
		e = &Entry{}
		c.entries[sku] = e
	}
	return e
}

func (c *Cache) badType(sku string, s Slice, v any) {
	logx.L().Warn().Str("sku", sku).Str("slice", string(s)).Type("got", v).Msg("cache slice type mismatch, value dropped")
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFieldValues(m map[string]api.FieldValue) map[string]api.FieldValue {
	if m == nil {
		return nil
	}
	out := make(map[string]api.FieldValue, len(m))
	for k, v := range m {
		v.Options = copyStrings(v.Options)
		out[k] = v
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func copyDetails(d *api.ProductDetails) *api.ProductDetails {
	if d == nil {
		return nil
	}
	out := *d
	out.Categories = make([]api.DetailCategory, len(d.Categories))
	for i, cat := range d.Categories {
		cat.Fields = append([]api.DetailField(nil), cat.Fields...)
		out.Categories[i] = cat
	}
	return &out
}

func copySchema(fs *api.FieldSchema) *api.FieldSchema {
	if fs == nil {
		return nil
	}
	out := *fs
	out.Fields = make([]api.FieldSpec, len(fs.Fields))
	for i, f := range fs.Fields {
		f.Options = copyStrings(f.Options)
		out.Fields[i] = f
	}
	return &out
}

func copyErrMap(m map[Slice]error) map[Slice]error {
	if m == nil {
		return nil
	}
	out := make(map[Slice]error, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
