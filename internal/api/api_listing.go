package api

import (
	"context"
	"net/url"
	"strconv"
)

// The eBay-facing surface: image ordering, listing drafts, SEO, field
// schemas and values, validation, category search.

// ImageOrders fetches the ordinal map of a SKU. Keys are filenames,
// values ordinals 1..12.
func (c *Client) ImageOrders(ctx context.Context, sku string) (map[string]int, error) {
	var payload struct {
		Orders map[string]int `json:"orders"`
	}
	if err := c.get(ctx, "imageorders.get", "/skus/"+url.PathEscape(sku)+"/ebay-images", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// SaveImageOrders replaces the whole ordinal map of a SKU. The service has
// no delta endpoint; callers must always send the full map.
func (c *Client) SaveImageOrders(ctx context.Context, sku string, orders map[string]int) error {
	body := struct {
		Orders map[string]int `json:"orders"`
	}{Orders: orders}
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "imageorders.save", "/skus/"+url.PathEscape(sku)+"/ebay-images", body, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return remoteErr("imageorders.save", payload.Message)
	}
	return nil
}

// ListingDraft fetches the draft listing fields of a SKU.
func (c *Client) ListingDraft(ctx context.Context, sku string) (ListingDraft, error) {
	var payload struct {
		Data ListingDraft `json:"data"`
	}
	err := c.get(ctx, "listing.get", "/skus/"+url.PathEscape(sku)+"/ebay-listing", nil, &payload)
	return payload.Data, err
}

// BulkSaveListings saves drafts for many SKUs in one call. Per-SKU failures
// land in the result's Errors map; the call itself succeeds.
func (c *Client) BulkSaveListings(ctx context.Context, listings map[string]ListingDraft) (BulkSaveResult, error) {
	body := struct {
		Listings map[string]ListingDraft `json:"listings"`
	}{Listings: listings}
	var payload BulkSaveResult
	err := c.post(ctx, "listing.bulksave", "/ebay/listing/bulk-save", body, &payload)
	return payload, err
}

// CreateListing publishes a single SKU's draft as a marketplace listing.
func (c *Client) CreateListing(ctx context.Context, sku string, draft ListingDraft) (CreateResult, error) {
	body := struct {
		SKU     string       `json:"sku"`
		Listing ListingDraft `json:"listing"`
	}{SKU: sku, Listing: draft}
	var payload CreateResult
	err := c.post(ctx, "listing.create", "/ebay/listings/create", body, &payload)
	return payload, err
}

// CreateListingsBatch publishes many drafts; the result carries one entry
// per submitted SKU.
func (c *Client) CreateListingsBatch(ctx context.Context, items []CreateResultRequest) (BatchCreateResult, error) {
	var payload BatchCreateResult
	err := c.post(ctx, "listing.createbatch", "/ebay/listings/batch", items, &payload)
	return payload, err
}

// CreateResultRequest is one element of the batch creation body.
type CreateResultRequest struct {
	SKU     string       `json:"sku"`
	Listing ListingDraft `json:"listing"`
}

// Seo fetches the SEO fields of a SKU.
func (c *Client) Seo(ctx context.Context, sku string) (SeoFields, error) {
	var payload SeoFields
	err := c.get(ctx, "seo.get", "/skus/"+url.PathEscape(sku)+"/ebay-seo", nil, &payload)
	return payload, err
}

// SaveSeo writes the SEO fields of a SKU.
func (c *Client) SaveSeo(ctx context.Context, sku string, fields SeoFields) error {
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "seo.save", "/skus/"+url.PathEscape(sku)+"/ebay-seo", fields, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return remoteErr("seo.save", payload.Message)
	}
	return nil
}

// FieldSchema fetches the marketplace field schema for a SKU's category.
func (c *Client) FieldSchema(ctx context.Context, sku string) (FieldSchema, error) {
	var payload FieldSchema
	err := c.get(ctx, "schema.get", "/ebay/schemas/sku/"+url.PathEscape(sku), nil, &payload)
	return payload, err
}

// FieldValues fetches the current marketplace field values of a SKU. Values
// arrive either as plain strings or as tagged objects; see FieldValue.
func (c *Client) FieldValues(ctx context.Context, sku string) (map[string]FieldValue, error) {
	var payload struct {
		Fields map[string]FieldValue `json:"fields"`
	}
	if err := c.get(ctx, "fields.get", "/ebay/fields/"+url.PathEscape(sku), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Fields, nil
}

// SaveFieldValues writes normalized marketplace field values of a SKU.
func (c *Client) SaveFieldValues(ctx context.Context, sku string, values map[string]string) error {
	body := struct {
		Fields map[string]string `json:"fields"`
	}{Fields: values}
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "fields.save", "/skus/"+url.PathEscape(sku)+"/ebay-fields", body, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return remoteErr("fields.save", payload.Message)
	}
	return nil
}

// Validate asks the service whether a SKU's listing data is complete. An
// invalid result is normal data, not an error.
func (c *Client) Validate(ctx context.Context, sku string) (ValidationSummary, error) {
	var payload ValidationSummary
	err := c.get(ctx, "validate", "/ebay/validate/"+url.PathEscape(sku), nil, &payload)
	return payload, err
}

// SearchCategories queries the marketplace category tree.
func (c *Client) SearchCategories(ctx context.Context, query string, limit int) ([]CategoryHit, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	var payload struct {
		Items []CategoryHit `json:"items"`
	}
	if err := c.get(ctx, "categories.search", "/ebay/categories/search", q, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}
