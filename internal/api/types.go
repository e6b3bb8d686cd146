package api

import (
	"bytes"
	"encoding/json"
)

// ImageRecord is one image of a SKU as reported by the catalog service.
// The list is replaced wholesale on every fetch; there is no patching.
type ImageRecord struct {
	Filename       string `json:"filename"`
	IsMain         bool   `json:"is_main"`
	Classification string `json:"classification"` // none|phone|stock|enhanced
	URL            string `json:"url"`
	ThumbURL       string `json:"thumb_url"`
	Size           int64  `json:"size"`
}

// ImageList is the response of GET /skus/{sku}/images.
type ImageList struct {
	FolderFound bool          `json:"folder_found"`
	Count       int           `json:"count"`
	Images      []ImageRecord `json:"images"`
}

// DetailField is a single product-detail field. Identity is the pair
// (category name, field name); names may repeat across categories.
type DetailField struct {
	Name          string `json:"name"`
	Value         string `json:"value"`
	IsHighlighted bool   `json:"is_highlighted"`
}

// DetailCategory is a named group of fields.
type DetailCategory struct {
	Name   string        `json:"name"`
	Fields []DetailField `json:"fields"`
}

// ProductDetails is the server-side snapshot of a SKU's structured fields.
// Completion counters are computed server-side and trusted as given.
type ProductDetails struct {
	Categories           []DetailCategory `json:"categories"`
	CompletionPercentage float64          `json:"completion_percentage"`
	FilledFields         int              `json:"filled_fields"`
	TotalFields          int              `json:"total_fields"`
}

// ListingDraft holds the client-editable marketplace listing fields.
type ListingDraft struct {
	Price                string `json:"price"`
	ShippingCostsNet     string `json:"shipping_costs_net"`
	Quantity             string `json:"quantity"`
	ConditionID          string `json:"condition_id"`
	ConditionDescription string `json:"condition_description"`
	EAN                  string `json:"ean"`
	ModifiedSKU          string `json:"modified_sku"`
	ScheduleDate         string `json:"schedule_date"`
}

// SeoFields are the marketplace SEO fields of a SKU.
type SeoFields struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

// FieldSpec describes one marketplace field of a category schema.
type FieldSpec struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FieldSchema is the marketplace field schema for a SKU's category.
type FieldSchema struct {
	CategoryID string      `json:"category_id"`
	Fields     []FieldSpec `json:"fields"`
}

// FieldValue tolerates both encodings the service uses for a field value:
// a plain string, or an object {value, description, options}. Consumers
// normalize to Value before buffering edits.
type FieldValue struct {
	Value       string
	Description string
	Options     []string
}

func (v *FieldValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FieldValue{Value: s}
		return nil
	}
	var obj struct {
		Value       string   `json:"value"`
		Description string   `json:"description"`
		Options     []string `json:"options"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*v = FieldValue{Value: obj.Value, Description: obj.Description, Options: obj.Options}
	return nil
}

// ValidationSummary is the response of GET /ebay/validate/{sku}. An invalid
// listing is a normal data state, not an error.
type ValidationSummary struct {
	Valid           bool     `json:"valid"`
	FilledRequired  int      `json:"filled_required"`
	TotalRequired   int      `json:"total_required"`
	FilledOptional  int      `json:"filled_optional"`
	TotalOptional   int      `json:"total_optional"`
	MissingRequired []string `json:"missing_required"`
}

// CategoryHit is one result of the marketplace category search.
type CategoryHit struct {
	Label      string `json:"label"`
	CategoryID string `json:"category_id"`
}

// CreateResult is the outcome of a single listing creation.
type CreateResult struct {
	SKU      string   `json:"sku,omitempty"`
	Success  bool     `json:"success"`
	ItemID   string   `json:"item_id,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// BatchCreateResult is the outcome of POST /ebay/listings/batch.
type BatchCreateResult struct {
	Success bool           `json:"success"`
	Results []CreateResult `json:"results"`
}

// BulkSaveResult is the outcome of POST /ebay/listing/bulk-save. Errors is
// keyed by SKU; a SKU absent from Errors saved successfully.
type BulkSaveResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}
