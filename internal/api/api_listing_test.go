package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestSaveImageOrdersWholeMap(t *testing.T) {
	var captured struct {
		Orders map[string]int `json:"orders"`
	}
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/skus/A1/ebay-images" {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		b, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(b, &captured); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		return jsonResponse(200, `{"success":true}`), nil
	})
	orders := map[string]int{"a.jpg": 1, "b.jpg": 2}
	if err := c.SaveImageOrders(context.Background(), "A1", orders); err != nil {
		t.Fatalf("SaveImageOrders returned error: %v", err)
	}
	if len(captured.Orders) != 2 || captured.Orders["a.jpg"] != 1 {
		t.Fatalf("whole map not sent: %+v", captured.Orders)
	}
}

func TestListingDraftUnwrapsData(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"data":{"price":"29,99","ean":"4006381333931"}}`), nil
	})
	draft, err := c.ListingDraft(context.Background(), "A1")
	if err != nil {
		t.Fatalf("ListingDraft returned error: %v", err)
	}
	if draft.Price != "29,99" || draft.EAN != "4006381333931" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}

func TestBulkSaveListingsErrorsKeyedBySku(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":false,"errors":{"A2":"missing price"}}`), nil
	})
	res, err := c.BulkSaveListings(context.Background(), map[string]ListingDraft{
		"A1": {Price: "10"},
		"A2": {},
	})
	if err != nil {
		t.Fatalf("BulkSaveListings returned error: %v", err)
	}
	if res.Errors["A2"] != "missing price" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestValidateSummary(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/ebay/validate/A1" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(200, `{"valid":false,"filled_required":3,"total_required":5,"missing_required":["Brand","EAN"]}`), nil
	})
	v, err := c.Validate(context.Background(), "A1")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if v.Valid || v.FilledRequired != 3 || len(v.MissingRequired) != 2 {
		t.Fatalf("unexpected summary: %+v", v)
	}
}

func TestSearchCategories(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("query") != "lego" || q.Get("limit") != "10" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(200, `{"items":[{"label":"Toys > Bricks","category_id":"183446"}]}`), nil
	})
	hits, err := c.SearchCategories(context.Background(), "lego", 0)
	if err != nil {
		t.Fatalf("SearchCategories returned error: %v", err)
	}
	if len(hits) != 1 || hits[0].CategoryID != "183446" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestFieldValueBothEncodings(t *testing.T) {
	var m map[string]FieldValue
	blob := `{"Brand":"LEGO","Condition":{"value":"new","description":"sealed","options":["new","used"]}}`
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if m["Brand"].Value != "LEGO" {
		t.Fatalf("plain string not normalized: %+v", m["Brand"])
	}
	cond := m["Condition"]
	if cond.Value != "new" || cond.Description != "sealed" || len(cond.Options) != 2 {
		t.Fatalf("object form not parsed: %+v", cond)
	}
}
