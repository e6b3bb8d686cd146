package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// testClient builds a client whose transport is the given function, without
// the retrying transport in between.
func testClient(fn roundTripFunc) *Client {
	return &Client{
		http:    &http.Client{Transport: fn},
		baseURL: "http://catalog.test",
		token:   "token",
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestHasListings(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "token" {
			t.Fatalf("unexpected auth header: %s", req.Header.Get("Authorization"))
		}
		if req.URL.Path != "/skus/ebay-listings/has" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("skus"); got != "A1,A2" {
			t.Fatalf("unexpected skus param: %s", got)
		}
		return jsonResponse(200, `{"skus":{"A1":true,"A2":false}}`), nil
	})
	flags, err := c.HasListings(context.Background(), []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("HasListings returned error: %v", err)
	}
	if !flags["A1"] || flags["A2"] {
		t.Fatalf("unexpected flags: %+v", flags)
	}
}

func TestImages(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/skus/A1/images" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		body := `{"folder_found":true,"count":2,"images":[
			{"filename":"a.jpg","is_main":true,"classification":"phone"},
			{"filename":"b.jpg","classification":"stock"}]}`
		return jsonResponse(200, body), nil
	})
	list, err := c.Images(context.Background(), "A1")
	if err != nil {
		t.Fatalf("Images returned error: %v", err)
	}
	if !list.FolderFound || list.Count != 2 || len(list.Images) != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !list.Images[0].IsMain || list.Images[0].Classification != "phone" {
		t.Fatalf("unexpected first image: %+v", list.Images[0])
	}
}

func TestGenerateJSONRemoteFailure(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":false,"message":"no source data"}`), nil
	})
	err := c.GenerateJSON(context.Background(), "A1")
	if err == nil {
		t.Fatal("expected error for success=false")
	}
	var e *Error
	if !asAPIError(err, &e) || e.Kind != KindRemote || !strings.Contains(e.Message, "no source data") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaveDetailsBody(t *testing.T) {
	var captured string
	c := testClient(func(req *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(req.Body)
		captured = string(b)
		return jsonResponse(200, `{"success":true,"updated_fields":["Brand"]}`), nil
	})
	updates := map[string]map[string]string{"General": {"Brand": "X"}}
	if err := c.SaveDetails(context.Background(), "A1", updates); err != nil {
		t.Fatalf("SaveDetails returned error: %v", err)
	}
	if !strings.Contains(captured, `"sku":"A1"`) || !strings.Contains(captured, `"Brand":"X"`) {
		t.Fatalf("unexpected body: %s", captured)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, `{}`), nil
	})
	_, err := c.Details(context.Background(), "A1")
	var e *Error
	if !asAPIError(err, &e) || e.Kind != KindHTTP || e.Status != 500 {
		t.Fatalf("unexpected error: %v", err)
	}
}

func asAPIError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
