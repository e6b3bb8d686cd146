package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the catalog service. All methods are safe for concurrent
// use; retries and rate limiting live in the transport.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New builds a client with the retrying, rate-limited transport installed.
func New(baseURL, token string) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: NewRetryingTransport(TransportOptionsFromEnv()),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request and decodes a JSON body into out (unless nil).
func (c *Client) do(op string, req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return netErr(op, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return httpErr(op, res.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &Error{Kind: KindNetwork, Op: op, Message: "decode: " + err.Error()}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return netErr(op, err)
	}
	return c.do(op, req, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return netErr(op, err)
	}
	return c.do(op, req, out)
}

// ---------- SKU sub-resources ----------

// HasListings checks marketplace-listing existence for a whole batch in one
// call. GET /skus/ebay-listings/has?skus=<comma-list>
func (c *Client) HasListings(ctx context.Context, skus []string) (map[string]bool, error) {
	q := url.Values{}
	q.Set("skus", strings.Join(skus, ","))
	var payload struct {
		Skus map[string]bool `json:"skus"`
	}
	if err := c.get(ctx, "listings.has", "/skus/ebay-listings/has", q, &payload); err != nil {
		return nil, err
	}
	return payload.Skus, nil
}

// Images fetches the authoritative image list of a SKU.
func (c *Client) Images(ctx context.Context, sku string) (ImageList, error) {
	var payload ImageList
	err := c.get(ctx, "images.list", "/skus/"+url.PathEscape(sku)+"/images", nil, &payload)
	return payload, err
}

// JSONStatus reports whether the enrichment JSON exists for a SKU.
func (c *Client) JSONStatus(ctx context.Context, sku string) (bool, error) {
	var payload struct {
		JSONExists bool `json:"json_exists"`
	}
	err := c.get(ctx, "json.status", "/skus/"+url.PathEscape(sku)+"/json/status", nil, &payload)
	return payload.JSONExists, err
}

// GenerateJSON triggers enrichment JSON generation for a SKU.
func (c *Client) GenerateJSON(ctx context.Context, sku string) error {
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "json.generate", "/skus/"+url.PathEscape(sku)+"/json/generate", nil, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return remoteErr("json.generate", payload.Message)
	}
	return nil
}

// Details fetches the product-detail snapshot of a SKU.
func (c *Client) Details(ctx context.Context, sku string) (ProductDetails, error) {
	var payload ProductDetails
	err := c.get(ctx, "details.get", "/skus/"+url.PathEscape(sku)+"/details", nil, &payload)
	return payload, err
}

// SaveDetails writes changed detail fields, grouped by category.
func (c *Client) SaveDetails(ctx context.Context, sku string, updates map[string]map[string]string) error {
	body := struct {
		SKU     string                       `json:"sku"`
		Updates map[string]map[string]string `json:"updates"`
	}{SKU: sku, Updates: updates}
	var payload struct {
		Success       bool     `json:"success"`
		UpdatedFields []string `json:"updated_fields"`
		Message       string   `json:"message"`
	}
	if err := c.post(ctx, "details.save", "/skus/"+url.PathEscape(sku)+"/details", body, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return remoteErr("details.save", payload.Message)
	}
	return nil
}
