package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Headless smoke client: checks listing existence for the SKUs given on the
// command line without starting the TUI.

type catalogClient struct {
	BaseURL    string
	Token      string
	httpClient *http.Client
}

type hasListingsResponse struct {
	Skus map[string]bool `json:"skus"`
}

func (c *catalogClient) hasListings(skus []string) {
	u := c.BaseURL + "/skus/ebay-listings/has?skus=" + strings.Join(skus, ",")
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		fmt.Println("[hasListings]: error building request:", err)
		return
	}
	if c.Token != "" {
		req.Header.Set("Authorization", c.Token)
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fmt.Println("[hasListings]: request error:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("[hasListings] status:", resp.Status)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Println("[hasListings]: error reading body:", err)
		return
	}

	var out hasListingsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		fmt.Println("[hasListings]: error parsing body:", err)
		return
	}
	for _, sku := range skus {
		fmt.Printf("- %s listed=%v\n", sku, out.Skus[sku])
	}
}

func main() {
	base := strings.TrimRight(os.Getenv("SKUB_API_URL"), "/")
	if base == "" {
		fmt.Println("[env]: SKUB_API_URL is not set")
		return
	}
	if len(os.Args) < 2 {
		fmt.Println("usage: go run . SKU [SKU…]")
		return
	}

	client := &catalogClient{
		BaseURL:    base,
		Token:      strings.TrimSpace(os.Getenv("SKUB_API_TOKEN")),
		httpClient: &http.Client{},
	}
	client.hasListings(os.Args[1:])
}
