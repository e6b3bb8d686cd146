package ui

import (
	"reflect"
	"testing"

	"sku-batch/internal/core/batch"
)

func testCfg() FilterConfig {
	return FilterConfig{MinCoverage: 0.6, MaxSpread: 40, MaxResults: 200}
}

func TestFilterSkusEmptyQueryReturnsAll(t *testing.T) {
	skus := []string{"A1", "B2", "C3"}
	base := []string{"a1", "b2", "c3"}
	got := filterSkus("", skus, base, testCfg())
	if !reflect.DeepEqual(got, skus) {
		t.Fatalf("got %v", got)
	}
}

func TestFilterSkusSubstringWins(t *testing.T) {
	skus := []string{"SHOE-001", "BOOT-002", "SHOE-003"}
	base := []string{"shoe-001  adidas", "boot-002  nike", "shoe-003  puma"}
	got := filterSkus("shoe", skus, base, testCfg())
	want := []string{"SHOE-001", "SHOE-003"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterSkusFuzzyFallback(t *testing.T) {
	skus := []string{"SHOE-001", "BOOT-002"}
	base := []string{"shoe-001  adidas", "boot-002  nike"}
	// no substring "se01", fuzzy should still find SHOE-001
	got := filterSkus("se01", skus, base, testCfg())
	if len(got) == 0 || got[0] != "SHOE-001" {
		t.Fatalf("got %v", got)
	}
}

func TestFilterSkusMatchesBrandFromDetails(t *testing.T) {
	cache := batch.NewCache()
	cache.SetSlice("A1", batch.SliceDetails, detailsWithField(batch.FieldBrand, "Adidas"))
	cache.SetSlice("B2", batch.SliceDetails, detailsWithField(batch.FieldBrand, "Nike"))

	skus := []string{"A1", "B2"}
	base := searchBase(cache, skus)
	got := filterSkus("adidas", skus, base, testCfg())
	if !reflect.DeepEqual(got, []string{"A1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFilterSkusMaxResults(t *testing.T) {
	cfg := testCfg()
	cfg.MaxResults = 2
	skus := []string{"SHOE-1", "SHOE-2", "SHOE-3"}
	base := []string{"shoe-1", "shoe-2", "shoe-3"}
	got := filterSkus("shoe", skus, base, cfg)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
}
