package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"sku-batch/internal/core/batch"
)

// FilterConfig bundles tuning parameters for the fuzzy SKU search.
type FilterConfig struct {
	MinCoverage float64 // minimal share of the query that must match
	MaxSpread   int     // maximal distance between first and last match index
	MaxResults  int     // upper limit of returned results
}

// searchBase builds the searchable string per SKU: the SKU itself plus
// brand and status from the detail snapshot, so a brand query finds its
// articles even when the SKU code carries no hint.
func searchBase(c *batch.Cache, skus []string) []string {
	base := make([]string, len(skus))
	for i, sku := range skus {
		e := c.Get(sku)
		brand, _ := batch.DetailValue(e.Details, batch.FieldBrand)
		status, _ := batch.DetailValue(e.Details, batch.FieldStatus)
		base[i] = strings.ToLower(sku + "  " + brand + "  " + status)
	}
	return base
}

// filterSkus narrows the list by substring first, falling back to fuzzy
// matching when no substring hit exists.
func filterSkus(q string, skus, base []string, cfg FilterConfig) []string {
	q = strings.TrimSpace(strings.ToLower(q))
	if q == "" {
		return append([]string(nil), skus...)
	}

	sub := make([]string, 0, min(cfg.MaxResults, len(skus)))
	for i, b := range base {
		if strings.Contains(b, q) {
			sub = append(sub, skus[i])
			if len(sub) >= cfg.MaxResults {
				break
			}
		}
	}
	if len(sub) > 0 {
		return sub
	}
	return filterByFuzzy(q, skus, base, cfg)
}

// filterByFuzzy applies fuzzy matching and prunes results by coverage and
// spread thresholds from cfg.
func filterByFuzzy(q string, skus, base []string, cfg FilterConfig) []string {
	matches := fuzzy.Find(q, base)

	pruned := make([]string, 0, len(matches))
	for _, mt := range matches {
		if matchCoverage(q, mt) < cfg.MinCoverage {
			continue
		}
		if matchSpread(mt) > cfg.MaxSpread {
			continue
		}
		pruned = append(pruned, skus[mt.Index])
		if len(pruned) >= cfg.MaxResults {
			break
		}
	}
	if len(pruned) == 0 {
		for i := 0; i < len(matches) && i < cfg.MaxResults; i++ {
			pruned = append(pruned, skus[matches[i].Index])
		}
	}
	return pruned
}

// matchCoverage returns the ratio of matched characters to the query length.
func matchCoverage(q string, m fuzzy.Match) float64 {
	if len(q) == 0 {
		return 1
	}
	return float64(len(m.MatchedIndexes)) / float64(len(q))
}

// matchSpread returns the distance between the first and last matched index.
func matchSpread(m fuzzy.Match) int {
	if len(m.MatchedIndexes) == 0 {
		return 0
	}
	return m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
