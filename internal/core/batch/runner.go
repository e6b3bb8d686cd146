package batch

import (
	"context"
	"sync"
	"time"

	"sku-batch/internal/api"
	"sku-batch/internal/infra/logx"
)

// runItems pushes skus through a bounded worker pool, tallying one report
// entry per item. The run always completes; per-item failures never abort
// the remaining items. Each item gets retry counters attached so transport
// retries are attributed to it in the log.
func runItems(ctx context.Context, op string, skus []string, workers int, report *Report, fn func(ctx context.Context, sku string) error) {
	if workers <= 0 {
		workers = 4
	}
	ch := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sku := range ch {
				select {
				case <-ctx.Done():
					report.AddFailure(sku, op, ctx.Err(), 0)
					continue
				default:
				}
				start := time.Now()
				rc := &api.RetryCounters{}
				err := fn(api.WithRetryCounters(ctx, rc), sku)
				ms := time.Since(start).Milliseconds()
				if err != nil {
					report.AddFailure(sku, op, err, ms)
					logx.L().Warn().Str("run", report.RunID).Str("sku", sku).Str("op", op).
						Int64("retries", rc.Total).Err(err).Msg("bulk item failed")
					continue
				}
				report.AddSuccess(sku, op, ms)
			}
		}()
	}
	for _, sku := range skus {
		ch <- sku
	}
	close(ch)
	wg.Wait()
}

// JSONGenerator triggers enrichment JSON generation.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, sku string) error
}

// RunEnrichment generates the enrichment JSON for every SKU of the
// selection and refreshes the json-exists flag of the ones that succeeded.
func RunEnrichment(ctx context.Context, gen JSONGenerator, refresh Refresher, skus []string, workers int) *Report {
	report := NewReport()
	logx.L().Info().Str("run", report.RunID).Int("skus", len(skus)).Msg("enrichment run started")
	runItems(ctx, "json.generate", skus, workers, report, func(ctx context.Context, sku string) error {
		if err := gen.GenerateJSON(ctx, sku); err != nil {
			return err
		}
		// Post-mutation refetch keeps the flag authoritative; a refresh
		// failure only stales the flag, the generation itself succeeded.
		if err := refresh.RefreshOne(ctx, sku, SliceJSONExists); err != nil {
			logx.L().Warn().Str("run", report.RunID).Str("sku", sku).Err(err).Msg("json flag refresh failed")
		}
		return nil
	})
	succ, _, fail := report.Counts()
	logx.L().Info().Str("run", report.RunID).Int("succeeded", succ).Int("failed", fail).Msg("enrichment run finished")
	return report
}

// ListingCreator publishes drafts in one batch call.
type ListingCreator interface {
	CreateListingsBatch(ctx context.Context, items []api.CreateResultRequest) (api.BatchCreateResult, error)
}

// RunListingCreation publishes the cached drafts of the given SKUs in one
// batch. SKUs without a cached draft get one refresh attempt first; a SKU
// that still has none is reported failed without blocking the rest.
func RunListingCreation(ctx context.Context, creator ListingCreator, cache *Cache, refresh Refresher, skus []string) *Report {
	report := NewReport()
	logx.L().Info().Str("run", report.RunID).Int("skus", len(skus)).Msg("listing creation started")

	items := make([]api.CreateResultRequest, 0, len(skus))
	for _, sku := range skus {
		e := cache.Get(sku)
		if e.Listing == nil {
			if err := refresh.RefreshOne(ctx, sku, SliceListing); err != nil {
				report.AddFailure(sku, "listing.create", err, 0)
				continue
			}
			e = cache.Get(sku)
		}
		if e.Listing == nil {
			report.AddFailure(sku, "listing.create", remoteFailure("no listing draft"), 0)
			continue
		}
		items = append(items, api.CreateResultRequest{SKU: sku, Listing: *e.Listing})
	}
	if len(items) == 0 {
		return report
	}

	start := time.Now()
	res, err := creator.CreateListingsBatch(ctx, items)
	ms := time.Since(start).Milliseconds()
	if err != nil {
		for _, it := range items {
			report.AddFailure(it.SKU, "listing.create", err, ms)
		}
		return report
	}

	bysku := make(map[string]api.CreateResult, len(res.Results))
	for _, r := range res.Results {
		bysku[r.SKU] = r
	}
	for _, it := range items {
		r, ok := bysku[it.SKU]
		switch {
		case !ok:
			report.AddFailure(it.SKU, "listing.create", remoteFailure("no result for sku"), ms)
		case !r.Success:
			report.AddFailure(it.SKU, "listing.create", remoteFailure(joinLines(r.Errors)), ms)
		case len(r.Warnings) > 0:
			report.AddWarning(it.SKU, "listing.create", joinLines(r.Warnings), ms)
		default:
			report.AddSuccess(it.SKU, "listing.create", ms)
		}
		if ok && r.Success {
			if err := refresh.RefreshOne(ctx, it.SKU, SliceHasListing); err != nil {
				logx.L().Warn().Str("run", report.RunID).Str("sku", it.SKU).Err(err).Msg("listing flag refresh failed")
			}
		}
	}
	succ, warn, fail := report.Counts()
	logx.L().Info().Str("run", report.RunID).Int("succeeded", succ).Int("warnings", warn).Int("failed", fail).Msg("listing creation finished")
	return report
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "; "
		}
		out += l
	}
	return out
}
