package api

import "context"

type retryCtxKey struct{}

// RetryCounters attributes transport retries to one logical operation, e.g.
// a single bulk-run item. The transport updates the struct in place.
type RetryCounters struct {
	Total     int64
	Status429 int64
	Status5xx int64
	Net       int64
}

// WithRetryCounters attaches counters to the context for the transport to
// update.
func WithRetryCounters(ctx context.Context, rc *RetryCounters) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, retryCtxKey{}, rc)
}

func retryCountersFrom(ctx context.Context) *RetryCounters {
	if ctx == nil {
		return nil
	}
	if rc, ok := ctx.Value(retryCtxKey{}).(*RetryCounters); ok {
		return rc
	}
	return nil
}
