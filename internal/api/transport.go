package api

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Limit is a token-bucket rate limit: requests per second with a burst.
type Limit struct {
	RPS   float64
	Burst int
}

// TransportOptions tunes the retrying, rate-limited transport.
type TransportOptions struct {
	RetryMax    int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	JitterFn    func(base time.Duration, attempt int) time.Duration
	Clock       Clock
	Metrics     *Metrics
	Limit       Limit
}

// TransportOptionsFromEnv returns defaults with SKUB_* overrides applied.
func TransportOptionsFromEnv() TransportOptions {
	lim := Limit{RPS: 12, Burst: 12}
	if f := envFloat("SKUB_RPS"); f > 0 {
		lim.RPS = f
	}
	if n := envInt("SKUB_BURST"); n > 0 {
		lim.Burst = n
	}
	retryMax := 3
	if n := envInt("SKUB_RETRY_MAX"); n >= 0 && os.Getenv("SKUB_RETRY_MAX") != "" {
		retryMax = n
	}
	backoffBase := 250 * time.Millisecond
	if n := envInt("SKUB_RETRY_BASE_MS"); n > 0 {
		backoffBase = time.Duration(n) * time.Millisecond
	}
	backoffCap := 4 * time.Second
	if n := envInt("SKUB_RETRY_CAP_MS"); n > 0 {
		backoffCap = time.Duration(n) * time.Millisecond
	}
	return TransportOptions{
		RetryMax:    retryMax,
		BackoffBase: backoffBase,
		BackoffCap:  backoffCap,
		Clock:       realClock{},
		Metrics:     NewMetrics(),
		Limit:       lim,
		JitterFn: func(base time.Duration, attempt int) time.Duration {
			if base <= 0 {
				return 0
			}
			r := rand.New(rand.NewSource(time.Now().UnixNano()))
			return time.Duration(r.Int63n(base.Nanoseconds()))
		},
	}
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func envFloat(key string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return -1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return -1
	}
	return f
}

// bucket is a token bucket with fractional refill.
type bucket struct {
	mu     sync.Mutex
	rps    float64
	burst  float64
	tokens float64
	last   time.Time
	clock  Clock
}

func newBucket(lim Limit, clock Clock) *bucket {
	b := float64(lim.Burst)
	if b < 1 {
		b = 1
	}
	return &bucket{rps: lim.RPS, burst: b, tokens: b, last: clock.Now(), clock: clock}
}

func (b *bucket) take() (ok bool, wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	if delta := now.Sub(b.last).Seconds() * b.rps; delta > 0 {
		b.tokens = math.Min(b.burst, b.tokens+delta)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	rps := b.rps
	if rps <= 0 {
		rps = 1
	}
	wait = time.Duration((1 - b.tokens) / rps * float64(time.Second))
	if wait < 5*time.Millisecond {
		wait = 5 * time.Millisecond
	}
	return false, wait
}

// adjustRPS nudges the refill rate within [min, max].
func (b *bucket) adjustRPS(delta, min, max float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rps := b.rps + delta
	if rps < min {
		rps = min
	}
	if rps > max {
		rps = max
	}
	b.rps = rps
}

func (b *bucket) currentRPS() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rps
}

func (b *bucket) wait(req *http.Request) error {
	for {
		if err := req.Context().Err(); err != nil {
			return err
		}
		ok, d := b.take()
		if ok {
			return nil
		}
		b.clock.Sleep(d)
	}
}

// RetryingTransport wraps a base RoundTripper with rate limiting, retries
// on 429/502/503/504 and transient network errors, exponential backoff with
// jitter, and Retry-After support.
type RetryingTransport struct {
	Base http.RoundTripper
	Opts TransportOptions

	once sync.Once
	lim  *bucket
}

func NewRetryingTransport(opts TransportOptions) *RetryingTransport {
	return &RetryingTransport{Opts: opts}
}

func (t *RetryingTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *RetryingTransport) clock() Clock {
	if t.Opts.Clock != nil {
		return t.Opts.Clock
	}
	return realClock{}
}

func (t *RetryingTransport) limiter() *bucket {
	t.once.Do(func() {
		lim := t.Opts.Limit
		if lim.RPS <= 0 {
			lim = Limit{RPS: 10, Burst: 10}
		}
		t.lim = newBucket(lim, t.clock())
	})
	return t.lim
}

// replayableBody buffers a write body so retries can resend it.
func replayableBody(req *http.Request) {
	if req.Body == nil || req.GetBody != nil {
		return
	}
	if req.Method != http.MethodPost && req.Method != http.MethodPut && req.Method != http.MethodPatch {
		return
	}
	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	req.Body = io.NopCloser(bytes.NewReader(buf))
}

func (t *RetryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	replayableBody(req)
	lim := t.limiter()
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.IncRequest(req.Method)
	}

	attempts := t.Opts.RetryMax + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := lim.wait(req); err != nil {
			return nil, err
		}
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		res, err := t.base().RoundTrip(req)
		if err != nil {
			if transientNetErr(err) && attempt < attempts-1 {
				lastErr = err
				if rc := retryCountersFrom(req.Context()); rc != nil {
					rc.Total++
					rc.Net++
				}
				lim.adjustRPS(-0.1, 1, t.ceilingRPS())
				t.sleepBackoff(attempt)
				continue
			}
			return nil, err
		}

		if t.Opts.Metrics != nil {
			t.Opts.Metrics.IncStatus(res.StatusCode)
		}
		if !retryableStatus(res.StatusCode) || attempt == attempts-1 {
			// on a clean 2xx, gently nudge RPS back up to the ceiling
			if res.StatusCode >= 200 && res.StatusCode < 300 {
				lim.adjustRPS(+0.02, 1, t.ceilingRPS())
			}
			return res, nil
		}
		lim.adjustRPS(-0.3, 1, t.ceilingRPS())

		if rc := retryCountersFrom(req.Context()); rc != nil {
			rc.Total++
			if res.StatusCode == http.StatusTooManyRequests {
				rc.Status429++
			} else {
				rc.Status5xx++
			}
		}
		if t.Opts.Metrics != nil {
			t.Opts.Metrics.IncRetry()
		}
		ra := parseRetryAfter(res.Header.Get("Retry-After"), t.clock().Now())
		res.Body.Close()
		if ra > 0 {
			d := minDur(ra, t.Opts.BackoffCap)
			if t.Opts.Metrics != nil {
				t.Opts.Metrics.AddBackoff(d)
			}
			t.clock().Sleep(d)
			continue
		}
		t.sleepBackoff(attempt)
	}
	if lastErr == nil {
		lastErr = errors.New("max retries exceeded")
	}
	return nil, lastErr
}

// ceilingRPS is the configured rate; the adaptive nudging never exceeds it.
func (t *RetryingTransport) ceilingRPS() float64 {
	if t.Opts.Limit.RPS > 0 {
		return t.Opts.Limit.RPS
	}
	return 10
}

func (t *RetryingTransport) sleepBackoff(attempt int) {
	base := t.Opts.BackoffBase
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	cap := t.Opts.BackoffCap
	if cap <= 0 {
		cap = 4 * time.Second
	}
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	delay = minDur(delay, cap)
	if t.Opts.JitterFn != nil {
		delay = minDur(delay+t.Opts.JitterFn(delay, attempt), cap)
	}
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.AddBackoff(delay)
	}
	t.clock().Sleep(delay)
}

func transientNetErr(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "temporary")
}

func retryableStatus(code int) bool {
	return code == 429 || code == 502 || code == 503 || code == 504
}

func parseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(h); err == nil {
		if d := when.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
