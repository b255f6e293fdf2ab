package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (compatible; market-mood/1.0)"

// ErrClientStatus marks a 4xx response. Retrying those only repeats the
// rejection, so Fetcher gives up at once.
var ErrClientStatus = errors.New("client error status")

type FetchOptions struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	RatePerSec float64
}

func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Timeout:    15 * time.Second,
		RatePerSec: 2,
	}
}

// Fetcher performs paced GET requests with a bounded retry.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
	opts    FetchOptions
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewFetcher(tracer trace.Tracer, opts FetchOptions) *Fetcher {
	def := DefaultFetchOptions()
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		tracer:  tracer,
		opts:    opts,
		sleep:   sleepCtx,
	}
}

// Get returns the response body of url. Network errors and 5xx responses are
// retried; 4xx responses fail immediately with ErrClientStatus.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.get")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := f.do(ctx, url, headers)
		if err == nil {
			span.SetAttributes(attribute.Int("http.attempts", attempt))
			return body, nil
		}
		lastErr = err
		log.Printf("Attempt %d/%d: error fetching %s: %v", attempt, f.opts.MaxRetries, url, err)

		if errors.Is(err, ErrClientStatus) {
			break
		}
		if attempt < f.opts.MaxRetries {
			if err := f.sleep(ctx, f.opts.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	span.RecordError(lastErr)
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (f *Fetcher) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w %d: %s", ErrClientStatus, resp.StatusCode, truncate(string(body), 200))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
