// Package fetch retrieves raw status payloads from upstream sources.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"
)

// Responses larger than this are rejected rather than parsed.
const maxPayloadBytes = 8 << 20

var ErrEmptyPayload = errors.New("empty payload")

// Fetcher performs rate-limited GETs against an upstream source.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

type Options struct {
	Timeout time.Duration
	RPS     float64
	Headers map[string]string
	// Transport overrides the base round tripper; gzip handling wraps it either way.
	Transport http.RoundTripper
}

func New(opts Options) *Fetcher {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
		if opts.RPS > 1 {
			burst = int(opts.RPS)
		}
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: gzhttp.Transport(base),
		},
		limiter: rate.NewLimiter(limit, burst),
		headers: opts.Headers,
	}
}

// Fetch returns the response body of url. Non-2xx statuses and empty bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "train-tracker/1.0")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxPayloadBytes {
		return nil, fmt.Errorf("get %s: payload exceeds %d bytes", url, maxPayloadBytes)
	}
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}
	return body, nil
}
