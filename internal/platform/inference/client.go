// Package inference provides HTTP clients for the hosted model endpoints the
// assistant delegates to: generative text, zero-shot classification, sentence
// embeddings, and image classification. Models are never run in-process; every
// client is a thin, retrying wrapper around a remote inference API.
package inference

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Option configures a client at construction time.
type Option func(*clientBase)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *clientBase) { b.httpClient = c }
}

// WithRetries sets how many times a failed call is retried.
func WithRetries(n int) Option {
	return func(b *clientBase) { b.retries = n }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(b *clientBase) { b.log = log }
}

// clientBase holds the transport plumbing shared by all inference clients.
type clientBase struct {
	httpClient *http.Client
	retries    int
	log        zerolog.Logger
}

func newClientBase(opts ...Option) clientBase {
	b := clientBase{
		httpClient: &http.Client{Timeout: defaultTimeout},
		retries:    3,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// doWithRetry executes the request, retrying on transport errors and 503
// responses. Hosted inference endpoints return 503 while a model is loading,
// so those are worth waiting out; other status codes are returned as-is.
func (b *clientBase) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= b.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := b.httpClient.Do(req)
		if err != nil {
			lastErr = err
			b.log.Warn().Err(err).Int("attempt", attempt+1).Msg("inference request failed")
			continue
		}

		if resp.StatusCode == http.StatusServiceUnavailable {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			lastErr = fmt.Errorf("model unavailable: %s", string(body))
			b.log.Warn().Int("attempt", attempt+1).Msg("model loading, retrying")
			continue
		}

		b.log.Debug().
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("inference request completed")
		return resp, nil
	}
	return nil, fmt.Errorf("inference request failed after %d attempts: %w", b.retries+1, lastErr)
}

// readError drains up to 1KB of an error response body for diagnostics.
func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, string(body))
}
