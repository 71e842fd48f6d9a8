package eval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// defaultMaxResponseBytes caps the size of a fetched document.
const defaultMaxResponseBytes = 10 << 20

// Request is a remote fetch issued by a FromAPI injector.
type Request struct {
	Method  string
	URL     *url.URL
	Headers map[string]string
	Body    any
}

// Fetcher performs remote fetches for FromAPI injectors and returns the
// decoded JSON document. Retry, authentication and caching are the
// fetcher's concern; the evaluator only converts failures into error
// records.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (any, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *Request) (any, error)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req *Request) (any, error) {
	return f(ctx, req)
}

// HTTPFetcher fetches JSON documents over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher creates an HTTP fetcher. A nil client uses a client with a
// 30 second timeout.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
		maxBytes:  defaultMaxResponseBytes,
	}
}

// WithMaxResponseBytes limits the size of response bodies.
func (f *HTTPFetcher) WithMaxResponseBytes(n int64) *HTTPFetcher {
	f.maxBytes = n
	return f
}

// Fetch issues the request and decodes the JSON response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (any, error) {
	fail := func(status int, err error) error {
		return &FetchError{Method: req.Method, URL: req.URL.String(), StatusCode: status, Cause: err}
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fail(0, fmt.Errorf("failed to encode request body: %w", err))
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fail(0, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fail(resp.StatusCode, ErrUnexpectedStatus)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fail(0, fmt.Errorf("response exceeds %d bytes", f.maxBytes))
	}
	if len(bytes.TrimSpace(data)) == 0 || req.Method == http.MethodHead {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fail(0, fmt.Errorf("failed to decode response: %w", err))
	}
	return doc, nil
}
