package evaluator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is the part of an HTTP response the runtime looks at.
type Response struct {
	Status int
	Body   string
}

// Fetcher performs HTTP requests for JSON clients and the HTTP Request
// builtin. Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string) (*Response, error)
}

type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, method, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{Status: resp.StatusCode, Body: string(body)}, nil
}

// MockFetcher answers from a fixed table keyed by URL. Unknown URLs fail
// with a 404 response.
type MockFetcher struct {
	Responses map[string]Response
	Errors    map[string]error
}

func (m *MockFetcher) Fetch(_ context.Context, _ string, url string) (*Response, error) {
	if err, ok := m.Errors[url]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[url]; ok {
		return &resp, nil
	}
	return &Response{Status: http.StatusNotFound, Body: "no mock for " + url}, nil
}
