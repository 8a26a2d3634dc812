// Package provider implements the single-attempt HTTP transport used by the
// gateway executor. It performs exactly one network round trip per call and
// leaves retry, timeout and classification decisions to the caller.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

// RequestIDHeader carries the correlation id of the logical call.
const RequestIDHeader = "X-Request-ID"

// DefaultMaxBodyBytes bounds how much of a response body is read.
const DefaultMaxBodyBytes int64 = 16 << 20 // 16MiB

// ErrResponseTooLarge is returned when a body is longer than the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// Request is a fully prepared attempt. Body is replayed as-is on every attempt.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	RequestID   string
}

// Response is the raw result of one attempt.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	Latency time.Duration
}

// HTTPProvider sends requests to one gateway base URL.
type HTTPProvider struct {
	name         string
	baseURL      string
	httpClient   *http.Client
	maxBodyBytes int64
}

// NewHTTPProvider creates a provider for baseURL. Trailing slashes are trimmed so
// paths like "/health" are appended verbatim to the prefix.
func NewHTTPProvider(name, baseURL string) *HTTPProvider {
	return NewHTTPProviderWithClient(name, baseURL, &http.Client{Transport: NewTransport()})
}

// NewHTTPProviderWithClient is like NewHTTPProvider with a caller-supplied client.
// The client must not set a Timeout; attempt deadlines come from the context.
func NewHTTPProviderWithClient(name, baseURL string, hc *http.Client) *HTTPProvider {
	if hc == nil {
		hc = &http.Client{Transport: NewTransport()}
	}
	return &HTTPProvider{
		name:         name,
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:   hc,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// NewTransport returns a pooled transport with HTTP/2 enabled for TLS gateways.
func NewTransport() *http.Transport {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if err := http2.ConfigureTransport(t); err != nil {
		slog.Warn("http2 unavailable, falling back to http/1.1", "error", err)
	}
	return t
}

// SetMaxBodyBytes changes the response read limit. Non-positive values are ignored.
func (p *HTTPProvider) SetMaxBodyBytes(n int64) {
	if n > 0 {
		p.maxBodyBytes = n
	}
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// BaseURL returns the normalized base prefix.
func (p *HTTPProvider) BaseURL() string {
	return p.baseURL
}

// URL joins the base prefix and a path.
func (p *HTTPProvider) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.baseURL + path
}

// Do performs one attempt. ctx governs the whole round trip including reading
// the body. A non-2xx status is not an error at this layer.
func (p *HTTPProvider) Do(ctx context.Context, r Request) (*Response, error) {
	start := time.Now()

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, p.URL(r.Path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.RequestID != "" {
		req.Header.Set(RequestIDHeader, r.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > p.maxBodyBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrResponseTooLarge, p.maxBodyBytes)
	}

	return &Response{
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    data,
		Latency: time.Since(start),
	}, nil
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
