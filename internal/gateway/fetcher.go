// Package gateway fetches off-chain token content through public
// content-addressed gateways, with fallback across a prioritized host list.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every individual gateway attempt.
const DefaultTimeout = 5 * time.Second

// maxBodySize caps response bodies; metadata documents are small.
const maxBodySize = 1024 * 1024

// DefaultGateways is the ordered list of content gateways tried for
// content-addressed URIs.
var DefaultGateways = []string{
	"https://ipfs.io/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
}

// ErrGatewaysExhausted is returned when every gateway attempt failed, timed
// out, or returned an HTML document.
var ErrGatewaysExhausted = errors.New("all content gateways failed")

// ErrHTMLResponse is returned when a fetch yields an HTML document where
// structured content was expected.
var ErrHTMLResponse = errors.New("received HTML instead of content")

// HTTPError is a non-gateway fetch failure carrying the response status.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Status)
}

// NormalizeURI rewrites token URI scheme variants into resolvable HTTP(S) URLs:
// "ipfs://" and bare "/ipfs/" paths are pointed at the primary gateway, bare
// hostnames get an https scheme, and well-formed http(s) and inline "data:"
// URIs pass through untouched.
func NormalizeURI(uri string) string {
	if uri == "" {
		return ""
	}
	if strings.HasPrefix(uri, "ipfs://") {
		return "https://ipfs.io/ipfs/" + strings.TrimPrefix(uri, "ipfs://")
	}
	if strings.HasPrefix(uri, "data:") {
		return uri
	}
	if strings.HasPrefix(uri, "/ipfs/") {
		return "https://ipfs.io" + uri
	}
	if !strings.HasPrefix(uri, "http") {
		return "https://" + uri
	}
	return uri
}

// IsHTMLBody reports whether body looks like an HTML document. Gateways serve
// HTML error or landing pages with a success status; those are never valid
// token content.
func IsHTMLBody(body []byte) bool {
	trimmed := bytes.ToLower(bytes.TrimSpace(body))
	return bytes.HasPrefix(trimmed, []byte("<!doctype html")) ||
		bytes.HasPrefix(trimmed, []byte("<html"))
}

// Fetcher retrieves content for token URIs. Content-addressed URIs fan out
// across the configured gateway list; everything else is a single bounded GET.
// Stateless and safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	gateways []string
	logger   *logrus.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithGateways overrides the gateway host list.
func WithGateways(gateways []string) Option {
	return func(f *Fetcher) {
		f.gateways = gateways
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a Fetcher with the default gateway list and timeout.
func NewFetcher(logger *logrus.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		gateways: DefaultGateways,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch normalizes uri and retrieves its content. For content-addressed URIs
// the gateways are tried in order and the first success that is not an HTML
// document wins; an HTML body always means "try the next gateway". For plain
// URLs a single GET is issued and failures carry the HTTP status.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	normalized := NormalizeURI(uri)

	if idx := strings.Index(normalized, "/ipfs/"); idx >= 0 {
		return f.fetchFromGateways(ctx, normalized[idx+len("/ipfs/"):])
	}

	body, status, err := f.get(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", normalized, err)
	}
	if status < 200 || status >= 300 {
		return nil, &HTTPError{Status: status}
	}
	if IsHTMLBody(body) {
		return nil, ErrHTMLResponse
	}
	return body, nil
}

// fetchFromGateways tries each gateway for the given content hash.
func (f *Fetcher) fetchFromGateways(ctx context.Context, hash string) ([]byte, error) {
	for _, gw := range f.gateways {
		body, status, err := f.get(ctx, gw+hash)
		if err != nil {
			f.logger.WithError(err).WithField("gateway", gw).Debug("gateway attempt failed")
			continue
		}
		if status < 200 || status >= 300 {
			f.logger.WithFields(logrus.Fields{"gateway": gw, "status": status}).Debug("gateway returned non-success")
			continue
		}
		if IsHTMLBody(body) {
			f.logger.WithField("gateway", gw).Debug("gateway returned HTML, trying next")
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: hash %s", ErrGatewaysExhausted, hash)
}

// get issues one bounded GET and returns the body and status.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NFT-Platform/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
