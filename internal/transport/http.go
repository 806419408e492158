package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/inspectsync/internal/auth"
	"github.com/dmitrijs2005/inspectsync/internal/logging"
)

const DefaultTimeout = 30 * time.Second

// EndpointSource resolves the endpoint URL at send time, so a changed setting
// is picked up without rebuilding the client.
type EndpointSource func(ctx context.Context) (string, error)

// StaticEndpoint always resolves to url.
func StaticEndpoint(url string) EndpointSource {
	return func(context.Context) (string, error) { return url, nil }
}

// HTTPClient posts upload payloads as JSON.
type HTTPClient struct {
	http     *resty.Client
	endpoint EndpointSource
	signer   auth.Signer
	log      logging.Logger
}

// HTTPOption customizes an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithSigner attaches "Authorization: Bearer <jwt>" for the request's editor.
func WithSigner(s auth.Signer) HTTPOption {
	return func(c *HTTPClient) { c.signer = s }
}

// NewHTTPClient returns a client posting to the URL endpoint yields at send
// time. timeout bounds each request; no request is retried.
func NewHTTPClient(endpoint EndpointSource, timeout time.Duration, log logging.Logger, opts ...HTTPOption) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &HTTPClient{
		http:     resty.New().SetTimeout(timeout).SetRetryCount(0),
		endpoint: endpoint,
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) Send(ctx context.Context, req UploadRequest) bool {
	if err := c.Post(ctx, req); err != nil {
		c.log.Warn(ctx, "upload failed",
			"record_id", req.RecordID, "start_idx", req.StartIndex, "images", len(req.Images), "error", err)
		return false
	}
	c.log.Debug(ctx, "upload accepted",
		"record_id", req.RecordID, "start_idx", req.StartIndex, "images", len(req.Images))
	return true
}

// Post performs one delivery attempt. Transport errors wrap ErrUnavailable,
// non-2xx responses wrap ErrRejected.
func (c *HTTPClient) Post(ctx context.Context, req UploadRequest) error {
	url, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	r := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req.Payload())

	if c.signer.Enabled() {
		tok, err := c.signer.Token(req.Editor)
		if err != nil {
			return fmt.Errorf("failed to sign upload: %w", err)
		}
		r.SetAuthToken(tok)
	}

	resp, err := r.Post(url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status())
	}
	return nil
}

// Ping reports whether the endpoint host answers at all. Any HTTP response
// counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	url, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	if _, err := c.http.R().SetContext(ctx).Head(url); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *HTTPClient) resolve(ctx context.Context) (string, error) {
	url, err := c.endpoint(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve endpoint: %w", err)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrNoEndpoint
	}
	return url, nil
}
