// Package service implements the core request forwarding logic.
package service

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"edge-proxy-go/internal/client"
	"edge-proxy-go/internal/config"
	"edge-proxy-go/internal/model"
)

// hopByHopHeaders must not cross the proxy boundary. Host and Content-Length
// are included: Host is replaced by the upstream host and Content-Length is
// recomputed by the transport from the buffered body.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
	"Host",
	"Content-Length",
}

// strippedResponseHeaders would mismatch the re-streamed body; the edge
// transport recomputes framing and performs its own encoding negotiation.
var strippedResponseHeaders = []string{
	"Content-Encoding",
	"Content-Length",
	"Transfer-Encoding",
}

// Forwarder relays inbound requests to the configured internal backend.
// The base URL is resolved once at construction and immutable afterwards.
type Forwarder struct {
	client  *client.BackendClient
	logger  *slog.Logger
	baseURL *url.URL
}

// NewForwarder creates a Forwarder. An unparseable or hostless base URL is a
// configuration error and fails construction; it is never retried per-request.
func NewForwarder(c *client.BackendClient, cfg *config.Config, logger *slog.Logger) (*Forwarder, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q has no host", cfg.Upstream.BaseURL)
	}

	return &Forwarder{
		client:  c,
		logger:  logger.With("component", "forwarder"),
		baseURL: u,
	}, nil
}

// Forward relays a ForwardRequest to the backend and returns the response.
// The caller is responsible for closing the response body; the body is a
// live stream from the backend, never buffered here.
//
// Method, status code, and body bytes pass through exactly. 3xx, 4xx and 5xx
// responses from the backend are not interpreted. Transport failures are
// returned as errors carrying the attempted upstream URL.
func (f *Forwarder) Forward(fr *model.ForwardRequest) (*model.ForwardResponse, error) {
	upstreamURL := f.buildUpstreamURL(fr.Path, fr.RawQuery)
	header := f.outboundHeaders(fr)

	body, err := outboundBody(fr)
	if err != nil {
		return nil, fmt.Errorf("read inbound body: %w", err)
	}

	f.logger.Debug("forwarding request",
		"method", fr.Method,
		"url", upstreamURL,
	)

	resp, err := f.client.DoStream(fr.Ctx, fr.Method, upstreamURL, header, body)
	if err != nil {
		return nil, fmt.Errorf("forward %s: %w", upstreamURL, err)
	}

	resp.Header = stripResponseHeaders(resp.Header)
	return resp, nil
}

// buildUpstreamURL joins the configured base path with the target path and
// carries the inbound query string over verbatim.
func (f *Forwarder) buildUpstreamURL(targetPath, rawQuery string) string {
	u := *f.baseURL
	u.Path = joinPath(f.baseURL.Path, targetPath)
	u.RawQuery = rawQuery
	return u.String()
}

// joinPath concatenates base and target with exactly one separating slash,
// regardless of leading/trailing slashes on either side. An empty base yields
// "/" + target.
func joinPath(base, target string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
}

// outboundHeaders clones the inbound headers, removes hop-by-hop headers, and
// records the original edge host and scheme in X-Forwarded-*.
func (f *Forwarder) outboundHeaders(fr *model.ForwardRequest) http.Header {
	dst := fr.Header.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
	if fr.Host != "" {
		dst.Set("X-Forwarded-Host", fr.Host)
	}
	if fr.Scheme != "" {
		dst.Set("X-Forwarded-Proto", strings.TrimSuffix(fr.Scheme, ":"))
	}
	return dst
}

// outboundBody buffers the inbound body for forwarding. GET and HEAD requests
// never carry a body upstream, even when the inbound request had one. The
// inbound server's body size limit bounds the allocation.
func outboundBody(fr *model.ForwardRequest) (io.Reader, error) {
	if fr.Method == http.MethodGet || fr.Method == http.MethodHead {
		return nil, nil
	}
	if fr.Body == nil {
		return nil, nil
	}
	defer func() { _ = fr.Body.Close() }()

	data, err := io.ReadAll(fr.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return bytes.NewReader(data), nil
}

// stripResponseHeaders removes framing and encoding headers that would not
// match the re-streamed body.
func stripResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[key] = vals
	}
	for _, h := range strippedResponseHeaders {
		dst.Del(h)
	}
	return dst
}
