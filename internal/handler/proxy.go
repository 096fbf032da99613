package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"edge-proxy-go/internal/model"
	"edge-proxy-go/internal/service"
)

// ProxyHandler relays inbound /api requests to the internal backend.
type ProxyHandler struct {
	forwarder *service.Forwarder
	logger    *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(f *service.Forwarder, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		forwarder: f,
		logger:    logger.With("component", "proxy_handler"),
	}
}

// Handle forwards the request to the backend and streams the response back.
// The wildcard remainder of the matched route is the upstream target path.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	fr := &model.ForwardRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     c.Param("*"),
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Host:     req.Host,
		Scheme:   c.Scheme(),
		Body:     req.Body,
	}

	resp, err := h.forwarder.Forward(fr)
	if err != nil {
		// Any transport failure surfaces as 502 with a fixed body; the
		// attempted upstream URL travels in the wrapped error for the log.
		h.logger.Error("backend unreachable",
			"err", err,
			"method", req.Method,
			"path", req.URL.Path,
		)
		return c.JSON(http.StatusBadGateway, map[string]string{
			"detail": "Backend unreachable",
		})
	}
	defer func() { _ = resp.Body.Close() }()

	// Copy response headers minus the framing headers already stripped by
	// the forwarder. Upstream status codes, including redirects, pass
	// through untouched.
	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the backend body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, network error), the HTTP status
	// code has already been sent, so the client receives a truncated
	// response with the original status. This is an inherent trade-off of
	// streaming proxies — we log the error for observability.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}
