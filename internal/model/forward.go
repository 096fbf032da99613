// Package model defines shared types for the edge forwarder.
package model

import (
	"context"
	"io"
	"net/http"
)

// ForwardRequest represents an inbound request to be relayed to the backend.
// RawQuery carries the inbound query string verbatim; it is never re-encoded
// on the way upstream. Host and Scheme describe the inbound edge connection
// and feed the X-Forwarded-* headers.
type ForwardRequest struct {
	Ctx      context.Context
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Host     string
	Scheme   string
	Body     io.ReadCloser
}

// ForwardResponse represents the backend response to be streamed back.
// Ownership of Body passes to the caller, who must close it.
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
