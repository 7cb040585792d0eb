package handler

import (
	"context"
	"net/http"
)

// EchoResult is the JSON body produced by Echo.
type EchoResult struct {
	ID      string              `json:"id"`
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"`
	TLS     bool                `json:"tls"`
}

// Echo returns a Handler that answers every request with a JSON description
// of the request itself.
func Echo() Handler {
	return HandlerFunc(func(_ context.Context, req *Request) (*Response, error) {
		return JSON(http.StatusOK, EchoResult{
			ID:      req.ID,
			Method:  req.Method,
			Path:    req.Path,
			Query:   req.Query,
			Headers: req.Header,
			Body:    string(req.Body),
			TLS:     req.TLS,
		})
	})
}
