// Package handler defines the request handler capability a mock server is
// built around, and the adapter that plugs it into net/http.
//
// Application logic implements Handler and never touches http.ResponseWriter:
// it receives a fully read Request and returns a Response. The Adapter does
// the translation in both directions.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RequestIDHeader carries the request ID in and out of the server.
const RequestIDHeader = "X-Request-Id"

// Request is an incoming HTTP request with its body already read.
type Request struct {
	// ID identifies the request in logs. Taken from X-Request-Id when the
	// client sends one, generated otherwise.
	ID         string
	Method     string
	Path       string
	RawQuery   string
	Query      url.Values
	Header     http.Header
	Body       []byte
	Host       string
	RemoteAddr string
	// TLS reports whether the request arrived over HTTPS.
	TLS bool
}

// Response is what a Handler returns.
//
// A zero Status means 200. A nil *Response means 204 No Content.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Handler is the application logic capability served by a mock server.
// Handle is called concurrently from many goroutines.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Text builds a plain text response.
func Text(status int, body string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:   []byte(body),
	}
}

// JSON builds a JSON response from v.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   data,
	}, nil
}
