// Package middleware provides the decorators a mock server wraps around its
// handler. Chain composes them, outermost first.
package middleware

import "net/http"

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered list of middleware. The first element is the outermost
// decorator and sees the request first.
type Chain []Middleware

// NewChain creates a chain from the given middleware, skipping nil entries.
func NewChain(mws ...Middleware) Chain {
	c := make(Chain, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			c = append(c, mw)
		}
	}
	return c
}

// Append returns a new chain with mws added after the existing entries.
func (c Chain) Append(mws ...Middleware) Chain {
	out := make(Chain, 0, len(c)+len(mws))
	out = append(out, c...)
	return append(out, NewChain(mws...)...)
}

// Then wraps h with every middleware in the chain.
// For a chain [A, B], a request flows A -> B -> h.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}
